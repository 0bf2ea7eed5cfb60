package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"urbanmart-dashboard/internal/generator"
)

type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"localhost"`
	Port            int           `envconfig:"SERVER_PORT" default:"8084"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatasetConfig struct {
	CSVFile   string `envconfig:"CSV_FILE" default:"urbanmart_sales.csv"`
	StoreName string `envconfig:"STORE_NAME" default:"UrbanMart"`
	Rows      int    `envconfig:"DATASET_ROWS" default:"25000"`
	Seed      int64  `envconfig:"DATASET_SEED" default:"42"`
	StartDate string `envconfig:"DATASET_START_DATE" default:"2024-01-01"`
	EndDate   string `envconfig:"DATASET_END_DATE" default:"2024-12-31"`
}

type LoggerConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `envconfig:"SECURITY_RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRPS    int      `envconfig:"SECURITY_RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst  int      `envconfig:"SECURITY_RATE_LIMIT_BURST" default:"10"`
	AllowedOrigins  []string `envconfig:"SECURITY_ALLOWED_ORIGINS" default:"http://localhost:8084"`
	TrustedProxies  []string `envconfig:"SECURITY_TRUSTED_PROXIES" default:"127.0.0.1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Dataset.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	if c.Dataset.Rows < 0 {
		return fmt.Errorf("dataset rows cannot be negative, got %d", c.Dataset.Rows)
	}

	if _, err := c.Dataset.Params(); err != nil {
		return err
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

// Params converts the dataset settings into generator parameters.
func (d DatasetConfig) Params() (generator.Params, error) {
	start, err := time.Parse(generator.DateLayout, d.StartDate)
	if err != nil {
		return generator.Params{}, fmt.Errorf("invalid dataset start date %q: %w", d.StartDate, err)
	}
	end, err := time.Parse(generator.DateLayout, d.EndDate)
	if err != nil {
		return generator.Params{}, fmt.Errorf("invalid dataset end date %q: %w", d.EndDate, err)
	}
	if end.Before(start) {
		return generator.Params{}, fmt.Errorf("dataset end date %s is before start date %s", d.EndDate, d.StartDate)
	}
	return generator.Params{
		Count: d.Rows,
		Seed:  d.Seed,
		Start: start,
		End:   end,
	}, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
