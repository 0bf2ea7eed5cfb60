package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"urbanmart-dashboard/internal/generator"
)

// Loader reads the persisted dataset, regenerating it when the file is
// missing. Frames are memoized per path for the lifetime of the Loader.
// A Loader is not safe for concurrent use.
type Loader struct {
	gen    *generator.Generator
	params generator.Params
	logger *slog.Logger
	frames map[string]*Frame

	onGenerate func()
}

func NewLoader(gen *generator.Generator, params generator.Params, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		gen:    gen,
		params: params,
		logger: logger,
		frames: make(map[string]*Frame),
	}
}

// OnGenerate registers fn to run after each regeneration of a missing file.
func (l *Loader) OnGenerate(fn func()) {
	l.onGenerate = fn
}

func (l *Loader) Load(path string) (*Frame, error) {
	if f, ok := l.frames[path]; ok {
		return f, nil
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		l.logger.Info("dataset not found, generating", "path", path, "rows", l.params.Count, "seed", l.params.Seed)
		if err := l.generate(path); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	start := time.Now()
	f, err := ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	l.logger.Info("dataset loaded", "path", path, "rows", f.Len(), "duration", time.Since(start))

	l.frames[path] = f
	return f, nil
}

// Loaded reports whether a frame for path is memoized.
func (l *Loader) Loaded(path string) bool {
	_, ok := l.frames[path]
	return ok
}

func (l *Loader) generate(path string) error {
	if l.gen == nil {
		return fmt.Errorf("dataset %s missing and no generator configured", path)
	}
	txs, _, err := l.gen.Generate(l.params)
	if err != nil {
		return fmt.Errorf("generate dataset: %w", err)
	}
	if err := WriteFile(path, txs); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if l.onGenerate != nil {
		l.onGenerate()
	}
	return nil
}
