package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"urbanmart-dashboard/internal/errors"
	"urbanmart-dashboard/internal/services"
)

const dateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// FilterQuery is the filter as sent by API clients (query string) and by the
// dashboard (Datastar signals). An absent list selects every value. A list
// present but empty, as sent for a cleared multi-select, selects nothing.
type FilterQuery struct {
	Start      string   `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End        string   `json:"end" validate:"omitempty,datetime=2006-01-02"`
	Stores     []string `json:"stores" validate:"omitempty,dive,required"`
	Categories []string `json:"categories" validate:"omitempty,dive,required"`
	Channels   []string `json:"channels" validate:"omitempty,dive,required"`
	Top        int      `json:"top" validate:"omitempty,gte=5,lte=50"`
	Limit      int      `json:"limit,omitempty" validate:"omitempty,gte=1,lte=5000"`
}

// ParseFilterQuery reads start, end, store, category, channel, top and limit
// from the URL. List parameters may be repeated or comma separated.
func ParseFilterQuery(values url.Values) (FilterQuery, error) {
	q := FilterQuery{
		Start:      strings.TrimSpace(values.Get("start")),
		End:        strings.TrimSpace(values.Get("end")),
		Stores:     list(values, "store"),
		Categories: list(values, "category"),
		Channels:   list(values, "channel"),
	}

	var err error
	if q.Top, err = intParam(values, "top"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

// Filter validates q and converts it into a services.Filter.
func (q FilterQuery) Filter() (services.Filter, error) {
	if err := validate.Struct(q); err != nil {
		return services.Filter{}, errors.Validation(err, "Invalid filter")
	}

	f := services.Filter{
		Stores:     q.Stores,
		Categories: q.Categories,
		Channels:   q.Channels,
	}
	if q.Start != "" {
		f.Start, _ = time.Parse(dateLayout, q.Start)
	}
	if q.End != "" {
		f.End, _ = time.Parse(dateLayout, q.End)
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return services.Filter{}, errors.Validation(
			fmt.Errorf("end date %s is before start date %s", q.End, q.Start), "Invalid filter")
	}
	return f, nil
}

// TopN is the requested customer count clamped to the dashboard range.
func (q FilterQuery) TopN() int {
	return services.ClampTopN(q.Top)
}

func (q FilterQuery) PreviewLimit() int {
	if q.Limit <= 0 {
		return services.DefaultPreviewRows
	}
	return q.Limit
}

func list(values url.Values, key string) []string {
	var out []string
	for _, raw := range values[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func intParam(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validation(fmt.Errorf("%s must be an integer, got %q", key, raw), "Invalid filter")
	}
	return n, nil
}
