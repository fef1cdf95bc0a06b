package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"humidity-server/internal/modules/board/types"
)

func parseUnitID(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid unit_ID %q", s)
	}
	return n, nil
}

// parseReadingInput reads the optional sensor fields from the query string.
// A parameter that is present must parse; one that is absent stays nil so the
// service can apply defaulting.
func parseReadingInput(r *http.Request) (types.ReadingInput, error) {
	q := r.URL.Query()
	var in types.ReadingInput

	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"t", &in.Temperature},
		{"h", &in.Humidity},
		{"w", &in.WaterLevel},
	} {
		if s := q.Get(f.name); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return types.ReadingInput{}, fmt.Errorf("invalid %q (expected number)", f.name)
			}
			*f.dst = &v
		}
	}

	for _, f := range []struct {
		name string
		dst  **int
	}{
		{"eb", &in.ExternalPower},
		{"ups", &in.UPSState},
		{"x", &in.X},
		{"y", &in.Y},
	} {
		if s := q.Get(f.name); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return types.ReadingInput{}, fmt.Errorf("invalid %q (expected integer)", f.name)
			}
			*f.dst = &v
		}
	}

	return in, nil
}

func parseTimeRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()

	from, err = time.Parse(time.RFC3339, q.Get("start_time"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid 'start_time' (expected RFC3339)")
	}
	to, err = time.Parse(time.RFC3339, q.Get("end_time"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid 'end_time' (expected RFC3339)")
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, errors.New("'start_time' must be <= 'end_time'")
	}
	return from, to, nil
}

func parseMonthYear(r *http.Request) (time.Month, int, error) {
	q := r.URL.Query()

	m, err := strconv.Atoi(q.Get("month"))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, errors.New("invalid 'month' (expected 1-12)")
	}
	y, err := strconv.Atoi(q.Get("year"))
	if err != nil || y < 1 {
		return 0, 0, errors.New("invalid 'year'")
	}
	return time.Month(m), y, nil
}
