package httputil

import (
	"fmt"
	"net/http"
	"strconv"
)

// QueryFloat parses an optional float query parameter, returning the
// default when absent.
func QueryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be a number, got %q", name, raw)
	}
	return val, nil
}

// QueryInt parses an optional integer query parameter, returning the
// default when absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer, got %q", name, raw)
	}
	return val, nil
}

// PathInt64 parses a path variable as int64.
func PathInt64(vars map[string]string, name string) (int64, error) {
	raw, ok := vars[name]
	if !ok {
		return 0, fmt.Errorf("missing path parameter %s", name)
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("path parameter %s must be an integer, got %q", name, raw)
	}
	return val, nil
}
