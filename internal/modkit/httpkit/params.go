package httpkit

import (
	"net/http"
	"time"

	perrs "brigade/internal/platform/errors"

	"github.com/go-chi/chi/v5"
)

// Param returns the named route parameter, empty when absent
func Param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// MustParam returns the named route parameter or a validation error
func MustParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if v == "" {
		return "", perrs.Validationf("missing path parameter %q", name)
	}
	return v, nil
}

// QueryTime parses an RFC-3339 timestamp from the query string.
// Returns the zero time when the key is absent
func QueryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, perrs.Validationf("query %q must be RFC-3339", key)
	}
	return t, nil
}
