package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"missio.app/internal/domain"
	"missio.app/internal/obs"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates the domain error taxonomy to HTTP exactly once.
// Internal errors are logged and hidden from the client.
func writeError(w http.ResponseWriter, err error) {
	code := statusFromError(err)
	msg := err.Error()
	switch code {
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	case http.StatusInternalServerError:
		obs.Logger().WithError(err).Error("internal error")
		msg = "internal server error"
	}
	writeJSON(w, code, map[string]any{"error": msg})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, code int, msg string) {
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, code, map[string]any{"error": msg})
}

// decodeJSON enforces a strict body: unknown fields and trailing data
// are rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed json body: %v", domain.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected trailing data", domain.ErrInvalidInput)
	}
	return nil
}

// parseDate accepts a bare date or full RFC 3339 timestamp.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", domain.ErrInvalidInput, raw)
}

func queryInt(r *http.Request, key string) int {
	var n int
	_, _ = fmt.Sscanf(r.URL.Query().Get(key), "%d", &n)
	return n
}
