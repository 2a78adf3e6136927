// Package ids generates and validates the identifiers used across the
// service: UUIDs for persisted entities (users, accounts, missions, ...)
// and ULIDs for request tracing, where lexicographic ordering helps when
// grepping logs.
package ids

import (
	"fmt"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"missio.app/internal/domain"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewRequestID returns a lexicographically sortable identifier attached to
// each inbound HTTP request.
func NewRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// New returns a fresh entity identifier.
func New() string {
	return uuid.NewString()
}

// Parse validates an entity identifier taken from a path segment or token
// claim and returns its canonical form. Malformed input maps to
// domain.ErrInvalidInput so handlers answer 400 rather than 404.
func Parse(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: identifier is required", domain.ErrInvalidInput)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed identifier", domain.ErrInvalidInput)
	}
	return id.String(), nil
}
