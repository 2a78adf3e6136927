package auth

import (
	"fmt"

	"missio.app/internal/domain"
)

// ErrInvalidToken covers every token decode failure: bad signature,
// malformed payload, wrong signing method, expiry, wrong token type and
// missing claims. It wraps domain.ErrUnauthenticated so the HTTP layer
// maps it to 401 without a dedicated case.
var ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthenticated)
