package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"missio.app/internal/ids"
)

// Token types carried in the "type" claim. An access token is the only
// kind accepted on authenticated requests; a refresh token is only
// accepted by the refresh endpoint.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the explicit token schema. Every field below the registered
// set is required on decode except AccountID, which is absent on
// unscoped tokens.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	AccountID string `json:"account_id,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is the login/register/switch response body.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Codec signs and verifies HS256 tokens.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithIssuer sets the iss claim stamped on and required from tokens.
func WithIssuer(iss string) CodecOption {
	return func(c *Codec) { c.issuer = iss }
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.refreshTTL = ttl
		}
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec builds a Codec. The secret must be non-empty.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &Codec{
		secret:     []byte(secret),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IssuePair mints an access and refresh token for the user, both scoped
// to accountID when it is non-empty.
func (c *Codec) IssuePair(userID, email, accountID string) (TokenPair, error) {
	access, accessExp, err := c.issue(TokenTypeAccess, userID, email, accountID, c.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := c.issue(TokenTypeRefresh, userID, email, accountID, c.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "bearer",
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess mints a single access token at the default access TTL.
func (c *Codec) IssueAccess(userID, email, accountID string) (string, time.Time, error) {
	return c.issue(TokenTypeAccess, userID, email, accountID, c.accessTTL)
}

func (c *Codec) issue(typ, userID, email, accountID string, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:    userID,
		Email:     email,
		AccountID: accountID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    c.issuer,
			ID:        ids.NewRequestID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// Decode verifies the signature, lifetime and schema of raw. Any
// failure surfaces as ErrInvalidToken.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess && claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
