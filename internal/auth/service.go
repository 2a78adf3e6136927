package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"missio.app/internal/domain"
	"missio.app/internal/ids"
	"missio.app/internal/tenancy"
)

const minPasswordLength = 8

// Memberships is the tenancy view the auth flows need: the accounts a
// user belongs to at login, and the guard run on an account switch.
type Memberships interface {
	ListUserAccounts(ctx context.Context, userID string) ([]tenancy.AccountRef, error)
	Authorize(ctx context.Context, userID, accountID string) (tenancy.Account, tenancy.Membership, error)
}

// Service implements the auth operations.
type Service struct {
	users    UserStore
	accounts Memberships
	codec    *Codec
	now      func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithServiceClock replaces the time source, for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds the auth service.
func NewService(users UserStore, accounts Memberships, codec *Codec, opts ...ServiceOption) *Service {
	s := &Service{
		users:    users,
		accounts: accounts,
		codec:    codec,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone_number"`
}

// Register creates a user and returns an unscoped session. New users
// belong to no account until they create or join one.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, TokenPair, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	if in.FullName == "" {
		return User{}, TokenPair{}, fmt.Errorf("%w: full_name is required", domain.ErrInvalidInput)
	}
	if !validEmail(in.Email) {
		return User{}, TokenPair{}, fmt.Errorf("%w: email is malformed", domain.ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return User{}, TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	u := User{
		ID:           ids.New(),
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		if domain.IsConflict(err) {
			return User{}, TokenPair{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return User{}, TokenPair{}, fmt.Errorf("register user: %w", err)
	}
	pair, err := s.codec.IssuePair(u.ID, u.Email, "")
	if err != nil {
		return User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same error. The session is scoped to accountID
// when given, to the user's only account when they have exactly one,
// and left unscoped otherwise.
func (s *Service) Login(ctx context.Context, email, password, accountID string) (User, TokenPair, []tenancy.AccountRef, error) {
	email = normalizeEmail(email)
	u, err := s.users.UserByEmail(ctx, email)
	if err != nil || !VerifyPassword(u.PasswordHash, password) {
		return User{}, TokenPair{}, nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	}
	if !u.Active {
		return User{}, TokenPair{}, nil, fmt.Errorf("%w: user is deactivated", domain.ErrForbidden)
	}

	refs, err := s.accounts.ListUserAccounts(ctx, u.ID)
	if err != nil {
		return User{}, TokenPair{}, nil, fmt.Errorf("list accounts: %w", err)
	}

	scope := ""
	switch {
	case accountID != "":
		if _, _, err := s.accounts.Authorize(ctx, u.ID, accountID); err != nil {
			// The requested scope must be one of the caller's accounts.
			// Whether the account is missing or merely not theirs, the
			// answer is the same refusal.
			if domain.IsNotFound(err) {
				return User{}, TokenPair{}, nil, fmt.Errorf("%w: account is not available to this user", domain.ErrForbidden)
			}
			return User{}, TokenPair{}, nil, err
		}
		scope = accountID
	case len(refs) == 1:
		scope = refs[0].ID
	}

	pair, err := s.codec.IssuePair(u.ID, u.Email, scope)
	if err != nil {
		return User{}, TokenPair{}, nil, err
	}
	return u, pair, refs, nil
}

// Refresh exchanges a valid refresh token for a new access token with
// the same account scope. The refresh token itself is not rotated. The
// user whose token was refreshed is returned for audit attribution.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (User, string, time.Time, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return User{}, "", time.Time{}, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return User{}, "", time.Time{}, ErrInvalidToken
	}
	u, err := s.users.UserByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return User{}, "", time.Time{}, ErrInvalidToken
		}
		return User{}, "", time.Time{}, fmt.Errorf("refresh: %w", err)
	}
	if !u.Active {
		return User{}, "", time.Time{}, fmt.Errorf("%w: user is deactivated", domain.ErrForbidden)
	}
	access, expiresAt, err := s.codec.IssueAccess(u.ID, u.Email, claims.AccountID)
	if err != nil {
		return User{}, "", time.Time{}, err
	}
	return u, access, expiresAt, nil
}

// SwitchAccount reissues a full token pair scoped to accountID after
// verifying the caller's membership there.
func (s *Service) SwitchAccount(ctx context.Context, userID, accountID string) (TokenPair, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return TokenPair{}, fmt.Errorf("%w: unknown user", domain.ErrUnauthenticated)
		}
		return TokenPair{}, fmt.Errorf("switch account: %w", err)
	}
	if _, _, err := s.accounts.Authorize(ctx, userID, accountID); err != nil {
		return TokenPair{}, err
	}
	return s.codec.IssuePair(u.ID, u.Email, accountID)
}

// Authenticate resolves a bearer token to its user. Only access tokens
// are accepted here.
func (s *Service) Authenticate(ctx context.Context, raw string) (User, *Claims, error) {
	if raw == "" {
		return User{}, nil, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	}
	claims, err := s.codec.Decode(raw)
	if err != nil {
		return User{}, nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return User{}, nil, ErrInvalidToken
	}
	u, err := s.users.UserByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return User{}, nil, fmt.Errorf("%w: unknown user", domain.ErrUnauthenticated)
		}
		return User{}, nil, fmt.Errorf("authenticate: %w", err)
	}
	if !u.Active {
		return User{}, nil, fmt.Errorf("%w: user is deactivated", domain.ErrForbidden)
	}
	return u, claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.Contains(email, " ")
}
