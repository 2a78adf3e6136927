package tenancy

import (
	"context"
	"fmt"
	"strings"

	"missio.app/internal/domain"
	"missio.app/internal/ids"
)

// Store is the persistence surface the tenancy service needs.
type Store interface {
	CreateAccountWithOwner(ctx context.Context, acc *Account, ownerID string) (Membership, error)
	AccountByID(ctx context.Context, id string) (Account, error)
	UpdateAccount(ctx context.Context, id string, upd AccountUpdate) (Account, error)
	DeactivateAccount(ctx context.Context, id string) error
	MembershipFor(ctx context.Context, userID, accountID string) (Membership, error)
	CreateMembership(ctx context.Context, accountID, userID, roleName string) (Membership, error)
	ListUserAccounts(ctx context.Context, userID string) ([]AccountRef, error)
}

// AccountUpdate carries the mutable account fields; nil means keep.
type AccountUpdate struct {
	Name     *string
	Email    *string
	Phone    *string
	Location *string
}

// CreateAccountInput is the payload for opening a new account.
type CreateAccountInput struct {
	Name     string `json:"account_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone_number"`
	Location string `json:"location"`
}

// Service implements account and membership operations on top of Store.
type Service struct {
	store Store
}

// NewService builds a tenancy service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateAccount opens a new account owned by userID. The store ensures
// the default role set exists and records the owner membership in the
// same transaction as the account row.
func (s *Service) CreateAccount(ctx context.Context, userID string, in CreateAccountInput) (Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Account{}, fmt.Errorf("%w: account_name is required", domain.ErrInvalidInput)
	}
	acc := Account{
		ID:        ids.New(),
		Name:      in.Name,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Location:  strings.TrimSpace(in.Location),
		CreatedBy: userID,
		Active:    true,
	}
	if _, err := s.store.CreateAccountWithOwner(ctx, &acc, userID); err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

// Authorize checks that userID holds a live membership in accountID and
// that the account is active. It is the tenancy guard every scoped
// operation runs before touching account data.
func (s *Service) Authorize(ctx context.Context, userID, accountID string) (Account, Membership, error) {
	id, err := ids.Parse(accountID)
	if err != nil {
		return Account{}, Membership{}, err
	}
	acc, err := s.store.AccountByID(ctx, id)
	if err != nil {
		return Account{}, Membership{}, err
	}
	m, err := s.store.MembershipFor(ctx, userID, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return Account{}, Membership{}, fmt.Errorf("%w: no access to this account", domain.ErrForbidden)
		}
		return Account{}, Membership{}, err
	}
	if !acc.Active {
		return Account{}, Membership{}, fmt.Errorf("%w: account is deactivated", domain.ErrForbidden)
	}
	return acc, m, nil
}

// RequireRole gates an already authorized membership to a role subset.
func RequireRole(m Membership, roles ...string) error {
	for _, r := range roles {
		if m.RoleName == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q is not allowed to perform this action", domain.ErrForbidden, m.RoleName)
}

// GetAccount returns an account the caller is already authorized for.
func (s *Service) GetAccount(ctx context.Context, accountID string) (Account, error) {
	id, err := ids.Parse(accountID)
	if err != nil {
		return Account{}, err
	}
	return s.store.AccountByID(ctx, id)
}

// UpdateAccount applies a partial update to the account profile.
func (s *Service) UpdateAccount(ctx context.Context, accountID string, upd AccountUpdate) (Account, error) {
	id, err := ids.Parse(accountID)
	if err != nil {
		return Account{}, err
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return Account{}, fmt.Errorf("%w: account_name cannot be empty", domain.ErrInvalidInput)
		}
		upd.Name = &trimmed
	}
	acc, err := s.store.UpdateAccount(ctx, id, upd)
	if err != nil {
		return Account{}, fmt.Errorf("update account: %w", err)
	}
	return acc, nil
}

// DeactivateAccount soft-deletes the account. Existing tokens scoped to
// it fail the guard from then on.
func (s *Service) DeactivateAccount(ctx context.Context, accountID string) error {
	id, err := ids.Parse(accountID)
	if err != nil {
		return err
	}
	return s.store.DeactivateAccount(ctx, id)
}

// JoinAccount grants userID an immediate member role in accountID.
func (s *Service) JoinAccount(ctx context.Context, userID, accountID string) (Membership, error) {
	id, err := ids.Parse(accountID)
	if err != nil {
		return Membership{}, err
	}
	acc, err := s.store.AccountByID(ctx, id)
	if err != nil {
		return Membership{}, err
	}
	if !acc.Active {
		return Membership{}, fmt.Errorf("%w: account is deactivated", domain.ErrForbidden)
	}
	if _, err := s.store.MembershipFor(ctx, userID, id); err == nil {
		return Membership{}, fmt.Errorf("%w: already a member of this account", domain.ErrConflict)
	} else if !domain.IsNotFound(err) {
		return Membership{}, err
	}
	m, err := s.store.CreateMembership(ctx, id, userID, RoleMember)
	if err != nil {
		return Membership{}, fmt.Errorf("join account: %w", err)
	}
	return m, nil
}

// ListUserAccounts reports every active account userID belongs to.
func (s *Service) ListUserAccounts(ctx context.Context, userID string) ([]AccountRef, error) {
	return s.store.ListUserAccounts(ctx, userID)
}
