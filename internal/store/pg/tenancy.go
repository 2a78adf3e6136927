package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"missio.app/internal/domain"
	"missio.app/internal/ids"
	"missio.app/internal/tenancy"
)

// CreateAccountWithOwner inserts the account, ensures the default role
// set exists and grants the creator an owner membership, all in one
// transaction.
func (s *Store) CreateAccountWithOwner(ctx context.Context, acc *tenancy.Account, ownerID string) (tenancy.Membership, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tenancy.Membership{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into accounts (id, account_name, email, phone_number, location, created_by, is_active)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, acc.ID, acc.Name, nullIfEmpty(acc.Email), nullIfEmpty(acc.Phone), nullIfEmpty(acc.Location), acc.CreatedBy, acc.Active)
	if err := row.Scan(&acc.CreatedAt, &acc.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return tenancy.Membership{}, fmt.Errorf("%w: account", domain.ErrConflict)
			case pgErrForeignKeyViolation:
				return tenancy.Membership{}, fmt.Errorf("%w: creator", domain.ErrNotFound)
			}
		}
		return tenancy.Membership{}, err
	}

	for _, role := range tenancy.SeedRoles {
		if _, err := tx.ExecContext(ctx, `
			insert into roles (id, name, description)
			values ($1, $2, $3)
			on conflict (name) do nothing
		`, ids.New(), role.Name, role.Description); err != nil {
			return tenancy.Membership{}, err
		}
	}

	var roleID string
	if err := tx.QueryRowContext(ctx, `select id from roles where name = $1`, tenancy.RoleOwner).Scan(&roleID); err != nil {
		return tenancy.Membership{}, err
	}

	m := tenancy.Membership{
		ID:        ids.New(),
		AccountID: acc.ID,
		UserID:    ownerID,
		RoleID:    roleID,
		RoleName:  tenancy.RoleOwner,
	}
	if err := tx.QueryRowContext(ctx, `
		insert into account_users (id, account_id, user_id, role_id)
		values ($1, $2, $3, $4)
		returning created_at
	`, m.ID, m.AccountID, m.UserID, m.RoleID).Scan(&m.CreatedAt); err != nil {
		return tenancy.Membership{}, err
	}

	if err := tx.Commit(); err != nil {
		return tenancy.Membership{}, err
	}
	return m, nil
}

func (s *Store) AccountByID(ctx context.Context, id string) (tenancy.Account, error) {
	var acc tenancy.Account
	err := s.db.QueryRowContext(ctx, `
		select id, account_name, coalesce(email, ''), coalesce(phone_number, ''), coalesce(location, ''),
		       created_by, is_active, created_at, updated_at
		from accounts
		where id = $1 and deleted_at is null
	`, id).Scan(&acc.ID, &acc.Name, &acc.Email, &acc.Phone, &acc.Location,
		&acc.CreatedBy, &acc.Active, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tenancy.Account{}, fmt.Errorf("%w: account", domain.ErrNotFound)
	}
	if err != nil {
		return tenancy.Account{}, err
	}
	return acc, nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, upd tenancy.AccountUpdate) (tenancy.Account, error) {
	var acc tenancy.Account
	err := s.db.QueryRowContext(ctx, `
		update accounts set
			account_name = coalesce($2, account_name),
			email        = coalesce($3, email),
			phone_number = coalesce($4, phone_number),
			location     = coalesce($5, location),
			updated_at   = now()
		where id = $1 and deleted_at is null
		returning id, account_name, coalesce(email, ''), coalesce(phone_number, ''), coalesce(location, ''),
		          created_by, is_active, created_at, updated_at
	`, id, upd.Name, upd.Email, upd.Phone, upd.Location).
		Scan(&acc.ID, &acc.Name, &acc.Email, &acc.Phone, &acc.Location,
			&acc.CreatedBy, &acc.Active, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tenancy.Account{}, fmt.Errorf("%w: account", domain.ErrNotFound)
	}
	if err != nil {
		return tenancy.Account{}, err
	}
	return acc, nil
}

// DeactivateAccount flips is_active only. The row stays readable so the
// membership guard can distinguish an inactive account (Forbidden) from
// a missing one (NotFound).
func (s *Store) DeactivateAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts set is_active = false, updated_at = now()
		where id = $1 and deleted_at is null
	`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: account", domain.ErrNotFound)
	}
	return nil
}

func (s *Store) MembershipFor(ctx context.Context, userID, accountID string) (tenancy.Membership, error) {
	var m tenancy.Membership
	err := s.db.QueryRowContext(ctx, `
		select au.id, au.account_id, au.user_id, au.role_id, r.name, au.created_at
		from account_users au
		join roles r on r.id = au.role_id
		where au.user_id = $1 and au.account_id = $2 and au.deleted_at is null
	`, userID, accountID).Scan(&m.ID, &m.AccountID, &m.UserID, &m.RoleID, &m.RoleName, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tenancy.Membership{}, fmt.Errorf("%w: membership", domain.ErrNotFound)
	}
	if err != nil {
		return tenancy.Membership{}, err
	}
	return m, nil
}

func (s *Store) CreateMembership(ctx context.Context, accountID, userID, roleName string) (tenancy.Membership, error) {
	m := tenancy.Membership{ID: ids.New(), AccountID: accountID, UserID: userID, RoleName: roleName}
	err := s.db.QueryRowContext(ctx, `
		insert into account_users (id, account_id, user_id, role_id)
		select $1, $2, $3, r.id from roles r where r.name = $4
		returning role_id, created_at
	`, m.ID, accountID, userID, roleName).Scan(&m.RoleID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Seed roles are provisioned at account creation; a missing
			// one is a server fault, not a client error.
			return tenancy.Membership{}, fmt.Errorf("role %s is not provisioned", roleName)
		}
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return tenancy.Membership{}, fmt.Errorf("%w: membership", domain.ErrConflict)
			case pgErrForeignKeyViolation:
				return tenancy.Membership{}, fmt.Errorf("%w: account or user", domain.ErrNotFound)
			}
		}
		return tenancy.Membership{}, err
	}
	return m, nil
}

func (s *Store) ListUserAccounts(ctx context.Context, userID string) ([]tenancy.AccountRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		select a.id, a.account_name, r.name
		from account_users au
		join accounts a on a.id = au.account_id
		join roles r on r.id = au.role_id
		where au.user_id = $1 and au.deleted_at is null
		  and a.is_active and a.deleted_at is null
		order by a.account_name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []tenancy.AccountRef
	for rows.Next() {
		var ref tenancy.AccountRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.RoleName); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}
