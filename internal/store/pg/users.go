package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"missio.app/internal/auth"
	"missio.app/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, full_name, email, phone_number, password_hash, is_active)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, u.ID, u.FullName, u.Email, nullIfEmpty(u.Phone), u.PasswordHash, u.Active)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (auth.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, full_name, email, coalesce(phone_number, ''), password_hash, is_active, created_at, updated_at
		from users
		where id = $1 and deleted_at is null
	`, id))
}

func (s *Store) UserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, full_name, email, coalesce(phone_number, ''), password_hash, is_active, created_at, updated_at
		from users
		where email = $1 and deleted_at is null
	`, email))
}

// UserEmail satisfies mission.UserDirectory.
func (s *Store) UserEmail(ctx context.Context, id string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx, `
		select email from users where id = $1 and deleted_at is null
	`, id).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

func (s *Store) scanUser(row *sql.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	if err != nil {
		return auth.User{}, err
	}
	return u, nil
}
