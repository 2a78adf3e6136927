package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"missio.app/internal/domain"
	"missio.app/internal/outreach"
)

func (s *Store) CreateContact(ctx context.Context, c *outreach.Contact) error {
	row := s.db.QueryRowContext(ctx, `
		insert into outreach_contacts (id, account_id, mission_id, full_name, phone_number, status, created_by)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, c.ID, c.AccountID, c.MissionID, c.FullName, nullIfEmpty(c.Phone), nullIfEmpty(c.Status), c.CreatedBy)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: mission or account", domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) ContactByID(ctx context.Context, id string) (outreach.Contact, error) {
	return scanContact(s.db.QueryRowContext(ctx, contactSelect+`
		where id = $1 and deleted_at is null
	`, id))
}

func (s *Store) ListContacts(ctx context.Context, missionID string, limit, offset int) ([]outreach.Contact, error) {
	rows, err := s.db.QueryContext(ctx, contactSelect+`
		where mission_id = $1 and deleted_at is null
		order by created_at desc
		limit $2 offset $3
	`, missionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []outreach.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateContact(ctx context.Context, id string, upd outreach.ContactUpdate) (outreach.Contact, error) {
	return scanContact(s.db.QueryRowContext(ctx, `
		update outreach_contacts set
			full_name    = coalesce($2, full_name),
			phone_number = coalesce($3, phone_number),
			status       = coalesce($4, status),
			updated_at   = now()
		where id = $1 and deleted_at is null
		returning id, account_id, mission_id, full_name, coalesce(phone_number, ''), coalesce(status, ''), created_by, created_at, updated_at
	`, id, upd.FullName, upd.Phone, upd.Status))
}

func (s *Store) SoftDeleteContact(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update outreach_contacts set deleted_at = now(), updated_at = now()
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
		return fmt.Errorf("%w: contact", domain.ErrNotFound)
	}
	return nil
}

// UpsertTally keeps exactly one tally row per mission.
func (s *Store) UpsertTally(ctx context.Context, accountID, missionID string, counts outreach.Counts) (outreach.Tally, error) {
	t := outreach.Tally{
		AccountID:  accountID,
		MissionID:  missionID,
		Interested: counts.Interested,
		Healed:     counts.Healed,
		Saved:      counts.Saved,
	}
	err := s.db.QueryRowContext(ctx, `
		insert into outreach_tallies (account_id, mission_id, interested, healed, saved)
		values ($1, $2, $3, $4, $5)
		on conflict (mission_id) do update
		set interested = excluded.interested,
		    healed     = excluded.healed,
		    saved      = excluded.saved,
		    updated_at = now()
		returning updated_at
	`, accountID, missionID, counts.Interested, counts.Healed, counts.Saved).Scan(&t.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return outreach.Tally{}, fmt.Errorf("%w: mission", domain.ErrNotFound)
		}
		return outreach.Tally{}, err
	}
	return t, nil
}

func (s *Store) TallyByMission(ctx context.Context, missionID string) (outreach.Tally, error) {
	var t outreach.Tally
	err := s.db.QueryRowContext(ctx, `
		select account_id, mission_id, interested, healed, saved, updated_at
		from outreach_tallies
		where mission_id = $1
	`, missionID).Scan(&t.AccountID, &t.MissionID, &t.Interested, &t.Healed, &t.Saved, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return outreach.Tally{}, fmt.Errorf("%w: tally", domain.ErrNotFound)
	}
	if err != nil {
		return outreach.Tally{}, err
	}
	return t, nil
}

const contactSelect = `
	select id, account_id, mission_id, full_name, coalesce(phone_number, ''), coalesce(status, ''), created_by, created_at, updated_at
	from outreach_contacts
`

func scanContact(row rowScanner) (outreach.Contact, error) {
	var c outreach.Contact
	err := row.Scan(&c.ID, &c.AccountID, &c.MissionID, &c.FullName, &c.Phone, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return outreach.Contact{}, fmt.Errorf("%w: contact", domain.ErrNotFound)
	}
	if err != nil {
		return outreach.Contact{}, err
	}
	return c, nil
}
