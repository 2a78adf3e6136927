package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"missio.app/internal/domain"
	"missio.app/internal/ids"
	"missio.app/internal/mission"
)

func (s *Store) CreateMission(ctx context.Context, m *mission.Mission) error {
	row := s.db.QueryRowContext(ctx, `
		insert into missions (id, account_id, name, location, start_date, end_date, budget, created_by)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning created_at, updated_at
	`, m.ID, m.AccountID, m.Name, nullIfEmpty(m.Location), m.StartDate, m.EndDate, m.Budget, m.CreatedBy)
	if err := row.Scan(&m.CreatedAt, &m.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: account", domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) MissionByID(ctx context.Context, id string) (mission.Mission, error) {
	return scanMission(s.db.QueryRowContext(ctx, missionSelect+`
		where id = $1 and deleted_at is null
	`, id))
}

func (s *Store) ListMissions(ctx context.Context, accountID string, limit, offset int) ([]mission.Mission, error) {
	rows, err := s.db.QueryContext(ctx, missionSelect+`
		where account_id = $1 and deleted_at is null
		order by created_at desc
		limit $2 offset $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMissions(rows)
}

func (s *Store) UpdateMission(ctx context.Context, id string, upd mission.Update) (mission.Mission, error) {
	return scanMission(s.db.QueryRowContext(ctx, `
		update missions set
			name       = coalesce($2, name),
			location   = coalesce($3, location),
			start_date = coalesce($4, start_date),
			end_date   = coalesce($5, end_date),
			budget     = coalesce($6, budget),
			updated_at = now()
		where id = $1 and deleted_at is null
		returning id, account_id, name, coalesce(location, ''), start_date, end_date, budget, created_by, created_at, updated_at
	`, id, upd.Name, upd.Location, upd.StartDate, upd.EndDate, upd.Budget))
}

func (s *Store) SoftDeleteMission(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update missions set deleted_at = now(), updated_at = now()
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
		return fmt.Errorf("%w: mission", domain.ErrNotFound)
	}
	return nil
}

func (s *Store) MissionMembershipFor(ctx context.Context, missionID, userID string) (mission.Membership, error) {
	var m mission.Membership
	err := s.db.QueryRowContext(ctx, `
		select id, mission_id, user_id, role, created_at
		from mission_users
		where mission_id = $1 and user_id = $2 and deleted_at is null
	`, missionID, userID).Scan(&m.ID, &m.MissionID, &m.UserID, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mission.Membership{}, fmt.Errorf("%w: mission membership", domain.ErrNotFound)
	}
	if err != nil {
		return mission.Membership{}, err
	}
	return m, nil
}

func (s *Store) CreateMissionMembership(ctx context.Context, missionID, userID, role string) (mission.Membership, error) {
	m := mission.Membership{ID: ids.New(), MissionID: missionID, UserID: userID, Role: role}
	err := s.db.QueryRowContext(ctx, `
		insert into mission_users (id, mission_id, user_id, role)
		values ($1, $2, $3, $4)
		returning created_at
	`, m.ID, missionID, userID, role).Scan(&m.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return mission.Membership{}, fmt.Errorf("%w: mission membership", domain.ErrConflict)
			case pgErrForeignKeyViolation:
				return mission.Membership{}, fmt.Errorf("%w: mission or user", domain.ErrNotFound)
			}
		}
		return mission.Membership{}, err
	}
	return m, nil
}

const missionSelect = `
	select id, account_id, name, coalesce(location, ''), start_date, end_date, budget, created_by, created_at, updated_at
	from missions
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMission(row rowScanner) (mission.Mission, error) {
	var (
		m          mission.Mission
		start, end sql.NullTime
	)
	err := row.Scan(&m.ID, &m.AccountID, &m.Name, &m.Location, &start, &end, &m.Budget, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mission.Mission{}, fmt.Errorf("%w: mission", domain.ErrNotFound)
	}
	if err != nil {
		return mission.Mission{}, err
	}
	m.StartDate = nullableTime(start)
	m.EndDate = nullableTime(end)
	return m, nil
}

func collectMissions(rows *sql.Rows) ([]mission.Mission, error) {
	var out []mission.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
