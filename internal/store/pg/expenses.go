package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"missio.app/internal/domain"
	"missio.app/internal/expense"
)

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	row := s.db.QueryRowContext(ctx, `
		insert into expenses (id, account_id, mission_id, user_id, category, amount, description)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, e.ID, e.AccountID, nullIfEmpty(e.MissionID), e.UserID, e.Category, e.Amount, nullIfEmpty(e.Description))
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return fmt.Errorf("%w: account, mission or user", domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) ExpenseByID(ctx context.Context, id string) (expense.Expense, error) {
	return scanExpense(s.db.QueryRowContext(ctx, expenseSelect+`
		where id = $1 and deleted_at is null
	`, id))
}

func (s *Store) ListAccountExpenses(ctx context.Context, accountID string, limit, offset int) ([]expense.Expense, error) {
	rows, err := s.db.QueryContext(ctx, expenseSelect+`
		where account_id = $1 and deleted_at is null
		order by created_at desc
		limit $2 offset $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (s *Store) ListMissionExpenses(ctx context.Context, missionID string, limit, offset int) ([]expense.Expense, error) {
	rows, err := s.db.QueryContext(ctx, expenseSelect+`
		where mission_id = $1 and deleted_at is null
		order by created_at desc
		limit $2 offset $3
	`, missionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (s *Store) UpdateExpense(ctx context.Context, id string, upd expense.Update) (expense.Expense, error) {
	return scanExpense(s.db.QueryRowContext(ctx, `
		update expenses set
			category    = coalesce($2, category),
			amount      = coalesce($3, amount),
			description = coalesce($4, description),
			updated_at  = now()
		where id = $1 and deleted_at is null
		returning id, account_id, coalesce(mission_id::text, ''), user_id, category, amount, coalesce(description, ''), created_at, updated_at
	`, id, upd.Category, upd.Amount, upd.Description))
}

func (s *Store) SoftDeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update expenses set deleted_at = now(), updated_at = now()
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
		return fmt.Errorf("%w: expense", domain.ErrNotFound)
	}
	return nil
}

const expenseSelect = `
	select id, account_id, coalesce(mission_id::text, ''), user_id, category, amount, coalesce(description, ''), created_at, updated_at
	from expenses
`

func scanExpense(row rowScanner) (expense.Expense, error) {
	var e expense.Expense
	err := row.Scan(&e.ID, &e.AccountID, &e.MissionID, &e.UserID, &e.Category, &e.Amount, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return expense.Expense{}, fmt.Errorf("%w: expense", domain.ErrNotFound)
	}
	if err != nil {
		return expense.Expense{}, err
	}
	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]expense.Expense, error) {
	var out []expense.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
