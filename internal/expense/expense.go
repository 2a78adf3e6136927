// Package expense records financial line items at account or mission
// level.
package expense

import (
	"context"
	"time"
)

// Expense is one financial line item. MissionID is empty for
// account-level expenses.
type Expense struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	MissionID   string     `json:"mission_id,omitempty"`
	UserID      string     `json:"user_id"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Update carries the mutable expense fields; nil means keep.
type Update struct {
	Category    *string
	Amount      *float64
	Description *string
}

// Store is the persistence surface for expenses.
type Store interface {
	CreateExpense(ctx context.Context, e *Expense) error
	ExpenseByID(ctx context.Context, id string) (Expense, error)
	ListAccountExpenses(ctx context.Context, accountID string, limit, offset int) ([]Expense, error)
	ListMissionExpenses(ctx context.Context, missionID string, limit, offset int) ([]Expense, error)
	UpdateExpense(ctx context.Context, id string, upd Update) (Expense, error)
	SoftDeleteExpense(ctx context.Context, id string) error
}
