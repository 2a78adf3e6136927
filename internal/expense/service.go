package expense

import (
	"context"
	"fmt"
	"strings"

	"missio.app/internal/audit"
	"missio.app/internal/domain"
	"missio.app/internal/ids"
	"missio.app/internal/mission"
	"missio.app/internal/tenancy"
)

// Missions resolves a mission to verify it belongs to the expense's
// account.
type Missions interface {
	Get(ctx context.Context, missionID string) (mission.Mission, error)
}

// Service implements expense operations on top of Store.
type Service struct {
	store    Store
	missions Missions
}

// NewService builds an expense service.
func NewService(store Store, missions Missions) *Service {
	return &Service{store: store, missions: missions}
}

// CreateInput is the expense creation payload. MissionID is optional;
// when set the mission must belong to accountID.
type CreateInput struct {
	MissionID   string  `json:"mission_id"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Create records an expense against the account, attributed to the
// acting user.
func (s *Service) Create(ctx context.Context, actor tenancy.Actor, accountID string, in CreateInput) (Expense, error) {
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		return Expense{}, fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return Expense{}, fmt.Errorf("%w: amount must be greater than zero", domain.ErrInvalidInput)
	}
	if in.MissionID != "" {
		m, err := s.missions.Get(ctx, in.MissionID)
		if err != nil {
			return Expense{}, err
		}
		if m.AccountID != accountID {
			return Expense{}, fmt.Errorf("%w: mission belongs to a different account", domain.ErrInvalidInput)
		}
		in.MissionID = m.ID
	}
	e := Expense{
		ID:          ids.New(),
		AccountID:   accountID,
		MissionID:   in.MissionID,
		UserID:      actor.UserID,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.store.CreateExpense(ctx, &e); err != nil {
		return Expense{}, fmt.Errorf("create expense: %w", err)
	}
	audit.Log(ctx, audit.EventExpenseRecorded, actor.UserID, map[string]any{
		"expense_id": e.ID,
		"account_id": accountID,
		"amount":     e.Amount,
	})
	return e, nil
}

// Get returns a live expense by id.
func (s *Service) Get(ctx context.Context, expenseID string) (Expense, error) {
	id, err := ids.Parse(expenseID)
	if err != nil {
		return Expense{}, err
	}
	return s.store.ExpenseByID(ctx, id)
}

// ListByAccount pages through an account's live expenses.
func (s *Service) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]Expense, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListAccountExpenses(ctx, accountID, limit, offset)
}

// ListByMission pages through a mission's live expenses.
func (s *Service) ListByMission(ctx context.Context, missionID string, limit, offset int) ([]Expense, error) {
	m, err := s.missions.Get(ctx, missionID)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListMissionExpenses(ctx, m.ID, limit, offset)
}

// Update applies a partial update. Only the recording user or an
// elevated actor may change an expense.
func (s *Service) Update(ctx context.Context, actor tenancy.Actor, expenseID string, upd Update) (Expense, error) {
	e, err := s.Get(ctx, expenseID)
	if err != nil {
		return Expense{}, err
	}
	if err := requireOwnership(actor, e.UserID); err != nil {
		return Expense{}, err
	}
	if upd.Amount != nil && *upd.Amount <= 0 {
		return Expense{}, fmt.Errorf("%w: amount must be greater than zero", domain.ErrInvalidInput)
	}
	if upd.Category != nil {
		trimmed := strings.TrimSpace(*upd.Category)
		if trimmed == "" {
			return Expense{}, fmt.Errorf("%w: category cannot be empty", domain.ErrInvalidInput)
		}
		upd.Category = &trimmed
	}
	updated, err := s.store.UpdateExpense(ctx, e.ID, upd)
	if err != nil {
		return Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return updated, nil
}

// Delete soft-deletes an expense under the same ownership rule.
func (s *Service) Delete(ctx context.Context, actor tenancy.Actor, expenseID string) error {
	e, err := s.Get(ctx, expenseID)
	if err != nil {
		return err
	}
	if err := requireOwnership(actor, e.UserID); err != nil {
		return err
	}
	if err := s.store.SoftDeleteExpense(ctx, e.ID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	audit.Log(ctx, audit.EventExpenseDeleted, actor.UserID, map[string]any{
		"expense_id": e.ID,
		"account_id": e.AccountID,
	})
	return nil
}

func requireOwnership(actor tenancy.Actor, userID string) error {
	if actor.UserID == userID || actor.Elevated() {
		return nil
	}
	return fmt.Errorf("%w: only the recording user or an account admin may modify this expense", domain.ErrForbidden)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
