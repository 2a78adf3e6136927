package expense

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missio.app/internal/domain"
	"missio.app/internal/ids"
	"missio.app/internal/mission"
	"missio.app/internal/tenancy"
)

type stubStore struct {
	expenses map[string]Expense
}

func newStubStore() *stubStore { return &stubStore{expenses: map[string]Expense{}} }

func (s *stubStore) CreateExpense(_ context.Context, e *Expense) error {
	s.expenses[e.ID] = *e
	return nil
}

func (s *stubStore) ExpenseByID(_ context.Context, id string) (Expense, error) {
	e, ok := s.expenses[id]
	if !ok || e.DeletedAt != nil {
		return Expense{}, fmt.Errorf("%w: expense %s", domain.ErrNotFound, id)
	}
	return e, nil
}

func (s *stubStore) ListAccountExpenses(_ context.Context, accountID string, _, _ int) ([]Expense, error) {
	var out []Expense
	for _, e := range s.expenses {
		if e.AccountID == accountID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubStore) ListMissionExpenses(_ context.Context, missionID string, _, _ int) ([]Expense, error) {
	var out []Expense
	for _, e := range s.expenses {
		if e.MissionID == missionID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateExpense(_ context.Context, id string, upd Update) (Expense, error) {
	e := s.expenses[id]
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	s.expenses[id] = e
	return e, nil
}

func (s *stubStore) SoftDeleteExpense(_ context.Context, id string) error {
	e := s.expenses[id]
	now := time.Now()
	e.DeletedAt = &now
	s.expenses[id] = e
	return nil
}

type stubMissions struct{ missions map[string]mission.Mission }

func (s stubMissions) Get(_ context.Context, missionID string) (mission.Mission, error) {
	m, ok := s.missions[missionID]
	if !ok {
		return mission.Mission{}, fmt.Errorf("%w: mission %s", domain.ErrNotFound, missionID)
	}
	return m, nil
}

func newTestService() (*Service, *stubStore, mission.Mission) {
	store := newStubStore()
	m := mission.Mission{ID: ids.New(), AccountID: ids.New()}
	svc := NewService(store, stubMissions{missions: map[string]mission.Mission{m.ID: m}})
	return svc, store, m
}

func TestCreateAccountLevelExpense(t *testing.T) {
	svc, _, m := newTestService()
	actor := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleMember}

	e, err := svc.Create(context.Background(), actor, m.AccountID, CreateInput{
		Category: "transport",
		Amount:   120.50,
	})
	require.NoError(t, err)
	assert.Empty(t, e.MissionID)
	assert.Equal(t, actor.UserID, e.UserID)
	assert.Equal(t, 120.50, e.Amount)
}

func TestCreateMissionExpenseChecksAccount(t *testing.T) {
	svc, _, m := newTestService()
	actor := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleMember}

	e, err := svc.Create(context.Background(), actor, m.AccountID, CreateInput{
		MissionID: m.ID,
		Category:  "food",
		Amount:    40,
	})
	require.NoError(t, err)
	assert.Equal(t, m.ID, e.MissionID)

	_, err = svc.Create(context.Background(), actor, ids.New(), CreateInput{
		MissionID: m.ID,
		Category:  "food",
		Amount:    40,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateExpenseValidation(t *testing.T) {
	svc, _, m := newTestService()
	actor := tenancy.Actor{UserID: ids.New()}
	ctx := context.Background()

	_, err := svc.Create(ctx, actor, m.AccountID, CreateInput{Category: "x", Amount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, actor, m.AccountID, CreateInput{Category: "x", Amount: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, actor, m.AccountID, CreateInput{Category: "  ", Amount: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateExpenseOwnership(t *testing.T) {
	svc, _, m := newTestService()
	recorder := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleMember}
	e, err := svc.Create(context.Background(), recorder, m.AccountID, CreateInput{Category: "food", Amount: 10})
	require.NoError(t, err)

	amount := 12.5
	_, err = svc.Update(context.Background(), recorder, e.ID, Update{Amount: &amount})
	require.NoError(t, err)

	stranger := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleMember}
	_, err = svc.Update(context.Background(), stranger, e.ID, Update{Amount: &amount})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	bad := -1.0
	_, err = svc.Update(context.Background(), recorder, e.ID, Update{Amount: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteExpenseHidesIt(t *testing.T) {
	svc, _, m := newTestService()
	recorder := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleMember}
	e, err := svc.Create(context.Background(), recorder, m.AccountID, CreateInput{Category: "food", Amount: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), recorder, e.ID))
	_, err = svc.Get(context.Background(), e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByMission(t *testing.T) {
	svc, _, m := newTestService()
	recorder := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleMember}
	_, err := svc.Create(context.Background(), recorder, m.AccountID, CreateInput{MissionID: m.ID, Category: "food", Amount: 10})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), recorder, m.AccountID, CreateInput{Category: "rent", Amount: 99})
	require.NoError(t, err)

	got, err := svc.ListByMission(context.Background(), m.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	all, err := svc.ListByAccount(context.Background(), m.AccountID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
