// Package dashboard exposes read-side aggregates for an account. All
// heavy lifting happens in SQL; the service only guards scope.
package dashboard

import (
	"context"
	"fmt"

	"missio.app/internal/ids"
	"missio.app/internal/mission"
)

// Stats are the account-level aggregate numbers.
type Stats struct {
	AccountID       string             `json:"account_id"`
	TotalMissions   int                `json:"total_missions"`
	ActiveMissions  int                `json:"active_missions"`
	Evangelists     int                `json:"evangelists"`
	Contacts        int                `json:"contacts"`
	TotalInterested int                `json:"total_interested"`
	TotalHealed     int                `json:"total_healed"`
	TotalSaved      int                `json:"total_saved"`
	TotalBudget     float64            `json:"total_budget"`
	TotalExpenses   float64            `json:"total_expenses"`
	ExpensesByCat   map[string]float64 `json:"expenses_by_category"`
}

// Summary is Stats plus the most recently created missions.
type Summary struct {
	Stats          Stats             `json:"stats"`
	RecentMissions []mission.Mission `json:"recent_missions"`
}

// Store is the read surface backing the dashboard.
type Store interface {
	AccountStats(ctx context.Context, accountID string) (Stats, error)
	RecentMissions(ctx context.Context, accountID string, limit int) ([]mission.Mission, error)
}

// Service guards account scope and delegates to the store.
type Service struct {
	store Store
}

// NewService builds a dashboard service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Stats returns the aggregate numbers for accountID.
func (s *Service) Stats(ctx context.Context, accountID string) (Stats, error) {
	id, err := ids.Parse(accountID)
	if err != nil {
		return Stats{}, err
	}
	stats, err := s.store.AccountStats(ctx, id)
	if err != nil {
		return Stats{}, fmt.Errorf("account stats: %w", err)
	}
	return stats, nil
}

// Summary returns Stats plus the five most recent missions.
func (s *Service) Summary(ctx context.Context, accountID string) (Summary, error) {
	stats, err := s.Stats(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}
	recent, err := s.store.RecentMissions(ctx, stats.AccountID, 5)
	if err != nil {
		return Summary{}, fmt.Errorf("recent missions: %w", err)
	}
	return Summary{Stats: stats, RecentMissions: recent}, nil
}
