package pg

import (
	"context"
	"time"

	"missio.app/internal/dashboard"
	"missio.app/internal/mission"
)

// AccountStats aggregates the dashboard numbers in a handful of
// queries. Missions with no end date or an end date in the future
// count as active.
func (s *Store) AccountStats(ctx context.Context, accountID string) (dashboard.Stats, error) {
	stats := dashboard.Stats{
		AccountID:     accountID,
		ExpensesByCat: map[string]float64{},
	}

	err := s.db.QueryRowContext(ctx, `
		select count(*),
		       count(*) filter (where end_date is null or end_date >= $2),
		       coalesce(sum(budget), 0)
		from missions
		where account_id = $1 and deleted_at is null
	`, accountID, time.Now().UTC()).Scan(&stats.TotalMissions, &stats.ActiveMissions, &stats.TotalBudget)
	if err != nil {
		return dashboard.Stats{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		select count(distinct mu.user_id)
		from mission_users mu
		join missions m on m.id = mu.mission_id
		where m.account_id = $1 and m.deleted_at is null
		  and mu.deleted_at is null and mu.role = 'evangelist'
	`, accountID).Scan(&stats.Evangelists)
	if err != nil {
		return dashboard.Stats{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		select count(*) from outreach_contacts
		where account_id = $1 and deleted_at is null
	`, accountID).Scan(&stats.Contacts)
	if err != nil {
		return dashboard.Stats{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		select coalesce(sum(interested), 0), coalesce(sum(healed), 0), coalesce(sum(saved), 0)
		from outreach_tallies
		where account_id = $1
	`, accountID).Scan(&stats.TotalInterested, &stats.TotalHealed, &stats.TotalSaved)
	if err != nil {
		return dashboard.Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		select category, coalesce(sum(amount), 0)
		from expenses
		where account_id = $1 and deleted_at is null
		group by category
	`, accountID)
	if err != nil {
		return dashboard.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat string
			sum float64
		)
		if err := rows.Scan(&cat, &sum); err != nil {
			return dashboard.Stats{}, err
		}
		stats.ExpensesByCat[cat] = sum
		stats.TotalExpenses += sum
	}
	if err := rows.Err(); err != nil {
		return dashboard.Stats{}, err
	}
	return stats, nil
}

func (s *Store) RecentMissions(ctx context.Context, accountID string, limit int) ([]mission.Mission, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.ListMissions(ctx, accountID, limit, 0)
}
