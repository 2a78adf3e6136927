// Package mission tracks outreach campaigns inside an account and the
// users participating in them.
package mission

import (
	"context"
	"time"
)

// Roles within one mission. These are independent of account roles.
const (
	RoleLeader     = "leader"
	RoleMember     = "member"
	RoleGuest      = "guest"
	RoleEvangelist = "evangelist"
	RoleMissionary = "missionary"
)

// ValidRole reports whether role is a known mission role.
func ValidRole(role string) bool {
	switch role {
	case RoleLeader, RoleMember, RoleGuest, RoleEvangelist, RoleMissionary:
		return true
	}
	return false
}

// Mission is a tracked campaign. A nil DeletedAt means the mission is
// live; soft-deleted missions are invisible to every query.
type Mission struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	Name      string     `json:"name"`
	Location  string     `json:"location,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Budget    float64    `json:"budget,omitempty"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// Membership joins a user to a mission under a mission role.
type Membership struct {
	ID        string     `json:"id"`
	MissionID string     `json:"mission_id"`
	UserID    string     `json:"user_id"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

// Update carries the mutable mission fields; nil means keep.
type Update struct {
	Name      *string
	Location  *string
	StartDate *time.Time
	EndDate   *time.Time
	Budget    *float64
}

// Store is the persistence surface for missions.
type Store interface {
	CreateMission(ctx context.Context, m *Mission) error
	MissionByID(ctx context.Context, id string) (Mission, error)
	ListMissions(ctx context.Context, accountID string, limit, offset int) ([]Mission, error)
	UpdateMission(ctx context.Context, id string, upd Update) (Mission, error)
	SoftDeleteMission(ctx context.Context, id string) error
	MissionMembershipFor(ctx context.Context, missionID, userID string) (Membership, error)
	CreateMissionMembership(ctx context.Context, missionID, userID, role string) (Membership, error)
}
