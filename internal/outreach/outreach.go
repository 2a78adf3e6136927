// Package outreach records the people reached during a mission: named
// contacts and the per-mission aggregate tally.
package outreach

import (
	"context"
	"time"
)

// Contact is a person reached during a mission.
type Contact struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	MissionID string     `json:"mission_id"`
	FullName  string     `json:"full_name"`
	Phone     string     `json:"phone_number,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// Tally holds the aggregate outreach counters for one mission. There
// is exactly one tally row per mission.
type Tally struct {
	AccountID  string    `json:"account_id"`
	MissionID  string    `json:"mission_id"`
	Interested int       `json:"interested"`
	Healed     int       `json:"healed"`
	Saved      int       `json:"saved"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Counts carries the tally values for an upsert.
type Counts struct {
	Interested int `json:"interested"`
	Healed     int `json:"healed"`
	Saved      int `json:"saved"`
}

// ContactUpdate carries the mutable contact fields; nil means keep.
type ContactUpdate struct {
	FullName *string
	Phone    *string
	Status   *string
}

// Store is the persistence surface for outreach data.
type Store interface {
	CreateContact(ctx context.Context, c *Contact) error
	ContactByID(ctx context.Context, id string) (Contact, error)
	ListContacts(ctx context.Context, missionID string, limit, offset int) ([]Contact, error)
	UpdateContact(ctx context.Context, id string, upd ContactUpdate) (Contact, error)
	SoftDeleteContact(ctx context.Context, id string) error
	UpsertTally(ctx context.Context, accountID, missionID string, counts Counts) (Tally, error)
	TallyByMission(ctx context.Context, missionID string) (Tally, error)
}
