package outreach

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

// Missions is the mission lookup the contact and tally flows use to
// learn which account a mission belongs to.
type Missions interface {
	Get(ctx context.Context, missionID string) (mission.Mission, error)
}

// Service implements outreach operations on top of Store.
type Service struct {
	store    Store
	missions Missions
}

// NewService builds an outreach service.
func NewService(store Store, missions Missions) *Service {
	return &Service{store: store, missions: missions}
}

// CreateContactInput is the contact creation payload.
type CreateContactInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone_number"`
	Status   string `json:"status"`
}

// CreateContact records a person reached during missionID. The contact
// inherits the mission's account.
func (s *Service) CreateContact(ctx context.Context, actor tenancy.Actor, missionID string, in CreateContactInput) (Contact, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return Contact{}, fmt.Errorf("%w: full_name is required", domain.ErrInvalidInput)
	}
	m, err := s.missions.Get(ctx, missionID)
	if err != nil {
		return Contact{}, err
	}
	c := Contact{
		ID:        ids.New(),
		AccountID: m.AccountID,
		MissionID: m.ID,
		FullName:  in.FullName,
		Phone:     strings.TrimSpace(in.Phone),
		Status:    strings.TrimSpace(in.Status),
		CreatedBy: actor.UserID,
	}
	if err := s.store.CreateContact(ctx, &c); err != nil {
		return Contact{}, fmt.Errorf("create contact: %w", err)
	}
	audit.Log(ctx, audit.EventOutreachRecorded, actor.UserID, map[string]any{
		"contact_id": c.ID,
		"mission_id": m.ID,
	})
	return c, nil
}

// GetContact returns a live contact by id.
func (s *Service) GetContact(ctx context.Context, contactID string) (Contact, error) {
	id, err := ids.Parse(contactID)
	if err != nil {
		return Contact{}, err
	}
	return s.store.ContactByID(ctx, id)
}

// ListContacts pages through the live contacts of one mission.
func (s *Service) ListContacts(ctx context.Context, missionID string, limit, offset int) ([]Contact, error) {
	m, err := s.missions.Get(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListContacts(ctx, m.ID, limit, offset)
}

// UpdateContact applies a partial update. Only the recording user or an
// elevated actor may change a contact.
func (s *Service) UpdateContact(ctx context.Context, actor tenancy.Actor, contactID string, upd ContactUpdate) (Contact, error) {
	c, err := s.GetContact(ctx, contactID)
	if err != nil {
		return Contact{}, err
	}
	if err := requireOwnership(actor, c.CreatedBy); err != nil {
		return Contact{}, err
	}
	if upd.FullName != nil {
		trimmed := strings.TrimSpace(*upd.FullName)
		if trimmed == "" {
			return Contact{}, fmt.Errorf("%w: full_name cannot be empty", domain.ErrInvalidInput)
		}
		upd.FullName = &trimmed
	}
	updated, err := s.store.UpdateContact(ctx, c.ID, upd)
	if err != nil {
		return Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return updated, nil
}

// DeleteContact soft-deletes a contact under the same ownership rule.
func (s *Service) DeleteContact(ctx context.Context, actor tenancy.Actor, contactID string) error {
	c, err := s.GetContact(ctx, contactID)
	if err != nil {
		return err
	}
	if err := requireOwnership(actor, c.CreatedBy); err != nil {
		return err
	}
	if err := s.store.SoftDeleteContact(ctx, c.ID); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// UpsertTally sets the aggregate counters for a mission, creating the
// row on first write. Counters cannot go negative.
func (s *Service) UpsertTally(ctx context.Context, actor tenancy.Actor, missionID string, counts Counts) (Tally, error) {
	if counts.Interested < 0 || counts.Healed < 0 || counts.Saved < 0 {
		return Tally{}, fmt.Errorf("%w: tally counts cannot be negative", domain.ErrInvalidInput)
	}
	m, err := s.missions.Get(ctx, missionID)
	if err != nil {
		return Tally{}, err
	}
	t, err := s.store.UpsertTally(ctx, m.AccountID, m.ID, counts)
	if err != nil {
		return Tally{}, fmt.Errorf("upsert tally: %w", err)
	}
	audit.Log(ctx, audit.EventOutreachRecorded, actor.UserID, map[string]any{
		"mission_id": m.ID,
		"tally":      true,
	})
	return t, nil
}

// GetTally returns the mission's tally, or a zero tally when none has
// been recorded yet.
func (s *Service) GetTally(ctx context.Context, missionID string) (Tally, error) {
	m, err := s.missions.Get(ctx, missionID)
	if err != nil {
		return Tally{}, err
	}
	t, err := s.store.TallyByMission(ctx, m.ID)
	if err != nil {
		if domain.IsNotFound(err) {
			return Tally{AccountID: m.AccountID, MissionID: m.ID}, nil
		}
		return Tally{}, err
	}
	return t, nil
}

func requireOwnership(actor tenancy.Actor, createdBy string) error {
	if actor.UserID == createdBy || actor.Elevated() {
		return nil
	}
	return fmt.Errorf("%w: only the recording user or an account admin may modify this entry", domain.ErrForbidden)
}
