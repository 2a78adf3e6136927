package mission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"missio.app/internal/audit"
	"missio.app/internal/domain"
	"missio.app/internal/ids"
	"missio.app/internal/mail"
	"missio.app/internal/obs"
	"missio.app/internal/tenancy"
)

// UserDirectory resolves the member being invited so the invitation
// email has a recipient.
type UserDirectory interface {
	UserEmail(ctx context.Context, userID string) (string, error)
}

// Service implements mission operations on top of Store.
type Service struct {
	store  Store
	users  UserDirectory
	sender mail.Sender
}

// NewService builds a mission service. A nil sender disables email.
func NewService(store Store, users UserDirectory, sender mail.Sender) *Service {
	if sender == nil {
		sender = mail.NoopSender{}
	}
	return &Service{store: store, users: users, sender: sender}
}

// CreateInput is the mission creation payload after date parsing.
type CreateInput struct {
	Name      string
	Location  string
	StartDate *time.Time
	EndDate   *time.Time
	Budget    float64
}

// Create records a new mission. The caller must already hold an
// admin or owner membership in the account.
func (s *Service) Create(ctx context.Context, actor tenancy.Actor, accountID string, in CreateInput) (Mission, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Mission{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := validateDates(in.StartDate, in.EndDate); err != nil {
		return Mission{}, err
	}
	if in.Budget < 0 {
		return Mission{}, fmt.Errorf("%w: budget cannot be negative", domain.ErrInvalidInput)
	}
	m := Mission{
		ID:        ids.New(),
		AccountID: accountID,
		Name:      in.Name,
		Location:  strings.TrimSpace(in.Location),
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Budget:    in.Budget,
		CreatedBy: actor.UserID,
	}
	if err := s.store.CreateMission(ctx, &m); err != nil {
		return Mission{}, fmt.Errorf("create mission: %w", err)
	}
	audit.Log(ctx, audit.EventMissionCreated, actor.UserID, map[string]any{
		"mission_id": m.ID,
		"account_id": accountID,
	})
	return m, nil
}

// Get returns a live mission by id. Soft-deleted missions are absent.
func (s *Service) Get(ctx context.Context, missionID string) (Mission, error) {
	id, err := ids.Parse(missionID)
	if err != nil {
		return Mission{}, err
	}
	return s.store.MissionByID(ctx, id)
}

// List pages through an account's live missions.
func (s *Service) List(ctx context.Context, accountID string, limit, offset int) ([]Mission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListMissions(ctx, accountID, limit, offset)
}

// Update applies a partial update. Only the creator or an elevated
// actor may change a mission.
func (s *Service) Update(ctx context.Context, actor tenancy.Actor, missionID string, upd Update) (Mission, error) {
	m, err := s.Get(ctx, missionID)
	if err != nil {
		return Mission{}, err
	}
	if err := s.requireOwnership(actor, m); err != nil {
		return Mission{}, err
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return Mission{}, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		upd.Name = &trimmed
	}
	if upd.Budget != nil && *upd.Budget < 0 {
		return Mission{}, fmt.Errorf("%w: budget cannot be negative", domain.ErrInvalidInput)
	}
	start, end := m.StartDate, m.EndDate
	if upd.StartDate != nil {
		start = upd.StartDate
	}
	if upd.EndDate != nil {
		end = upd.EndDate
	}
	if err := validateDates(start, end); err != nil {
		return Mission{}, err
	}
	updated, err := s.store.UpdateMission(ctx, m.ID, upd)
	if err != nil {
		return Mission{}, fmt.Errorf("update mission: %w", err)
	}
	return updated, nil
}

// Delete soft-deletes a mission under the same ownership rule as
// Update.
func (s *Service) Delete(ctx context.Context, actor tenancy.Actor, missionID string) error {
	m, err := s.Get(ctx, missionID)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(actor, m); err != nil {
		return err
	}
	if err := s.store.SoftDeleteMission(ctx, m.ID); err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	audit.Log(ctx, audit.EventMissionDeleted, actor.UserID, map[string]any{
		"mission_id": m.ID,
		"account_id": m.AccountID,
	})
	return nil
}

// AddMember enrolls a user into a mission and sends them an invitation
// email in the background. Delivery failures are logged, not surfaced.
func (s *Service) AddMember(ctx context.Context, actor tenancy.Actor, missionID, userID, role string) (Membership, error) {
	if !ValidRole(role) {
		return Membership{}, fmt.Errorf("%w: unknown mission role %q", domain.ErrInvalidInput, role)
	}
	uid, err := ids.Parse(userID)
	if err != nil {
		return Membership{}, err
	}
	m, err := s.Get(ctx, missionID)
	if err != nil {
		return Membership{}, err
	}
	if _, err := s.store.MissionMembershipFor(ctx, m.ID, uid); err == nil {
		return Membership{}, fmt.Errorf("%w: user already belongs to this mission", domain.ErrConflict)
	} else if !domain.IsNotFound(err) {
		return Membership{}, err
	}
	membership, err := s.store.CreateMissionMembership(ctx, m.ID, uid, role)
	if err != nil {
		return Membership{}, fmt.Errorf("add mission member: %w", err)
	}
	audit.Log(ctx, audit.EventMemberAdded, actor.UserID, map[string]any{
		"mission_id": m.ID,
		"member_id":  uid,
		"role":       role,
	})
	s.sendInvitation(ctx, m, uid, role)
	return membership, nil
}

func (s *Service) requireOwnership(actor tenancy.Actor, m Mission) error {
	if actor.UserID == m.CreatedBy || actor.Elevated() {
		return nil
	}
	return fmt.Errorf("%w: only the mission creator or an account admin may modify it", domain.ErrForbidden)
}

func (s *Service) sendInvitation(ctx context.Context, m Mission, userID, role string) {
	email, err := s.users.UserEmail(ctx, userID)
	if err != nil || email == "" {
		obs.Logger().WithField("mission_id", m.ID).WithField("user_id", userID).
			WithError(err).Warn("invitation skipped, no recipient email")
		return
	}
	go func() {
		msg := mail.Message{
			To:      email,
			Subject: fmt.Sprintf("You were added to mission %q", m.Name),
			Body:    fmt.Sprintf("You have been added to the mission %q as %s.", m.Name, role),
		}
		if err := s.sender.Send(context.Background(), msg); err != nil {
			obs.Logger().WithField("mission_id", m.ID).WithError(err).
				Warn("invitation email delivery failed")
		}
	}()
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end_date cannot precede start_date", domain.ErrInvalidInput)
	}
	return nil
}
