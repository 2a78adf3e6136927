package mission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missio.app/internal/domain"
	"missio.app/internal/ids"
	"missio.app/internal/mail"
	"missio.app/internal/tenancy"
)

type stubStore struct {
	missions    map[string]Mission
	memberships map[string]Membership // missionID + "/" + userID
}

func newStubStore() *stubStore {
	return &stubStore{missions: map[string]Mission{}, memberships: map[string]Membership{}}
}

func (s *stubStore) CreateMission(_ context.Context, m *Mission) error {
	s.missions[m.ID] = *m
	return nil
}

func (s *stubStore) MissionByID(_ context.Context, id string) (Mission, error) {
	m, ok := s.missions[id]
	if !ok || m.DeletedAt != nil {
		return Mission{}, fmt.Errorf("%w: mission %s", domain.ErrNotFound, id)
	}
	return m, nil
}

func (s *stubStore) ListMissions(_ context.Context, accountID string, _, _ int) ([]Mission, error) {
	var out []Mission
	for _, m := range s.missions {
		if m.AccountID == accountID && m.DeletedAt == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateMission(_ context.Context, id string, upd Update) (Mission, error) {
	m := s.missions[id]
	if upd.Name != nil {
		m.Name = *upd.Name
	}
	if upd.Budget != nil {
		m.Budget = *upd.Budget
	}
	if upd.StartDate != nil {
		m.StartDate = upd.StartDate
	}
	if upd.EndDate != nil {
		m.EndDate = upd.EndDate
	}
	s.missions[id] = m
	return m, nil
}

func (s *stubStore) SoftDeleteMission(_ context.Context, id string) error {
	m := s.missions[id]
	now := time.Now()
	m.DeletedAt = &now
	s.missions[id] = m
	return nil
}

func (s *stubStore) MissionMembershipFor(_ context.Context, missionID, userID string) (Membership, error) {
	m, ok := s.memberships[missionID+"/"+userID]
	if !ok {
		return Membership{}, fmt.Errorf("%w: membership", domain.ErrNotFound)
	}
	return m, nil
}

func (s *stubStore) CreateMissionMembership(_ context.Context, missionID, userID, role string) (Membership, error) {
	m := Membership{ID: ids.New(), MissionID: missionID, UserID: userID, Role: role}
	s.memberships[missionID+"/"+userID] = m
	return m, nil
}

type stubDirectory struct{ emails map[string]string }

func (d stubDirectory) UserEmail(_ context.Context, userID string) (string, error) {
	e, ok := d.emails[userID]
	if !ok {
		return "", fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return e, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	done chan struct{}
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	if r.done != nil {
		close(r.done)
	}
	return nil
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCreateMission(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, stubDirectory{}, nil)
	actor := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleAdmin}

	m, err := svc.Create(context.Background(), actor, "acct-1", CreateInput{
		Name:      "  Summer Outreach ",
		Location:  "Nairobi",
		StartDate: date(2026, 6, 1),
		EndDate:   date(2026, 6, 14),
		Budget:    1500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer Outreach", m.Name)
	assert.Equal(t, actor.UserID, m.CreatedBy)
	assert.Equal(t, "acct-1", m.AccountID)
}

func TestCreateMissionRejectsInvertedDates(t *testing.T) {
	svc := NewService(newStubStore(), stubDirectory{}, nil)
	actor := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleOwner}

	_, err := svc.Create(context.Background(), actor, "acct-1", CreateInput{
		Name:      "Backwards",
		StartDate: date(2026, 6, 14),
		EndDate:   date(2026, 6, 1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateMissionRequiresName(t *testing.T) {
	svc := NewService(newStubStore(), stubDirectory{}, nil)
	_, err := svc.Create(context.Background(), tenancy.Actor{UserID: ids.New()}, "acct-1", CreateInput{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateMissionCreatorOrElevatedOnly(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, stubDirectory{}, nil)
	creator := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleMember}
	m, err := svc.Create(context.Background(), creator, "acct-1", CreateInput{Name: "Mission"})
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.Update(context.Background(), creator, m.ID, Update{Name: &name})
	require.NoError(t, err)

	stranger := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleMember}
	_, err = svc.Update(context.Background(), stranger, m.ID, Update{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleAdmin}
	_, err = svc.Update(context.Background(), admin, m.ID, Update{Name: &name})
	assert.NoError(t, err)
}

func TestDeleteMissionHidesIt(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, stubDirectory{}, nil)
	creator := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleOwner}
	m, err := svc.Create(context.Background(), creator, "acct-1", CreateInput{Name: "Mission"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), creator, m.ID))
	_, err = svc.Get(context.Background(), m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddMemberSendsInvitation(t *testing.T) {
	store := newStubStore()
	member := ids.New()
	sender := &recordingSender{done: make(chan struct{})}
	svc := NewService(store, stubDirectory{emails: map[string]string{member: "m@example.org"}}, sender)

	creator := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleAdmin}
	m, err := svc.Create(context.Background(), creator, "acct-1", CreateInput{Name: "Mission"})
	require.NoError(t, err)

	got, err := svc.AddMember(context.Background(), creator, m.ID, member, RoleEvangelist)
	require.NoError(t, err)
	assert.Equal(t, RoleEvangelist, got.Role)

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("invitation email was never sent")
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "m@example.org", sender.sent[0].To)
}

func TestAddMemberDuplicateConflicts(t *testing.T) {
	store := newStubStore()
	member := ids.New()
	svc := NewService(store, stubDirectory{emails: map[string]string{member: "m@example.org"}}, nil)
	creator := tenancy.Actor{UserID: ids.New(), RoleName: tenancy.RoleAdmin}
	m, err := svc.Create(context.Background(), creator, "acct-1", CreateInput{Name: "Mission"})
	require.NoError(t, err)

	_, err = svc.AddMember(context.Background(), creator, m.ID, member, RoleMember)
	require.NoError(t, err)
	_, err = svc.AddMember(context.Background(), creator, m.ID, member, RoleLeader)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAddMemberRejectsUnknownRole(t *testing.T) {
	svc := NewService(newStubStore(), stubDirectory{}, nil)
	_, err := svc.AddMember(context.Background(), tenancy.Actor{}, ids.New(), ids.New(), "emperor")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
