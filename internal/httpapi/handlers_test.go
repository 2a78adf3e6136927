package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missio.app/internal/auth"
	"missio.app/internal/dashboard"
	"missio.app/internal/domain"
	"missio.app/internal/expense"
	"missio.app/internal/ids"
	"missio.app/internal/mission"
	"missio.app/internal/outreach"
	"missio.app/internal/tenancy"
)

// memStore is an in-memory stand-in for the Postgres store, covering
// every persistence interface the services need.
type memStore struct {
	mu           sync.Mutex
	users        map[string]auth.User
	accounts     map[string]tenancy.Account
	memberships  map[string]tenancy.Membership // userID + "/" + accountID
	missions     map[string]mission.Mission
	missionUsers map[string]mission.Membership // missionID + "/" + userID
	contacts     map[string]outreach.Contact
	tallies      map[string]outreach.Tally
	expenses     map[string]expense.Expense
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]auth.User{},
		accounts:     map[string]tenancy.Account{},
		memberships:  map[string]tenancy.Membership{},
		missions:     map[string]mission.Mission{},
		missionUsers: map[string]mission.Membership{},
		contacts:     map[string]outreach.Contact{},
		tallies:      map[string]outreach.Tally{},
		expenses:     map[string]expense.Expense{},
	}
}

func notFound(what string) error { return fmt.Errorf("%w: %s", domain.ErrNotFound, what) }

func (s *memStore) CreateUser(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: users_email_key", domain.ErrConflict)
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *memStore) UserByID(_ context.Context, id string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, notFound("user")
	}
	return u, nil
}

func (s *memStore) UserByEmail(_ context.Context, email string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, notFound("user")
}

func (s *memStore) UserEmail(ctx context.Context, id string) (string, error) {
	u, err := s.UserByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func (s *memStore) CreateAccountWithOwner(_ context.Context, acc *tenancy.Account, ownerID string) (tenancy.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = acc.CreatedAt
	s.accounts[acc.ID] = *acc
	m := tenancy.Membership{
		ID:        ids.New(),
		AccountID: acc.ID,
		UserID:    ownerID,
		RoleID:    ids.New(),
		RoleName:  tenancy.RoleOwner,
		CreatedAt: acc.CreatedAt,
	}
	s.memberships[ownerID+"/"+acc.ID] = m
	return m, nil
}

func (s *memStore) AccountByID(_ context.Context, id string) (tenancy.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return tenancy.Account{}, notFound("account")
	}
	return acc, nil
}

func (s *memStore) UpdateAccount(_ context.Context, id string, upd tenancy.AccountUpdate) (tenancy.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return tenancy.Account{}, notFound("account")
	}
	if upd.Name != nil {
		acc.Name = *upd.Name
	}
	if upd.Email != nil {
		acc.Email = *upd.Email
	}
	if upd.Phone != nil {
		acc.Phone = *upd.Phone
	}
	if upd.Location != nil {
		acc.Location = *upd.Location
	}
	acc.UpdatedAt = time.Now()
	s.accounts[id] = acc
	return acc, nil
}

func (s *memStore) DeactivateAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return notFound("account")
	}
	acc.Active = false
	s.accounts[id] = acc
	return nil
}

func (s *memStore) MembershipFor(_ context.Context, userID, accountID string) (tenancy.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[userID+"/"+accountID]
	if !ok {
		return tenancy.Membership{}, notFound("membership")
	}
	return m, nil
}

func (s *memStore) CreateMembership(_ context.Context, accountID, userID, roleName string) (tenancy.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := tenancy.Membership{
		ID:        ids.New(),
		AccountID: accountID,
		UserID:    userID,
		RoleID:    ids.New(),
		RoleName:  roleName,
		CreatedAt: time.Now(),
	}
	s.memberships[userID+"/"+accountID] = m
	return m, nil
}

func (s *memStore) ListUserAccounts(_ context.Context, userID string) ([]tenancy.AccountRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []tenancy.AccountRef
	for _, m := range s.memberships {
		if m.UserID != userID {
			continue
		}
		acc := s.accounts[m.AccountID]
		if !acc.Active {
			continue
		}
		refs = append(refs, tenancy.AccountRef{ID: acc.ID, Name: acc.Name, RoleName: m.RoleName})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (s *memStore) CreateMission(_ context.Context, m *mission.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	s.missions[m.ID] = *m
	return nil
}

func (s *memStore) MissionByID(_ context.Context, id string) (mission.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[id]
	if !ok || m.DeletedAt != nil {
		return mission.Mission{}, notFound("mission")
	}
	return m, nil
}

func (s *memStore) ListMissions(_ context.Context, accountID string, _, _ int) ([]mission.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []mission.Mission
	for _, m := range s.missions {
		if m.AccountID == accountID && m.DeletedAt == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) UpdateMission(_ context.Context, id string, upd mission.Update) (mission.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.missions[id]
	if upd.Name != nil {
		m.Name = *upd.Name
	}
	if upd.Location != nil {
		m.Location = *upd.Location
	}
	if upd.StartDate != nil {
		m.StartDate = upd.StartDate
	}
	if upd.EndDate != nil {
		m.EndDate = upd.EndDate
	}
	if upd.Budget != nil {
		m.Budget = *upd.Budget
	}
	m.UpdatedAt = time.Now()
	s.missions[id] = m
	return m, nil
}

func (s *memStore) SoftDeleteMission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.missions[id]
	now := time.Now()
	m.DeletedAt = &now
	s.missions[id] = m
	return nil
}

func (s *memStore) MissionMembershipFor(_ context.Context, missionID, userID string) (mission.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missionUsers[missionID+"/"+userID]
	if !ok {
		return mission.Membership{}, notFound("mission membership")
	}
	return m, nil
}

func (s *memStore) CreateMissionMembership(_ context.Context, missionID, userID, role string) (mission.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := mission.Membership{ID: ids.New(), MissionID: missionID, UserID: userID, Role: role, CreatedAt: time.Now()}
	s.missionUsers[missionID+"/"+userID] = m
	return m, nil
}

func (s *memStore) CreateContact(_ context.Context, c *outreach.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.contacts[c.ID] = *c
	return nil
}

func (s *memStore) ContactByID(_ context.Context, id string) (outreach.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok || c.DeletedAt != nil {
		return outreach.Contact{}, notFound("contact")
	}
	return c, nil
}

func (s *memStore) ListContacts(_ context.Context, missionID string, _, _ int) ([]outreach.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []outreach.Contact
	for _, c := range s.contacts {
		if c.MissionID == missionID && c.DeletedAt == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) UpdateContact(_ context.Context, id string, upd outreach.ContactUpdate) (outreach.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.contacts[id]
	if upd.FullName != nil {
		c.FullName = *upd.FullName
	}
	if upd.Phone != nil {
		c.Phone = *upd.Phone
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	c.UpdatedAt = time.Now()
	s.contacts[id] = c
	return c, nil
}

func (s *memStore) SoftDeleteContact(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.contacts[id]
	now := time.Now()
	c.DeletedAt = &now
	s.contacts[id] = c
	return nil
}

func (s *memStore) UpsertTally(_ context.Context, accountID, missionID string, counts outreach.Counts) (outreach.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := outreach.Tally{
		AccountID:  accountID,
		MissionID:  missionID,
		Interested: counts.Interested,
		Healed:     counts.Healed,
		Saved:      counts.Saved,
		UpdatedAt:  time.Now(),
	}
	s.tallies[missionID] = t
	return t, nil
}

func (s *memStore) TallyByMission(_ context.Context, missionID string) (outreach.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tallies[missionID]
	if !ok {
		return outreach.Tally{}, notFound("tally")
	}
	return t, nil
}

func (s *memStore) CreateExpense(_ context.Context, e *expense.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	s.expenses[e.ID] = *e
	return nil
}

func (s *memStore) ExpenseByID(_ context.Context, id string) (expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.DeletedAt != nil {
		return expense.Expense{}, notFound("expense")
	}
	return e, nil
}

func (s *memStore) ListAccountExpenses(_ context.Context, accountID string, _, _ int) ([]expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []expense.Expense
	for _, e := range s.expenses {
		if e.AccountID == accountID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) ListMissionExpenses(_ context.Context, missionID string, _, _ int) ([]expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []expense.Expense
	for _, e := range s.expenses {
		if e.MissionID == missionID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) UpdateExpense(_ context.Context, id string, upd expense.Update) (expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	e.UpdatedAt = time.Now()
	s.expenses[id] = e
	return e, nil
}

func (s *memStore) SoftDeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.expenses[id]
	now := time.Now()
	e.DeletedAt = &now
	s.expenses[id] = e
	return nil
}

func (s *memStore) AccountStats(ctx context.Context, accountID string) (dashboard.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := dashboard.Stats{AccountID: accountID, ExpensesByCat: map[string]float64{}}
	for _, m := range s.missions {
		if m.AccountID != accountID || m.DeletedAt != nil {
			continue
		}
		stats.TotalMissions++
		if m.EndDate == nil || m.EndDate.After(time.Now()) {
			stats.ActiveMissions++
		}
		stats.TotalBudget += m.Budget
	}
	for _, c := range s.contacts {
		if c.AccountID == accountID && c.DeletedAt == nil {
			stats.Contacts++
		}
	}
	for _, t := range s.tallies {
		if t.AccountID == accountID {
			stats.TotalInterested += t.Interested
			stats.TotalHealed += t.Healed
			stats.TotalSaved += t.Saved
		}
	}
	for _, e := range s.expenses {
		if e.AccountID == accountID && e.DeletedAt == nil {
			stats.ExpensesByCat[e.Category] += e.Amount
			stats.TotalExpenses += e.Amount
		}
	}
	return stats, nil
}

func (s *memStore) RecentMissions(ctx context.Context, accountID string, limit int) ([]mission.Mission, error) {
	out, err := s.ListMissions(ctx, accountID, limit, 0)
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ auth.UserStore  = (*memStore)(nil)
	_ tenancy.Store   = (*memStore)(nil)
	_ mission.Store   = (*memStore)(nil)
	_ outreach.Store  = (*memStore)(nil)
	_ expense.Store   = (*memStore)(nil)
	_ dashboard.Store = (*memStore)(nil)
)

// --- test wiring ---

func newTestAPI(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	store := newMemStore()
	codec, err := auth.NewCodec("handlers-test-secret", auth.WithIssuer("missio-api"))
	require.NoError(t, err)

	tenants := tenancy.NewService(store)
	authSvc := auth.NewService(store, tenants, codec)
	missions := mission.NewService(store, store, nil)
	outreachSvc := outreach.NewService(store, missions)
	expenses := expense.NewService(store, missions)
	dash := dashboard.NewService(store)

	api := New(Config{
		Auth:       authSvc,
		Tenants:    tenants,
		Missions:   missions,
		Outreach:   outreachSvc,
		Expenses:   expenses,
		Dashboard:  dash,
		Version:    "test",
		RateBurst:  1000,
		RatePerSec: 1000,
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func (c *apiClient) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	_ = resp.Body.Close()
	return resp, raw
}

func (c *apiClient) post(path string, body any) (*http.Response, []byte) {
	return c.do(http.MethodPost, path, body)
}

func (c *apiClient) get(path string) (*http.Response, []byte) {
	return c.do(http.MethodGet, path, nil)
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "body: %s", raw)
	return v
}

func registerUser(t *testing.T, c *apiClient, email string) authResponse {
	t.Helper()
	resp, raw := c.post("/v1/auth/register", map[string]any{
		"full_name": "Test User",
		"email":     email,
		"password":  "pw12345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	return decode[authResponse](t, raw)
}

func createAccount(t *testing.T, c *apiClient, name string) tenancy.Account {
	t.Helper()
	resp, raw := c.post("/v1/accounts", map[string]any{"account_name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	return decode[tenancy.Account](t, raw)
}

// --- scenarios ---

func TestRegisterReturnsUnscopedTokens(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}

	resp, raw := c.post("/v1/auth/register", map[string]any{
		"full_name": "A",
		"email":     "a@x.com",
		"password":  "pw12345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.NotContains(t, payload, "account_id")

	ar := decode[authResponse](t, raw)
	assert.NotEmpty(t, ar.Tokens.AccessToken)
	assert.NotEmpty(t, ar.Tokens.RefreshToken)
}

func TestLoginWrongPasswordMatchesUnknownEmail(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}
	registerUser(t, c, "a@x.com")

	resp1, body1 := c.post("/v1/auth/login", map[string]any{"email": "a@x.com", "password": "wrong-password"})
	resp2, body2 := c.post("/v1/auth/login", map[string]any{"email": "ghost@x.com", "password": "pw12345678"})

	assert.Equal(t, http.StatusUnauthorized, resp1.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
	assert.Equal(t, string(body1), string(body2))
}

func TestLoginAutoSelectsSingleAccount(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}
	ar := registerUser(t, c, "a@x.com")
	c.token = ar.Tokens.AccessToken
	acc := createAccount(t, c, "Org1")

	resp, raw := c.post("/v1/auth/login", map[string]any{"email": "a@x.com", "password": "pw12345678"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lr := decode[loginResponse](t, raw)
	require.Len(t, lr.Accounts, 1)
	assert.Equal(t, acc.ID, lr.Accounts[0].ID)

	// The scoped token reaches account resources without a switch.
	scoped := &apiClient{t: t, base: srv.URL, token: lr.Tokens.AccessToken}
	resp, _ = scoped.get("/v1/accounts/" + acc.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Requesting a foreign account at login is refused even though the
	// account exists and is active.
	other := &apiClient{t: t, base: srv.URL}
	other.token = registerUser(t, other, "b@x.com").Tokens.AccessToken
	foreign := createAccount(t, other, "Org2")
	resp, _ = c.post("/v1/auth/login", map[string]any{"email": "a@x.com", "password": "pw12345678", "account_id": foreign.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A nonexistent account id reads the same as a foreign one.
	resp, _ = c.post("/v1/auth/login", map[string]any{"email": "a@x.com", "password": "pw12345678", "account_id": ids.New()})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateAccountGrantsOwnerAndGuardsOutsiders(t *testing.T) {
	srv, _ := newTestAPI(t)
	u := &apiClient{t: t, base: srv.URL}
	u.token = registerUser(t, u, "u@x.com").Tokens.AccessToken
	acc := createAccount(t, u, "Org1")

	resp, raw := u.get("/v1/accounts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string][]tenancy.AccountRef](t, raw)
	require.Len(t, list["accounts"], 1)
	assert.Equal(t, tenancy.RoleOwner, list["accounts"][0].RoleName)

	v := &apiClient{t: t, base: srv.URL}
	v.token = registerUser(t, v, "v@x.com").Tokens.AccessToken
	resp, _ = v.post("/v1/accounts/"+acc.ID+"/missions", map[string]any{"name": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestJoinAccountImmediateMemberThenConflict(t *testing.T) {
	srv, _ := newTestAPI(t)
	owner := &apiClient{t: t, base: srv.URL}
	owner.token = registerUser(t, owner, "owner@x.com").Tokens.AccessToken
	acc := createAccount(t, owner, "Org1")

	joiner := &apiClient{t: t, base: srv.URL}
	joiner.token = registerUser(t, joiner, "joiner@x.com").Tokens.AccessToken

	resp, raw := joiner.post("/v1/accounts/"+acc.ID+"/join", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	m := decode[tenancy.Membership](t, raw)
	assert.Equal(t, tenancy.RoleMember, m.RoleName)

	resp, _ = joiner.post("/v1/accounts/"+acc.ID+"/join", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRefreshIsRepeatable(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}
	ar := registerUser(t, c, "a@x.com")

	var tokens []string
	for range 2 {
		resp, raw := c.post("/v1/auth/refresh", map[string]any{"refresh_token": ar.Tokens.RefreshToken})
		require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
		body := decode[map[string]string](t, raw)
		require.NotEmpty(t, body["access_token"])
		tokens = append(tokens, body["access_token"])
	}

	// Both access tokens authenticate independently.
	for _, token := range tokens {
		client := &apiClient{t: t, base: srv.URL, token: token}
		resp, _ := client.get("/v1/auth/me")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestSwitchAccountRescopesTokens(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}
	c.token = registerUser(t, c, "a@x.com").Tokens.AccessToken
	createAccount(t, c, "Org1")
	acc2 := createAccount(t, c, "Org2")

	resp, raw := c.post("/v1/auth/switch-account", map[string]any{"account_id": acc2.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
	pair := decode[auth.TokenPair](t, raw)

	scoped := &apiClient{t: t, base: srv.URL, token: pair.AccessToken}
	resp, raw = scoped.get("/v1/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, raw)
	assert.Equal(t, acc2.ID, me["account_id"])
}

func TestMissionLifecycle(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}
	c.token = registerUser(t, c, "a@x.com").Tokens.AccessToken
	acc := createAccount(t, c, "Org1")

	resp, raw := c.post("/v1/accounts/"+acc.ID+"/missions", map[string]any{
		"name":       "Summer Outreach",
		"start_date": "2026-06-01",
		"end_date":   "2026-06-14",
		"budget":     1500.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	m := decode[mission.Mission](t, raw)
	assert.Equal(t, acc.ID, m.AccountID)

	resp, _ = c.post("/v1/accounts/"+acc.ID+"/missions", map[string]any{
		"name":       "Backwards",
		"start_date": "2026-06-14",
		"end_date":   "2026-06-01",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = c.do(http.MethodPut, "/v1/missions/"+m.ID, map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
	assert.Equal(t, "Renamed", decode[mission.Mission](t, raw).Name)

	resp, _ = c.do(http.MethodDelete, "/v1/missions/"+m.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = c.get("/v1/missions/" + m.ID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOutreachContactsAndTally(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}
	c.token = registerUser(t, c, "a@x.com").Tokens.AccessToken
	acc := createAccount(t, c, "Org1")
	_, raw := c.post("/v1/accounts/"+acc.ID+"/missions", map[string]any{"name": "Mission"})
	m := decode[mission.Mission](t, raw)

	resp, raw := c.post("/v1/missions/"+m.ID+"/outreach/contacts", map[string]any{
		"full_name": "Grace N.",
		"status":    "interested",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	contact := decode[outreach.Contact](t, raw)
	assert.Equal(t, acc.ID, contact.AccountID)

	resp, raw = c.do(http.MethodPut, "/v1/missions/"+m.ID+"/outreach/tally", map[string]any{
		"interested": 5, "healed": 2, "saved": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

	resp, raw = c.get("/v1/missions/" + m.ID + "/outreach/tally")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tally := decode[outreach.Tally](t, raw)
	assert.Equal(t, 5, tally.Interested)
	assert.Equal(t, 1, tally.Saved)
}

func TestExpenseFlowAndDashboard(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}
	c.token = registerUser(t, c, "a@x.com").Tokens.AccessToken
	acc := createAccount(t, c, "Org1")
	_, raw := c.post("/v1/accounts/"+acc.ID+"/missions", map[string]any{"name": "Mission", "budget": 1000.0})
	m := decode[mission.Mission](t, raw)

	resp, raw := c.post("/v1/accounts/"+acc.ID+"/expenses", map[string]any{
		"mission_id": m.ID,
		"category":   "transport",
		"amount":     120.5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)

	resp, _ = c.post("/v1/accounts/"+acc.ID+"/expenses", map[string]any{
		"category": "food",
		"amount":   -3,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = c.get("/v1/missions/" + m.ID + "/expenses")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string][]expense.Expense](t, raw)
	assert.Len(t, list["expenses"], 1)

	resp, raw = c.get("/v1/accounts/" + acc.ID + "/dashboard/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[dashboard.Stats](t, raw)
	assert.Equal(t, 1, stats.TotalMissions)
	assert.Equal(t, 120.5, stats.TotalExpenses)
	assert.Equal(t, 1000.0, stats.TotalBudget)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}

	resp, _ := c.get("/v1/accounts")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	c.token = "not-a-real-token"
	resp, _ = c.get("/v1/accounts")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeactivatedAccountLocksOut(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}
	c.token = registerUser(t, c, "a@x.com").Tokens.AccessToken
	acc := createAccount(t, c, "Org1")

	resp, _ := c.do(http.MethodDelete, "/v1/accounts/"+acc.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = c.get("/v1/accounts/" + acc.ID)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthEndpointsArePublic(t *testing.T) {
	srv, _ := newTestAPI(t)
	c := &apiClient{t: t, base: srv.URL}

	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		resp, _ := c.get(path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
