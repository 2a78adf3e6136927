// Package httpapi is the HTTP JSON surface. Handlers decode input,
// resolve the tenant scope and delegate to the domain services; the
// error taxonomy maps to status codes in one place.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"missio.app/internal/auth"
	"missio.app/internal/dashboard"
	"missio.app/internal/domain"
	"missio.app/internal/expense"
	"missio.app/internal/mission"
	"missio.app/internal/obs"
	"missio.app/internal/outreach"
	"missio.app/internal/tenancy"
)

// ReadyProbe reports backend readiness, typically a database ping.
type ReadyProbe func(ctx context.Context) error

// Config wires the API's dependencies.
type Config struct {
	Auth      *auth.Service
	Tenants   *tenancy.Service
	Missions  *mission.Service
	Outreach  *outreach.Service
	Expenses  *expense.Service
	Dashboard *dashboard.Service
	Ready     ReadyProbe
	Version   string

	RateBurst  int
	RatePerSec int
}

// API is the HTTP layer.
type API struct {
	router     *mux.Router
	auth       *auth.Service
	tenants    *tenancy.Service
	missions   *mission.Service
	outreach   *outreach.Service
	expenses   *expense.Service
	dashboard  *dashboard.Service
	ready      ReadyProbe
	version    string
	rateBurst  int
	ratePerSec int
}

// New builds the API and registers every route.
func New(cfg Config) *API {
	a := &API{
		router:     mux.NewRouter(),
		auth:       cfg.Auth,
		tenants:    cfg.Tenants,
		missions:   cfg.Missions,
		outreach:   cfg.Outreach,
		expenses:   cfg.Expenses,
		dashboard:  cfg.Dashboard,
		ready:      cfg.Ready,
		version:    cfg.Version,
		rateBurst:  cfg.RateBurst,
		ratePerSec: cfg.RatePerSec,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 20
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 10
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := a.router

	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.handleReadyz).Methods(http.MethodGet)
	r.HandleFunc("/v1/info", a.handleInfo).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/auth/register", a.handleRegister).Methods(http.MethodPost)
	v1.HandleFunc("/auth/login", a.handleLogin).Methods(http.MethodPost)
	v1.HandleFunc("/auth/refresh", a.handleRefresh).Methods(http.MethodPost)
	v1.HandleFunc("/auth/switch-account", a.handleSwitchAccount).Methods(http.MethodPost)
	v1.HandleFunc("/auth/logout", a.handleLogout).Methods(http.MethodPost)
	v1.HandleFunc("/auth/me", a.handleMe).Methods(http.MethodGet)

	v1.HandleFunc("/accounts", a.handleCreateAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts", a.handleListAccounts).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}", a.handleGetAccount).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}", a.handleUpdateAccount).Methods(http.MethodPut)
	v1.HandleFunc("/accounts/{id}", a.handleDeactivateAccount).Methods(http.MethodDelete)
	v1.HandleFunc("/accounts/{id}/join", a.handleJoinAccount).Methods(http.MethodPost)

	v1.HandleFunc("/accounts/{id}/missions", a.handleListMissions).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/missions", a.handleCreateMission).Methods(http.MethodPost)
	v1.HandleFunc("/missions/{id}", a.handleGetMission).Methods(http.MethodGet)
	v1.HandleFunc("/missions/{id}", a.handleUpdateMission).Methods(http.MethodPut)
	v1.HandleFunc("/missions/{id}", a.handleDeleteMission).Methods(http.MethodDelete)
	v1.HandleFunc("/missions/{id}/members", a.handleAddMissionMember).Methods(http.MethodPost)

	v1.HandleFunc("/missions/{id}/outreach/contacts", a.handleListContacts).Methods(http.MethodGet)
	v1.HandleFunc("/missions/{id}/outreach/contacts", a.handleCreateContact).Methods(http.MethodPost)
	v1.HandleFunc("/outreach/contacts/{id}", a.handleUpdateContact).Methods(http.MethodPut)
	v1.HandleFunc("/outreach/contacts/{id}", a.handleDeleteContact).Methods(http.MethodDelete)
	v1.HandleFunc("/missions/{id}/outreach/tally", a.handleGetTally).Methods(http.MethodGet)
	v1.HandleFunc("/missions/{id}/outreach/tally", a.handleUpsertTally).Methods(http.MethodPut)

	v1.HandleFunc("/accounts/{id}/expenses", a.handleListAccountExpenses).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/expenses", a.handleCreateExpense).Methods(http.MethodPost)
	v1.HandleFunc("/missions/{id}/expenses", a.handleListMissionExpenses).Methods(http.MethodGet)
	v1.HandleFunc("/expenses/{id}", a.handleUpdateExpense).Methods(http.MethodPut)
	v1.HandleFunc("/expenses/{id}", a.handleDeleteExpense).Methods(http.MethodDelete)

	v1.HandleFunc("/accounts/{id}/dashboard/stats", a.handleDashboardStats).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/dashboard/summary", a.handleDashboardSummary).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler assembles the middleware chain around the router. Metrics
// label by route template so path cardinality stays bounded.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.withAuth(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = obs.Instrument(routeTemplate(a.router), h)
	h = Logging(h)
	h = Recoverer(h)
	h = RequestID(h)
	return h
}

func routeTemplate(router *mux.Router) func(*http.Request) string {
	return func(r *http.Request) string {
		var match mux.RouteMatch
		if router.Match(r, &match) && match.Route != nil {
			if tpl, err := match.Route.GetPathTemplate(); err == nil {
				return tpl
			}
		}
		return "unmatched"
	}
}

// --- health and info ---

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "missio-api",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		if err := a.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "missio-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- scope helpers ---

func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, fmt.Errorf("%w: no authenticated user", domain.ErrUnauthenticated)
	}
	return p, nil
}

// authorizeAccount runs the tenant guard for the account in the path
// and returns the acting user with their role there.
func (a *API) authorizeAccount(r *http.Request, accountID string) (tenancy.Account, tenancy.Actor, error) {
	p, err := principal(r)
	if err != nil {
		return tenancy.Account{}, tenancy.Actor{}, err
	}
	acc, m, err := a.tenants.Authorize(r.Context(), p.User.ID, accountID)
	if err != nil {
		return tenancy.Account{}, tenancy.Actor{}, err
	}
	return acc, tenancy.Actor{UserID: p.User.ID, RoleName: m.RoleName}, nil
}

// authorizeMission loads the mission, then runs the tenant guard for
// its owning account.
func (a *API) authorizeMission(r *http.Request, missionID string) (mission.Mission, tenancy.Actor, error) {
	m, err := a.missions.Get(r.Context(), missionID)
	if err != nil {
		return mission.Mission{}, tenancy.Actor{}, err
	}
	_, actor, err := a.authorizeAccount(r, m.AccountID)
	if err != nil {
		return mission.Mission{}, tenancy.Actor{}, err
	}
	return m, actor, nil
}

func pathID(r *http.Request) string { return mux.Vars(r)["id"] }
