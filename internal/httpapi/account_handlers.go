package httpapi

import (
	"net/http"

	"missio.app/internal/audit"
	"missio.app/internal/tenancy"
)

func (a *API) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in tenancy.CreateAccountInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	acc, err := a.tenants.CreateAccount(r.Context(), p.User.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	audit.Log(r.Context(), audit.EventAccountCreated, p.User.ID, map[string]any{"account_id": acc.ID})
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	refs, err := a.tenants.ListUserAccounts(r.Context(), p.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if refs == nil {
		refs = []tenancy.AccountRef{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": refs})
}

func (a *API) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, _, err := a.authorizeAccount(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	_, actor, err := a.authorizeAccount(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := tenancy.RequireRole(tenancy.Membership{RoleName: actor.RoleName}, tenancy.RoleAdmin, tenancy.RoleOwner); err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		Name     *string `json:"account_name"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone_number"`
		Location *string `json:"location"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	acc, err := a.tenants.UpdateAccount(r.Context(), pathID(r), tenancy.AccountUpdate{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Location: in.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	audit.Log(r.Context(), audit.EventAccountUpdated, actor.UserID, map[string]any{"account_id": acc.ID})
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) handleDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	_, actor, err := a.authorizeAccount(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := tenancy.RequireRole(tenancy.Membership{RoleName: actor.RoleName}, tenancy.RoleOwner); err != nil {
		writeError(w, err)
		return
	}
	if err := a.tenants.DeactivateAccount(r.Context(), pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	audit.Log(r.Context(), audit.EventAccountDisabled, actor.UserID, map[string]any{"account_id": pathID(r)})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleJoinAccount(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := a.tenants.JoinAccount(r.Context(), p.User.ID, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	audit.Log(r.Context(), audit.EventAccountJoined, p.User.ID, map[string]any{"account_id": m.AccountID})
	writeJSON(w, http.StatusCreated, m)
}
