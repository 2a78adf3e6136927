package httpapi

import (
	"net/http"
	"time"

	"missio.app/internal/audit"
	"missio.app/internal/auth"
	"missio.app/internal/tenancy"
)

type authResponse struct {
	User   auth.User      `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

type loginResponse struct {
	User     auth.User            `json:"user"`
	Tokens   auth.TokenPair       `json:"tokens"`
	Accounts []tenancy.AccountRef `json:"accounts"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	user, tokens, err := a.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	audit.Log(r.Context(), audit.EventUserRegistered, user.ID, map[string]any{"email": user.Email})
	writeJSON(w, http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		AccountID string `json:"account_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	user, tokens, accounts, err := a.auth.Login(r.Context(), in.Email, in.Password, in.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	audit.Log(r.Context(), audit.EventUserLogin, user.ID, nil)
	if accounts == nil {
		accounts = []tenancy.AccountRef{}
	}
	writeJSON(w, http.StatusOK, loginResponse{User: user, Tokens: tokens, Accounts: accounts})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	user, access, expiresAt, err := a.auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	audit.Log(r.Context(), audit.EventTokenRefreshed, user.ID, nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"token_type":   "bearer",
		"expires_at":   expiresAt.UTC().Format(time.RFC3339),
	})
}

func (a *API) handleSwitchAccount(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		AccountID string `json:"account_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	tokens, err := a.auth.SwitchAccount(r.Context(), p.User.ID, in.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	audit.Log(r.Context(), audit.EventAccountSwitched, p.User.ID, map[string]any{"account_id": in.AccountID})
	writeJSON(w, http.StatusOK, tokens)
}

// Sessions are stateless; logout exists so clients have a hook to
// discard their tokens.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := principal(r); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       p.User,
		"account_id": p.Claims.AccountID,
	})
}
