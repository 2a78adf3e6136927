package httpapi

import (
	"net/http"

	"missio.app/internal/outreach"
)

func (a *API) handleListContacts(w http.ResponseWriter, r *http.Request) {
	m, _, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	contacts, err := a.outreach.ListContacts(r.Context(), m.ID, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, err)
		return
	}
	if contacts == nil {
		contacts = []outreach.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (a *API) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	m, actor, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	var in outreach.CreateContactInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	c, err := a.outreach.CreateContact(r.Context(), actor, m.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	c, err := a.outreach.GetContact(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	_, actor, err := a.authorizeAccount(r, c.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone_number"`
		Status   *string `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	updated, err := a.outreach.UpdateContact(r.Context(), actor, c.ID, outreach.ContactUpdate{
		FullName: in.FullName,
		Phone:    in.Phone,
		Status:   in.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	c, err := a.outreach.GetContact(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	_, actor, err := a.authorizeAccount(r, c.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.outreach.DeleteContact(r.Context(), actor, c.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetTally(w http.ResponseWriter, r *http.Request) {
	m, _, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	tally, err := a.outreach.GetTally(r.Context(), m.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

func (a *API) handleUpsertTally(w http.ResponseWriter, r *http.Request) {
	m, actor, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	var counts outreach.Counts
	if err := decodeJSON(r, &counts); err != nil {
		writeError(w, err)
		return
	}
	tally, err := a.outreach.UpsertTally(r.Context(), actor, m.ID, counts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}
