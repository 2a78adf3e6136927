package httpapi

import (
	"net/http"

	"missio.app/internal/expense"
)

func (a *API) handleListAccountExpenses(w http.ResponseWriter, r *http.Request) {
	_, _, err := a.authorizeAccount(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	expenses, err := a.expenses.ListByAccount(r.Context(), pathID(r), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, err)
		return
	}
	if expenses == nil {
		expenses = []expense.Expense{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	_, actor, err := a.authorizeAccount(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	var in expense.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	e, err := a.expenses.Create(r.Context(), actor, pathID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (a *API) handleListMissionExpenses(w http.ResponseWriter, r *http.Request) {
	m, _, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	expenses, err := a.expenses.ListByMission(r.Context(), m.ID, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, err)
		return
	}
	if expenses == nil {
		expenses = []expense.Expense{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (a *API) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	e, err := a.expenses.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	_, actor, err := a.authorizeAccount(r, e.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		Category    *string  `json:"category"`
		Amount      *float64 `json:"amount"`
		Description *string  `json:"description"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	updated, err := a.expenses.Update(r.Context(), actor, e.ID, expense.Update{
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	e, err := a.expenses.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	_, actor, err := a.authorizeAccount(r, e.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.expenses.Delete(r.Context(), actor, e.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
