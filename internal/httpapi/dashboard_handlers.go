package httpapi

import "net/http"

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	_, _, err := a.authorizeAccount(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := a.dashboard.Stats(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	_, _, err := a.authorizeAccount(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := a.dashboard.Summary(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
