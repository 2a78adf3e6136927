package httpapi

import (
	"net/http"

	"missio.app/internal/mission"
	"missio.app/internal/tenancy"
)

func (a *API) handleListMissions(w http.ResponseWriter, r *http.Request) {
	_, _, err := a.authorizeAccount(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	missions, err := a.missions.List(r.Context(), pathID(r), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, err)
		return
	}
	if missions == nil {
		missions = []mission.Mission{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"missions": missions})
}

func (a *API) handleCreateMission(w http.ResponseWriter, r *http.Request) {
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
		Name      string  `json:"name"`
		Location  string  `json:"location"`
		StartDate string  `json:"start_date"`
		EndDate   string  `json:"end_date"`
		Budget    float64 `json:"budget"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	start, err := parseDate(in.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := a.missions.Create(r.Context(), actor, pathID(r), mission.CreateInput{
		Name:      in.Name,
		Location:  in.Location,
		StartDate: start,
		EndDate:   end,
		Budget:    in.Budget,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) handleGetMission(w http.ResponseWriter, r *http.Request) {
	m, _, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) handleUpdateMission(w http.ResponseWriter, r *http.Request) {
	m, actor, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		Name      *string  `json:"name"`
		Location  *string  `json:"location"`
		StartDate *string  `json:"start_date"`
		EndDate   *string  `json:"end_date"`
		Budget    *float64 `json:"budget"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	upd := mission.Update{Name: in.Name, Location: in.Location, Budget: in.Budget}
	if in.StartDate != nil {
		t, err := parseDate(*in.StartDate)
		if err != nil {
			writeError(w, err)
			return
		}
		upd.StartDate = t
	}
	if in.EndDate != nil {
		t, err := parseDate(*in.EndDate)
		if err != nil {
			writeError(w, err)
			return
		}
		upd.EndDate = t
	}
	updated, err := a.missions.Update(r.Context(), actor, m.ID, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteMission(w http.ResponseWriter, r *http.Request) {
	m, actor, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.missions.Delete(r.Context(), actor, m.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddMissionMember(w http.ResponseWriter, r *http.Request) {
	m, actor, err := a.authorizeMission(r, pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	var in struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.Role == "" {
		in.Role = mission.RoleMember
	}
	membership, err := a.missions.AddMember(r.Context(), actor, m.ID, in.UserID, in.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}
