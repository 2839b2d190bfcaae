package handlers

import (
	"encoding/json"
	"net/http"

	"studio/internal/domain"
)

type sessionResponse struct {
	ActiveMode domain.Mode                      `json:"active_mode"`
	Modes      map[domain.Mode]domain.ModeState `json:"modes"`
	Credential credentialResponse               `json:"credential"`
}

// Session returns the whole session view: the active mode, every mode's
// committed state and the credential status including any removal notice.
func (a *App) SessionView(w http.ResponseWriter, r *http.Request) {
	states := make(map[domain.Mode]domain.ModeState, len(domain.Modes()))
	for _, m := range domain.Modes() {
		states[m] = a.Session.Snapshot(m)
	}
	a.json(w, http.StatusOK, sessionResponse{
		ActiveMode: a.Session.ActiveMode(),
		Modes:      states,
		Credential: a.credentialView(),
	})
}

type switchModeRequest struct {
	Mode string `json:"mode"`
}

// SwitchMode repoints the active mode. Both modes keep their state; in-flight
// work keeps running and settles into its originating mode.
func (a *App) SwitchMode(w http.ResponseWriter, r *http.Request) {
	var req switchModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := a.Session.SwitchMode(mode); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"active_mode": mode,
		"state":       a.Session.Snapshot(mode),
	})
}
