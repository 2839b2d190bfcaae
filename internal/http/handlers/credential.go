package handlers

import (
	"encoding/json"
	"net/http"

	"studio/internal/infra/credentials"
)

type credentialSaveRequest struct {
	APIKey string `json:"api_key"`
}

type credentialResponse struct {
	Present   bool                `json:"present"`
	Validated bool                `json:"validated"`
	Notice    *credentials.Notice `json:"notice,omitempty"`
}

func (a *App) credentialView() credentialResponse {
	status := a.Credentials.Status()
	return credentialResponse{
		Present:   status.Present,
		Validated: status.Validated,
		Notice:    a.Credentials.Notice(),
	}
}

// CredentialStatus reports presence and optimistic validity, never the secret.
func (a *App) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.credentialView())
}

// CredentialSave stores a new API key. The write is durable before the
// response is sent.
func (a *App) CredentialSave(w http.ResponseWriter, r *http.Request) {
	var req credentialSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Credentials.Save(r.Context(), req.APIKey); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, a.credentialView())
}

// CredentialClear forgets the stored key at the user's request.
func (a *App) CredentialClear(w http.ResponseWriter, r *http.Request) {
	if err := a.Credentials.Clear(r.Context()); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	a.json(w, http.StatusOK, a.credentialView())
}
