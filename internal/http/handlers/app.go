package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"studio/internal/domain"
	"studio/internal/engine"
	"studio/internal/history"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/session"
	"studio/internal/storage"
)

// App bundles the handler dependencies.
type App struct {
	Engine      *engine.Engine
	Session     *session.Store
	Credentials *credentials.Store
	History     *history.Log
	Blobs       *storage.FileStore
	Logger      *infra.Logger
}

func NewApp(eng *engine.Engine, sess *session.Store, creds *credentials.Store, hist *history.Log, blobs *storage.FileStore, logger *infra.Logger) *App {
	return &App{
		Engine:      eng,
		Session:     sess,
		Credentials: creds,
		History:     hist,
		Blobs:       blobs,
		Logger:      logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]string{"error": slug, "message": message})
}

// engineError maps a dispatch failure onto a response. Guard violations are
// the caller's fault; a missing credential asks for one.
func (a *App) engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoCredential):
		a.error(w, http.StatusUnauthorized, "no_credential", "configure an API key first")
	case errors.Is(err, domain.ErrUserInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

// parseMode resolves the {mode} URL parameter, writing the error response on
// failure.
func (a *App) parseMode(w http.ResponseWriter, raw string) (domain.Mode, bool) {
	mode, err := domain.ParseMode(raw)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", err.Error())
		return "", false
	}
	return mode, true
}
