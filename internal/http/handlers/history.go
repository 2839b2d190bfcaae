package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HistoryList returns the persisted history, newest first.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.History.Items()})
}

// HistoryClear purges the whole log. Destructive, so the caller must confirm
// explicitly.
func (a *App) HistoryClear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		a.error(w, http.StatusBadRequest, "bad_request", "pass confirm=true to clear history")
		return
	}
	if err := a.History.Clear(r.Context()); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": a.History.Items()})
}

// HistoryReplay restores a past generation's inputs and results into its mode
// and makes that mode active.
func (a *App) HistoryReplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	if err := a.Engine.Replay(id); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "history item not found")
		return
	}
	active := a.Session.ActiveMode()
	a.json(w, http.StatusOK, map[string]any{
		"active_mode": active,
		"state":       a.Session.Snapshot(active),
	})
}
