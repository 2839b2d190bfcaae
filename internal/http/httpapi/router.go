package httpapi

import (
	"net/http"

	"studio/internal/http/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	r.Get("/v1/healthz", app.Health)

	r.Get("/v1/session", app.SessionView)
	r.Post("/v1/session/mode", app.SwitchMode)

	r.Route("/v1/modes/{mode}", func(r chi.Router) {
		r.Get("/", app.ModeView)
		r.Patch("/", app.ModePatch)
		r.Post("/generate", app.ModeGenerate)
		r.Post("/analyze", app.ModeAnalyze)
	})

	r.Route("/v1/credential", func(r chi.Router) {
		r.Get("/", app.CredentialStatus)
		r.Post("/", app.CredentialSave)
		r.Delete("/", app.CredentialClear)
	})

	r.Route("/v1/history", func(r chi.Router) {
		r.Get("/", app.HistoryList)
		r.Delete("/", app.HistoryClear)
		r.Post("/{id}/replay", app.HistoryReplay)
	})

	r.Get("/v1/assets/*", app.Asset)

	return r
}
