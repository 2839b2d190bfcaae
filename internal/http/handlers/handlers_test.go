package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/engine"
	"studio/internal/history"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/providers"
	"studio/internal/session"
	"studio/internal/storage"
)

// stubAdapter serves the handler tests; only image generation is wired.
type stubAdapter struct {
	providers.Adapter
	generateImage func(in providers.ImageInput) (*providers.ImageResult, error)
}

func (s *stubAdapter) GenerateImage(_ context.Context, _ string, in providers.ImageInput) (*providers.ImageResult, error) {
	return s.generateImage(in)
}

type testApp struct {
	app     *App
	session *session.Store
	creds   *credentials.Store
}

func newTestApp(t *testing.T, adapter providers.Adapter) *testApp {
	t.Helper()
	logger := infra.Logger(zerolog.New(io.Discard))

	kv, err := storage.OpenKV(":memory:")
	if err != nil {
		t.Fatalf("OpenKV: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	blobs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	creds, err := credentials.NewStore(context.Background(), kv, &logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	sess := session.NewStore(&logger)
	hist := history.NewLog(kv, 50, &logger)
	eng := engine.New(engine.Config{
		Provider:     adapter,
		Credentials:  creds,
		Session:      sess,
		History:      hist,
		Blobs:        blobs,
		Logger:       &logger,
		PollInterval: time.Millisecond,
	})
	t.Cleanup(func() { eng.Close() })

	return &testApp{
		app:     NewApp(eng, sess, creds, hist, blobs, &logger),
		session: sess,
		creds:   creds,
	}
}

func newModeRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1/modes/{mode}", func(r chi.Router) {
		r.Get("/", app.ModeView)
		r.Patch("/", app.ModePatch)
		r.Post("/generate", app.ModeGenerate)
		r.Post("/analyze", app.ModeAnalyze)
	})
	return r
}

func newAssetRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/assets/*", app.Asset)
	return r
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})
	rr := httptest.NewRecorder()
	ta.app.Health(rr, httptest.NewRequest("GET", "/v1/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
}

func TestSessionViewListsAllModes(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})
	rr := httptest.NewRecorder()
	ta.app.SessionView(rr, httptest.NewRequest("GET", "/v1/session", nil))
	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	var payload struct {
		ActiveMode string                     `json:"active_mode"`
		Modes      map[string]json.RawMessage `json:"modes"`
	}
	decodeBody(t, rr, &payload)
	if payload.ActiveMode != "image" {
		t.Fatalf("active_mode = %q, want %q", payload.ActiveMode, "image")
	}
	if len(payload.Modes) != len(domain.Modes()) {
		t.Fatalf("modes in view = %d, want %d", len(payload.Modes), len(domain.Modes()))
	}
}

func TestSessionViewCarriesCredentialNotice(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})
	if err := ta.creds.Save(context.Background(), "k-123"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := ta.creds.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	rr := httptest.NewRecorder()
	ta.app.SessionView(rr, httptest.NewRequest("GET", "/v1/session", nil))
	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	var payload struct {
		Credential credentialResponse `json:"credential"`
	}
	decodeBody(t, rr, &payload)
	if payload.Credential.Present {
		t.Fatal("credential still present in session view after clear")
	}
	if payload.Credential.Notice == nil || payload.Credential.Notice.Kind != credentials.NoticeCleared {
		t.Fatalf("notice = %+v, want the cleared notice in the session view", payload.Credential.Notice)
	}
}

func TestSwitchModeRejectsUnknown(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/session/mode", strings.NewReader(`{"mode":"hologram"}`))
	ta.app.SwitchMode(rr, req)
	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
	if got := ta.session.ActiveMode(); got != domain.ModeImage {
		t.Fatalf("active mode changed to %q on a rejected switch", got)
	}
}

func TestGenerateWithoutCredential(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})
	ta.session.Update(domain.ModeImage, func(s *domain.ModeState) { s.Prompt = "a cat" })

	router := newModeRouter(ta.app)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/modes/image/generate", nil))
	if rr.Code != 401 {
		t.Fatalf("unexpected status code: got %d, want 401", rr.Code)
	}
	var payload map[string]string
	decodeBody(t, rr, &payload)
	if payload["error"] != "no_credential" {
		t.Fatalf("error slug = %q, want %q", payload["error"], "no_credential")
	}
}

func TestModePatchRejectsBadSimilarity(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})
	router := newModeRouter(ta.app)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/v1/modes/image/", strings.NewReader(`{"similarity":60}`))
	router.ServeHTTP(rr, req)
	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
}

func TestModePatchMergesFields(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})
	ta.session.Update(domain.ModeImage, func(s *domain.ModeState) { s.Prompt = "keep me" })

	router := newModeRouter(ta.app)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/v1/modes/image/", strings.NewReader(`{"similarity":75,"remove_text":true}`))
	router.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200: %s", rr.Code, rr.Body)
	}
	state := ta.session.Snapshot(domain.ModeImage)
	if state.Prompt != "keep me" {
		t.Fatalf("Prompt = %q, patch must not clobber unsent fields", state.Prompt)
	}
	if state.Similarity != domain.SimilarityClose || !state.RemoveText {
		t.Fatalf("patched state = %+v, want similarity 75 and remove_text", state)
	}
}

func TestCredentialLifecycle(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})

	rr := httptest.NewRecorder()
	ta.app.CredentialSave(rr, httptest.NewRequest("POST", "/v1/credential", strings.NewReader(`{"api_key":"  k-123  "}`)))
	if rr.Code != 200 {
		t.Fatalf("save: unexpected status code: got %d, want 200", rr.Code)
	}
	var saved credentialResponse
	decodeBody(t, rr, &saved)
	if !saved.Present || saved.Validated {
		t.Fatalf("after save: %+v, want present and not yet validated", saved)
	}

	rr = httptest.NewRecorder()
	ta.app.CredentialClear(rr, httptest.NewRequest("DELETE", "/v1/credential", nil))
	if rr.Code != 200 {
		t.Fatalf("clear: unexpected status code: got %d, want 200", rr.Code)
	}
	var cleared credentialResponse
	decodeBody(t, rr, &cleared)
	if cleared.Present {
		t.Fatal("credential still present after clear")
	}
	if cleared.Notice == nil || cleared.Notice.Kind != credentials.NoticeCleared {
		t.Fatalf("notice = %+v, want a cleared notice", cleared.Notice)
	}
}

func TestHistoryClearRequiresConfirmation(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})

	rr := httptest.NewRecorder()
	ta.app.HistoryClear(rr, httptest.NewRequest("DELETE", "/v1/history", nil))
	if rr.Code != 400 {
		t.Fatalf("unconfirmed clear: got %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	ta.app.HistoryClear(rr, httptest.NewRequest("DELETE", "/v1/history?confirm=true", nil))
	if rr.Code != 200 {
		t.Fatalf("confirmed clear: got %d, want 200", rr.Code)
	}
}

func TestAssetUnknownKey(t *testing.T) {
	ta := newTestApp(t, &stubAdapter{})
	router := newAssetRouter(ta.app)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/assets/image/nope.png", nil))
	if rr.Code != 404 {
		t.Fatalf("unexpected status code: got %d, want 404", rr.Code)
	}
}
