package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/engine"
	"studio/internal/history"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/providers/gemini"
	"studio/internal/session"
	"studio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	kv, err := storage.OpenKV(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open local store")
	}
	defer kv.Close()

	blobs, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "assets"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open asset store")
	}

	creds, err := credentials.NewStore(ctx, kv, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load credential store")
	}
	// Seed from the environment on first start only; the store owns the key
	// from then on.
	if _, ok := creds.Get(); !ok && cfg.GeminiAPIKey != "" {
		if err := creds.Save(ctx, cfg.GeminiAPIKey); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed credential")
		}
	}

	hist := history.NewLog(kv, cfg.HistoryCapacity, &logger)
	hist.Load(ctx)

	sess := session.NewStore(&logger)

	provider := gemini.New(gemini.Options{
		ImageModel:  cfg.ImageModel,
		VideoModel:  cfg.VideoModel,
		TextModel:   cfg.TextModel,
		SpeechModel: cfg.SpeechModel,
		Logger:      &logger,
	})

	eng := engine.New(engine.Config{
		Provider:     provider,
		Credentials:  creds,
		Session:      sess,
		History:      hist,
		Blobs:        blobs,
		Logger:       &logger,
		PollInterval: cfg.PollInterval,
	})

	app := handlers.NewApp(eng, sess, creds, hist, blobs, &logger)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("studio listening on :%s", cfg.Port)
		// Start returns http.ErrServerClosed on a clean Shutdown; engine
		// teardown still has to run after that, so it must not be fatal.
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := eng.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to release session assets")
	}
	logger.Info().Msg("studio stopped")
}
