package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sketch2solve/coach/internal/dotenv"
	"github.com/sketch2solve/coach/pkg/coach/ai"
	"github.com/sketch2solve/coach/pkg/coach/blob"
	"github.com/sketch2solve/coach/pkg/coach/config"
	"github.com/sketch2solve/coach/pkg/coach/engine"
	"github.com/sketch2solve/coach/pkg/coach/events"
	"github.com/sketch2solve/coach/pkg/coach/problems"
	coachserver "github.com/sketch2solve/coach/pkg/coach/server"
	"github.com/sketch2solve/coach/pkg/coach/store"
)

type serverDeps struct {
	loadConfig   func() (config.Config, error)
	migrate      func(dsn string) error
	openStore    func(ctx context.Context, dsn string) (*store.Store, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultServerDeps() serverDeps {
	return serverDeps{
		loadConfig: config.LoadFromEnv,
		migrate:    store.Migrate,
		openStore:  store.Open,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runServer(ctx context.Context, logger *slog.Logger, deps serverDeps) error {
	if deps.loadConfig == nil || deps.migrate == nil || deps.openStore == nil {
		return errors.New("missing store dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := deps.migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	st, err := deps.openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	hub := events.NewHub(logger)
	blobs := blob.Dir{Root: cfg.UploadDir}

	resolver := &problems.Resolver{
		GraphQLEndpoint: cfg.GraphQLEndpoint,
		AltBaseURL:      cfg.UnstructuredBaseURL,
		GraphQLTimeout:  cfg.GraphQLTimeout,
		AltTimeout:      cfg.UnstructuredTimeout,
		Cache:           st.ProblemCache(),
		Logger:          logger,
	}

	eng := &engine.Engine{
		Store:            st,
		Blobs:            blobs,
		Hub:              hub,
		Logger:           logger,
		MinAudioBytes:    cfg.MinAudioBytes,
		ReasoningTimeout: cfg.ReasoningTimeout,
		STTTimeout:       cfg.STTTimeout,
		TTSTimeout:       cfg.TTSTimeout,
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.ReasoningModel)
		if err != nil {
			return fmt.Errorf("init gemini: %w", err)
		}
		eng.Reasoner = gemini
		eng.Transcriber = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set; coach turns will use the fallback result")
	}
	if cfg.ElevenLabsAPIKey != "" {
		eng.Synthesizer = &ai.ElevenLabs{
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: cfg.ElevenLabsVoiceID,
			ModelID: cfg.ElevenLabsModel,
			BaseURL: cfg.ElevenLabsBaseURL,
		}
	}

	srv := coachserver.New(cfg, logger, coachserver.Deps{
		Store:           st,
		CheckpointStore: st,
		Resolver:        resolver,
		Engine:          eng,
		Hub:             hub,
		Blobs:           blobs,
	})
	httpSrv := buildHTTPServer(cfg, srv.Handler())

	logger.Info("starting coach server", "addr", cfg.Addr)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("coach server stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps serverDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "coach-server: %v\n", err)
		return 1
	}

	if err := runServer(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "coach-server: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultServerDeps()))
}
