package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebridge/platform/internal/adherence"
	"github.com/carebridge/platform/internal/audit"
	"github.com/carebridge/platform/internal/kvstore"
	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/schedule"
	"github.com/carebridge/platform/internal/session"
	"github.com/carebridge/platform/internal/shared/auth"
	"github.com/carebridge/platform/internal/shared/config"
	"github.com/carebridge/platform/internal/shared/events"
	"github.com/carebridge/platform/internal/shared/logging"
	"github.com/carebridge/platform/internal/shared/metrics"
	secmiddleware "github.com/carebridge/platform/internal/shared/middleware"
	"github.com/carebridge/platform/internal/suggest"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	Log    zerolog.Logger
	KV     kvstore.Store
	Bus    events.Bus
	Store  *patient.Store
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Server.Env)
	app := &App{Config: cfg, Log: log}

	// Snapshot backend (falls back to memory if unavailable)
	app.KV = openStorage(ctx, cfg, log)
	defer app.KV.Close()

	// Event bus with optional durable KurrentDB stream
	app.Bus = openBus(ctx, cfg, log)
	defer app.Bus.Close()

	// Activity trail records everything published to the bus
	trail := audit.NewTrail(audit.DefaultCapacity)
	trail.Subscribe(app.Bus)

	app.Store = patient.NewStore(ctx, app.KV, app.Bus, log,
		patient.DefaultSeed(cfg.Caregiver, time.Now()))

	suggestClient := suggest.NewClient(cfg.AI, log)
	suggestService := suggest.NewService(suggestClient, app.Store, app.Bus, log)
	if suggestClient.Enabled() {
		log.Info().Str("model", cfg.AI.Model).Msg("AI suggestions enabled")
		if id := app.Store.SelectedID(); !id.IsZero() {
			go suggestService.Refresh(ctx, id)
		}
	} else {
		log.Warn().Msg("AI suggestions disabled: no API key configured")
	}

	patientHandler := patient.NewHandler(app.Store)
	sessionHandler := session.NewHandler(cfg.Auth, app.Store)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(secmiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.RateLimiter(50, 100))
	r.Use(secmiddleware.BodyLimit(1 << 20))
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", sessionHandler.Routes())

		r.Group(func(r chi.Router) {
			// Token auth is enforced outside development
			if cfg.Server.Env == "production" {
				r.Use(auth.Middleware(cfg.Auth))
			}

			r.Mount("/session", sessionHandler.ProtectedRoutes())
			r.Mount("/caregiver", patientHandler.CaregiverRoutes())
			r.Mount("/patients", patientHandler.Routes())
			r.Mount("/reports", adherence.NewHandler(app.Store).Routes())
			r.Mount("/schedule", schedule.NewHandler(app.Store).Routes())
			r.Mount("/suggestions", suggest.NewHandler(suggestService).Routes())
			r.Mount("/activity", audit.NewHandler(trail).Routes())
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		close(done)
	}()

	log.Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Bool("kurrentdb", cfg.KurrentDB.Enabled).
		Msg("CareBridge caregiving dashboard started")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}

	<-done
	log.Info().Msg("server stopped")
}

// openStorage selects the snapshot backend from config. Backends that fail
// to initialize degrade to the in-memory store so the dashboard still runs.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) kvstore.Store {
	switch cfg.Storage.Driver {
	case "postgres":
		kv, err := kvstore.NewPostgres(ctx, cfg.Database)
		if err != nil {
			log.Warn().Err(err).Msg("Postgres not available, running with in-memory storage")
			return kvstore.NewMemory()
		}
		log.Info().Msg("Postgres snapshot storage initialized")
		return kv
	case "memory":
		return kvstore.NewMemory()
	default:
		kv, err := kvstore.NewFile(cfg.Storage.Dir)
		if err != nil {
			log.Warn().Err(err).Msg("file storage not available, running with in-memory storage")
			return kvstore.NewMemory()
		}
		log.Info().Str("dir", cfg.Storage.Dir).Msg("file snapshot storage initialized")
		return kv
	}
}

// openBus returns the durable KurrentDB bus when enabled and reachable,
// otherwise the in-process bus
func openBus(ctx context.Context, cfg *config.Config, log zerolog.Logger) events.Bus {
	if !cfg.KurrentDB.Enabled {
		return events.NewMemoryBus()
	}

	bus, err := events.NewKurrentBus(ctx, cfg.KurrentDB)
	if err != nil {
		log.Warn().Err(err).Msg("KurrentDB not available, running without durable activity stream")
		return events.NewMemoryBus()
	}
	log.Info().Str("stream", cfg.KurrentDB.Stream).Msg("KurrentDB event bus initialized")
	return bus
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "CareBridge Caregiving Dashboard",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.Bus.Health(); err != nil {
			checks["events"] = "not ready: " + err.Error()
		} else {
			checks["events"] = "ready"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
