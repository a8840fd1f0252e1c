package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/database"
	"github.com/ieraasyl/SavorViews/internal/handlers"
	"github.com/ieraasyl/SavorViews/internal/middleware"
	"github.com/ieraasyl/SavorViews/internal/session"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"github.com/ieraasyl/SavorViews/internal/validate"
	"github.com/ieraasyl/SavorViews/internal/views"
	"github.com/ieraasyl/SavorViews/pkg/cache"
	"github.com/ieraasyl/SavorViews/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// storage is the tab-durable storage the session store persists to, plus
// the Ping the readiness check uses and the Purge run when the tab closes.
type storage interface {
	session.Storage
	handlers.Pinger
	Purge(ctx context.Context) error
}

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Log.Level)

	device := api.DeviceLabel(cfg.Backend.UserAgent)
	log.Info().
		Str("backend", cfg.Backend.BaseURL).
		Str("tab_id", cfg.Tab.ID).
		Str("device", device).
		Msg("Starting SavorViews client")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize tab storage
	var tabStorage storage
	if cfg.Redis.Enabled {
		redisDB, err := database.NewRedisDB(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisDB.Close()
		tabStorage = cache.NewTabStorage(cache.NewCache(redisDB.Client()), cfg.Tab.ID, cfg.Tab.TTL)
	} else {
		log.Warn().Msg("Redis disabled, login state will not survive a restart")
		tabStorage = session.NewMemoryStorage()
	}

	// Initialize components
	client, err := api.NewClient(&cfg.Backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create backend client")
	}

	store, err := session.NewStore(ctx, tabStorage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load session")
	}

	console := ui.NewConsole(os.Stdout)
	shell := views.NewShell(client, store, console, validate.New())
	defer shell.Close()

	// Optional debug server
	if cfg.Debug.Addr != "" {
		server := newDebugServer(cfg, device, store, tabStorage, client)
		go func() {
			log.Info().Str("addr", server.Addr).Msg("Debug server started")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Debug server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Debug server forced to shutdown")
			}
		}()
	}

	r := newREPL(ctx, shell, console, os.Stdout)
	r.onClose = tabStorage.Purge
	if err := r.run(os.Stdin); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("Session ended with error")
	}

	log.Info().Msg("SavorViews client stopped")
}

func newDebugServer(cfg *config.Config, device string, store *session.Store, tabStorage storage, client *api.Client) *http.Server {
	healthHandler := handlers.NewHealthHandler(cfg.Tab.ID, device, store, tabStorage, client)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer())
	r.Use(middleware.Logger())
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", middleware.MetricsHandler())

	return &http.Server{
		Addr:         cfg.Debug.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
