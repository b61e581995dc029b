package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medunion/medunion/internal/config"
	"github.com/medunion/medunion/internal/domain/referral"
	"github.com/medunion/medunion/internal/domain/teaching"
	"github.com/medunion/medunion/internal/domain/telemedicine"
	"github.com/medunion/medunion/internal/platform/auth"
	"github.com/medunion/medunion/internal/platform/bus"
	"github.com/medunion/medunion/internal/platform/db"
	"github.com/medunion/medunion/internal/platform/middleware"
	"github.com/medunion/medunion/internal/platform/store"
	"github.com/medunion/medunion/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medunion-server",
		Short: "Medical union collaboration API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(exportReferralCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace stored data with the demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			stores, cleanup, err := buildStores(ctx, cfg, bus.New(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			stores.referrals.ReplaceAll(ctx, referral.SeedReferrals(), referral.SeedSignature)
			stores.lectures.ReplaceAll(ctx, teaching.SeedLectures(), teaching.SeedSignature)
			stores.cases.ReplaceAll(ctx, telemedicine.SeedCases(), telemedicine.SeedSignature)
			fmt.Println("Seeded referrals, lectures, and telemedicine cases.")
			return nil
		},
	}
}

func exportReferralCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-referral <id>",
		Short: "Print the plain-text summary of a referral",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			stores, cleanup, err := buildStores(ctx, cfg, bus.New(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			svc := referral.NewService(stores.referrals, logger)
			text, err := svc.Export(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// domainStores groups the per-domain stores so commands share one wiring
// path. pool is non-nil only with the postgres backend.
type domainStores struct {
	referrals *store.Store[referral.Referral]
	lectures  *store.Store[teaching.Lecture]
	cases     *store.Store[telemedicine.Case]
	pool      *pgxpool.Pool
}

// buildStores constructs one backend per namespace against the configured
// storage and wires the three domain stores onto a shared bus. The returned
// cleanup closes every backend (and the pg pool when one was opened).
func buildStores(ctx context.Context, cfg *config.Config, b *bus.Bus, logger zerolog.Logger) (*domainStores, func(), error) {
	var pool *pgxpool.Pool
	newBackend := func(namespace string) (store.Backend, error) {
		switch cfg.StorageBackend {
		case "memory":
			return store.NewMemoryBackend(), nil
		case "postgres":
			if pool == nil {
				pgPool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
				if err != nil {
					return nil, err
				}
				pool = pgPool
			}
			return store.NewPGBackend(ctx, pool, namespace, logger)
		default:
			return store.NewFileBackend(cfg.DataDir, namespace, logger)
		}
	}

	backends := make([]store.Backend, 0, 3)
	cleanup := func() {
		for _, be := range backends {
			_ = be.Close()
		}
		if pool != nil {
			pool.Close()
		}
	}

	open := func(namespace string) (store.Backend, error) {
		be, err := newBackend(namespace)
		if err != nil {
			return nil, err
		}
		backends = append(backends, be)
		return be, nil
	}

	refBackend, err := open(referral.Namespace)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	lecBackend, err := open(teaching.Namespace)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	tmcBackend, err := open(telemedicine.Namespace)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	stores := &domainStores{
		referrals: store.New[referral.Referral](store.Options{
			Namespace: referral.Namespace,
			Topic:     referral.Topic,
			EventType: referral.EventType,
			Version:   referral.Version,
		}, refBackend, b, logger),
		lectures: store.New[teaching.Lecture](store.Options{
			Namespace: teaching.Namespace,
			Topic:     teaching.Topic,
			EventType: teaching.EventType,
			Version:   teaching.Version,
		}, lecBackend, b, logger),
		cases: store.New[telemedicine.Case](store.Options{
			Namespace: telemedicine.Namespace,
			Topic:     telemedicine.Topic,
			EventType: telemedicine.EventType,
			Version:   telemedicine.Version,
		}, tmcBackend, b, logger),
		pool: pool,
	}
	return stores, cleanup, nil
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	changeBus := bus.New()
	stores, cleanup, err := buildStores(ctx, cfg, changeBus, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer cleanup()
	logger.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")

	if cfg.SeedOnStart {
		stores.referrals.EnsureSeed(ctx, referral.SeedReferrals, referral.SeedSignature)
		stores.lectures.EnsureSeed(ctx, teaching.SeedLectures, teaching.SeedSignature)
		stores.cases.EnsureSeed(ctx, telemedicine.SeedCases, telemedicine.SeedSignature)
	}

	referralSvc := referral.NewService(stores.referrals, logger)
	teachingSvc := teaching.NewService(stores.lectures, logger)
	telemedicineSvc := telemedicine.NewService(stores.cases, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if stores.pool != nil {
		e.GET("/health/db", db.HealthHandler(stores.pool))
	}

	api := e.Group("/api/v1")
	if cfg.IsDev() {
		api.Use(auth.DevMiddleware())
	} else {
		api.Use(auth.Middleware(auth.Config{SigningKey: []byte(cfg.AuthSecret)}))
	}

	referral.NewHandler(referralSvc).RegisterRoutes(api)
	teaching.NewHandler(teachingSvc).RegisterRoutes(api)
	telemedicine.NewHandler(telemedicineSvc).RegisterRoutes(api)

	// Live updates: every store broadcast is forwarded to websocket clients
	// subscribed to the matching topic.
	hub := ws.NewHub(logger)
	detach := hub.Bridge(changeBus, referral.Topic, teaching.Topic, telemedicine.Topic)
	defer detach()
	ws.NewHandler(hub).RegisterRoutes(e.Group(""))

	// Keep in-memory state fresh when another process writes the same
	// storage. The reload happens inside SubscribeExternal before the
	// callback runs, so an empty callback is enough here.
	for _, unsub := range []func(){
		stores.referrals.SubscribeExternal(func() {}),
		stores.lectures.SubscribeExternal(func() {}),
		stores.cases.SubscribeExternal(func() {}),
	} {
		defer unsub()
	}

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
