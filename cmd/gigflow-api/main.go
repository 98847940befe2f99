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

	"github.com/dimitrije/gigflow-api/internal/config"
	"github.com/dimitrije/gigflow-api/internal/database"
	"github.com/dimitrije/gigflow-api/internal/handlers"
	"github.com/dimitrije/gigflow-api/internal/logging"
	authmw "github.com/dimitrije/gigflow-api/internal/middleware"
	"github.com/dimitrije/gigflow-api/internal/notify"
	"github.com/dimitrije/gigflow-api/internal/oauth"
	"github.com/dimitrije/gigflow-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	g, ctx := errgroup.WithContext(ctx)

	hub := notify.NewHub(log.WithField("component", "hub"))
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	var publisher notify.Publisher = hub
	if cfg.RelayEnabled() {
		relay, err := notify.DialRelay(cfg.AMQP.URL, cfg.AMQP.Exchange, hub, log.WithField("component", "relay"))
		if err != nil {
			log.WithError(err).Fatal("failed to connect notification relay")
		}
		defer func() { _ = relay.Close() }()

		publisher = relay
		g.Go(func() error {
			return relay.Consume(ctx)
		})
		log.WithField("exchange", cfg.AMQP.Exchange).Info("notification relay enabled")
	}

	hireOpts := services.DefaultHireOptions()
	hireOpts.Retry.MaxRetries = cfg.Hire.MaxRetries
	hireOpts.Timeout = cfg.Hire.Timeout
	hireOpts.LockTimeout = cfg.Hire.LockTimeout

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userService := services.NewUserService(db)
	gigService := services.NewGigService(db)
	bidService := services.NewBidService(db)
	hireCoordinator := services.NewHireCoordinator(db, publisher, hireOpts, log.WithField("component", "hire"))

	providers := oauth.Providers(cfg.OAuth)
	if len(providers) == 0 {
		log.Warn("no oauth providers configured, sign-in is disabled")
	}
	authHandler := handlers.NewAuthHandler(providers, userService, jwtService, cfg.FrontendCallbackURL, log.WithField("component", "auth"))
	g.Go(func() error {
		authHandler.Run(ctx)
		return nil
	})

	gigHandler := handlers.NewGigHandler(gigService, log)
	bidHandler := handlers.NewBidHandler(bidService, hireCoordinator, log)
	notificationHandler := handlers.NewNotificationHandler(hub, jwtService, log)
	healthHandler := handlers.NewHealthHandler(db)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.RequestLogger(log))

	handlers.Routes{
		Auth:          authHandler,
		Gigs:          gigHandler,
		Bids:          bidHandler,
		Notifications: notificationHandler,
		Health:        healthHandler,
		Tokens:        jwtService,
	}.Register(app)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
	}
}
