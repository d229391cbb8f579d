package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"roadchal/internal/app"
	"roadchal/internal/config"
	"roadchal/internal/geo"
	"roadchal/internal/handler"
	"roadchal/internal/middleware"
	"roadchal/internal/observability"
	internalRedis "roadchal/internal/redis"
	"roadchal/internal/repository/postgres"
	"roadchal/internal/service"
	"roadchal/internal/supabase"
	"roadchal/internal/tracking"
	"roadchal/internal/whatsapp"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "roadchal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	nrApp := newRelicApp(cfg.NewRelic, logger)
	if nrApp != nil {
		defer nrApp.Shutdown(shutdownTimeout)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := app.NewDatabase(startCtx, cfg.Database, nrApp, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := app.NewRedisClient(startCtx, cfg.Redis, nrApp, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	if !cfg.Supabase.Enabled() {
		logger.Warn("supabase credentials missing, auth endpoints will answer 503")
	}
	if !cfg.WhatsApp.Enabled() {
		logger.Warn("whatsapp credentials missing, outbound messages will be dropped")
	}
	if cfg.DriverJWT.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET not set, driver tokens are signed with the built-in default secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	messenger := whatsapp.NewClient(cfg.WhatsApp.GraphURL, cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.Timeout, logger)
	hub := tracking.NewHub(messenger, cfg.Tracking.LocationDelay, cfg.Tracking.ArrivalDelay, logger)
	server := wireServer(db, redisClient, nrApp, messenger, hub, cfg, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

func newRelicApp(cfg config.NewRelicConfig, logger *zap.Logger) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		logger.Error("failed to initialize New Relic", zap.Error(err))
		return nil
	}

	logger.Info("New Relic enabled", zap.String("app", cfg.AppName))
	return nrApp
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	messenger whatsapp.Messenger,
	hub *tracking.Hub,
	cfg *config.Config,
	logger *zap.Logger,
) *http.Server {
	// Initialize Redis stores.
	sessionStore := internalRedis.NewSessionStore(redisClient, cfg.Redis.SessionTTL)
	lockStore := internalRedis.NewLockStore(redisClient)
	locationStore := internalRedis.NewLocationStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	journeyStore := internalRedis.NewJourneyStore(redisClient)
	idempotencyStore := internalRedis.NewIdempotencyStore(redisClient)

	// Initialize repositories.
	driverRepo := postgres.NewDriverRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	journeyRepo := postgres.NewJourneyRepository(db)

	// Initialize upstream clients.
	authClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Timeout)
	overpass := geo.NewOverpassClient(cfg.Geo.OverpassURL, cfg.Geo.OverpassTimeout)

	// Initialize services.
	chatbot := service.NewChatbot()
	agent := service.NewAgent(sessionStore, lockStore, service.MockRouteFinder{}, service.NewMockRideBooker("Ramesh"), logger)
	rideService := service.NewRideService(cacheStore, locationStore, cfg.Providers, logger)
	authService := service.NewAuthService(authClient, cacheStore, logger)
	journeyService := service.NewJourneyService(
		journeyRepo,
		journeyStore,
		service.PlaceholderExtractor{},
		geo.NewMetroPlanner(overpass, cfg.Geo.MetroRadiusM),
		service.NewMockRideBooker("Rahul"),
		messenger,
		logger,
	)
	driverService := service.NewDriverService(driverRepo, locationStore, cfg.DriverJWT.Secret, cfg.DriverJWT.TTL, logger).
		WithLocationFeed(bookingRepo, hub)
	bookingService := service.NewBookingService(bookingRepo, logger).
		WithDispatch(hub, driverService, driverService)
	whatsAppBot := service.NewWhatsAppBot(messenger, hub, cfg.WhatsApp.TrackingPageURL, logger)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		ChatHandler:      handler.NewChatHandler(chatbot, agent),
		RideHandler:      handler.NewRideHandler(rideService, hub),
		WhatsAppHandler:  handler.NewWhatsAppHandler(chatbot, whatsAppBot, cfg.WhatsApp.VerifyToken),
		AuthHandler:      handler.NewAuthHandler(authService, cfg.Cookies),
		JourneyHandler:   handler.NewJourneyHandler(journeyService),
		BookingHandler:   handler.NewBookingHandler(bookingService),
		DriverHandler:    handler.NewDriverHandler(driverService, cfg.Cookies, cfg.DriverJWT.TTL),
		RequireUser:      middleware.RequireUser(authService, cfg.Cookies.AccessName),
		RequireDriver:    middleware.RequireDriver(driverService),
		IdempotencyStore: idempotencyStore,
		CORSOrigins:      cfg.Server.CORSOrigins,
		NewRelicApp:      nrApp,
		Logger:           logger,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
