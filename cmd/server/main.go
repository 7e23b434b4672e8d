// The main file of Saffron.

package main

import (
	"Saffron/internal/auth"
	"Saffron/internal/config"
	"Saffron/internal/events"
	"Saffron/internal/menu"
	"Saffron/internal/messaging"
	"Saffron/internal/metrics"
	"Saffron/internal/order"
	"Saffron/internal/realtime"
	"Saffron/internal/reservation"
	"Saffron/internal/sse"
	"Saffron/internal/storage"
	"Saffron/internal/user"
	"Saffron/pkg/cleanup"
	"Saffron/pkg/db"
	"Saffron/pkg/log"
	"Saffron/pkg/validations"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// application holds every service the router exposes.
type application struct {
	cfg                config.Config
	logger             log.Logger
	authService        auth.Service
	authWithAcc        gin.HandlerFunc
	userService        user.Service
	menuService        menu.Service
	orderService       order.Service
	reservationService reservation.Service
	metricsService     metrics.Service
	broadcaster        *sse.Broadcaster
	realtime           *realtime.Server
	uploads            *storage.Handler
}

func main() {
	cfg, err := config.LoadDevConfig()
	logger := log.New(cfg.Version)
	if err != nil {
		logger.Fatal().Err(err).Msg("Couldn't load the environment configuration.")
	}
	for _, key := range cfg.Warnings {
		logger.Warn().Str("key", key).Msg("Invalid configuration value, using the default.")
	}
	logger.Info().Msgf("Welcome to Saffron: v%s", cfg.Version)
	logger.Info().Msgf("Saffron Environment: %s", cfg.Env)
	if cfg.AccessSecret == "" {
		logger.Fatal().Msg("ACCESS_SECRET must be set.")
	}

	// This is the preferred mode used by gin server in DEV environment.
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisOpts := db.RedisOptions{
		Addr:         cfg.RedisAddr,
		Port:         cfg.RedisPort,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDBNumber,
		TxMaxRetries: cfg.RedisTxMaxRetries,
	}
	store, err := db.NewStore(ctx, db.Options{Driver: cfg.StoreDriver, Path: cfg.StorePath, DSN: cfg.StoreDSN, Redis: redisOpts}, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Couldn't open the collection store.")
	}

	validations.RegisterCustomValidations(ctx, logger)
	user.RegisterCustomValidations(ctx, logger)

	userRepo := user.NewRepository(store)
	if err := user.SeedAdmin(ctx, userRepo, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		logger.Fatal().Err(err).Msg("Couldn't seed the admin account.")
	}
	menuRepo := menu.NewRepository(store)
	if _, err := menu.SeedMenu(ctx, menuRepo, cfg.MenuFile, logger); err != nil {
		logger.Error().Err(err).Str("file", cfg.MenuFile).Msg("Couldn't seed the menu catalog.")
	}

	// Revoked tokens live in Redis when available so every instance sees them
	var authRepo auth.Repository
	var redisDB *db.RedisDB
	if cfg.RedisEnabled() {
		if redisDB, err = db.NewDbConnection(ctx, redisOpts, logger); err == nil {
			err = redisDB.CheckDbConnection(ctx, logger)
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("Redis client couldn't PING the redis-server.")
		}
		authRepo = auth.NewRepository(redisDB)
	} else {
		authRepo = auth.NewMemoryRepository()
	}
	authService := auth.NewService(cfg.AccessSecret, cfg.AccessTokenTTL, userRepo, authRepo, logger)

	broadcaster := sse.NewBroadcaster(logger, cfg.SSEHeartbeat)
	rtServer := realtime.NewServer(authService, logger)
	publisher := events.NewPublisher(broadcaster, rtServer, logger)

	var sms, email messaging.Messenger
	if cfg.SMSGatewayURL != "" {
		sms = messaging.NewSMSGateway(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSSender)
	}
	if cfg.ResendAPIKey != "" {
		email = messaging.NewEmailMessenger(cfg.ResendAPIKey, cfg.FromEmail, "Your Saffron order")
	}
	dispatcher := messaging.NewDispatcher(sms, email, 15*time.Second, logger)

	menuService := menu.NewService(menuRepo, logger)
	orderRepo := order.NewRepository(store)
	reservationRepo := reservation.NewRepository(store)

	uploads, err := storage.NewHandler(storage.Config{Path: cfg.UploadPath, MaxSize: cfg.MaxUploadSize}, menuRepo, menuService, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Couldn't create the upload handler.")
	}
	// Completed uploads must be drained or tusd blocks
	go uploads.Watch(ctx)

	app := &application{
		cfg:                cfg,
		logger:             logger,
		authService:        authService,
		authWithAcc:        auth.AuthMiddleware(logger, authService),
		userService:        user.NewService(userRepo, logger),
		menuService:        menuService,
		orderService:       order.NewService(orderRepo, menuRepo, publisher, dispatcher, logger),
		reservationService: reservation.NewService(reservationRepo, publisher, dispatcher, logger),
		metricsService:     metrics.NewService(orderRepo, reservationRepo, logger),
		broadcaster:        broadcaster,
		realtime:           rtServer,
		uploads:            uploads,
	}

	// Initializing the gin server.
	server := gin.New()
	Router(server, app)

	// Running the server with defined addr and port.
	srv := &http.Server{
		Addr:    cfg.SrvAddr + ":" + cfg.SrvPort,
		Handler: server,
	}

	// ListenAndServe is a blocking operation, putting it a goroutine
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Saffron is listening.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Gin server stopped unexpectedly.")
		}
	}()

	// Graceful shutdown of Saffron server triggered due to system interruptions.
	operations := map[string]cleanup.Operation{
		"Gin": func(ctx context.Context) error {
			// Open SSE and realtime streams keep Shutdown waiting, close them alongside
			return srv.Shutdown(ctx)
		},
		"SSE": func(ctx context.Context) error {
			return broadcaster.Close()
		},
		"Realtime": func(ctx context.Context) error {
			return rtServer.Close()
		},
		"Messaging": func(ctx context.Context) error {
			return dispatcher.Wait(ctx)
		},
		"Uploads": func(ctx context.Context) error {
			cancel()
			return nil
		},
	}
	if redisDB != nil {
		operations["Redis-server"] = func(ctx context.Context) error {
			return redisDB.CloseDbConnection(ctx)
		}
	}
	wait := cleanup.GracefulShutdown(context.Background(), logger, 10*time.Second, operations)
	<-wait

	// Outstanding writes finish before the store goes away
	if err := store.Close(); err != nil {
		logger.Error().Err(err).Msg("Couldn't close the collection store.")
	}
	logger.Info().Msg("Saffron stopped.")
}
