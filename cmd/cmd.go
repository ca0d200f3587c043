package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anniversary-backend/internal/captcha"
	"anniversary-backend/internal/config"
	"anniversary-backend/internal/database"
	"anniversary-backend/internal/handlers"
	"anniversary-backend/internal/media"
	"anniversary-backend/internal/metrics"
	"anniversary-backend/internal/middleware"
	"anniversary-backend/internal/push"
	"anniversary-backend/internal/repository"
	"anniversary-backend/internal/services"
	"anniversary-backend/internal/storage"
	"anniversary-backend/internal/token"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log)

	// Connect to database
	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	memoryRepo := repository.NewMemoryRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	loveNoteRepo := repository.NewLoveNoteRepository(db)
	anniversaryRepo := repository.NewAnniversaryRepository(db)
	countdownRepo := repository.NewCountdownRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Initialize infrastructure
	files, local, err := newFileStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to create file store")
	}
	processor := media.NewProcessor(cfg.Upload.MaxSize, cfg.Upload.ThumbnailWidth).WithMaxPixels(cfg.Upload.MaxPixels)
	codec := token.NewCodec(cfg.JWT.Secret, cfg.JWT.TTL)
	verifier := captcha.NewVerifier(cfg.Captcha.Enabled, cfg.Captcha.Secret, cfg.Captcha.MinScore, cfg.Captcha.VerifyURL)
	sender := newPushSender(cfg)

	// Initialize services
	wsHub := services.NewWSHub()
	notifier := services.NewPartnerNotifier(wsHub, userRepo, sender)
	resolver := services.NewPartnerResolver(userRepo)
	userService := services.NewUserService(userRepo, codec, verifier, files, processor, notifier)
	photoService := services.NewPhotoService(photoRepo, files, processor, activityRepo, notifier)
	memoryService := services.NewMemoryService(memoryRepo, milestoneRepo, photoRepo, activityRepo, notifier)
	messageService := services.NewMessageService(messageRepo, loveNoteRepo, activityRepo, notifier)
	anniversaryService := services.NewAnniversaryService(
		anniversaryRepo,
		countdownRepo,
		photoRepo,
		memoryRepo,
		activityRepo,
		services.AnniversaryPolicy{OwnerOnly: cfg.Policy.AnniversaryOwnerOnly},
	)

	// Initialize handlers
	requireAuth := func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware(codec)(handlers.RequireScope(resolver)(next))
	}
	authHandler := handlers.NewAuthHandler(userService, requireAuth, cfg.Upload.MaxSize)
	photoHandler := handlers.NewPhotoHandler(photoService, cfg.Upload.MaxSize)
	memoryHandler := handlers.NewMemoryHandler(memoryService)
	messageHandler := handlers.NewMessageHandler(messageService)
	anniversaryHandler := handlers.NewAnniversaryHandler(anniversaryService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, codec, resolver, cfg.CORS.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(db)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst, cfg.Server.TrustForwarded)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	if cfg.Server.TrustForwarded {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins).Handler)
	r.Use(chiMiddleware.StripSlashes)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Mixed public and protected actions
		r.With(authLimiter.Actions("login", "register")).Handle("/auth", authHandler.Routes())

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Handle("/photos", photoHandler.Routes())
			r.Handle("/memories", memoryHandler.Routes())
			r.Handle("/messages", messageHandler.Routes())
			r.Handle("/anniversaries", anniversaryHandler.Routes())
		})
	})

	r.Get("/ws", wsHandler.HandleWebSocket)
	r.Get("/healthz", healthHandler.Health)
	r.Handle("/metrics", metrics.Handler())
	if local != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", serveFiles(local.Root())))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("storage", cfg.Storage.Driver).
			Bool("push", cfg.APNS.Enabled()).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown
	wsHub.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch cfg.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// newFileStore builds the configured media store. The local store is also
// returned so its directory can be served.
func newFileStore(ctx context.Context, cfg *config.Config) (services.FileStore, *storage.LocalStore, error) {
	if cfg.Storage.Driver == config.StorageS3 {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
			PathStyle: cfg.AWS.PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3Store, nil, nil
	}

	local, err := storage.NewLocalStore(cfg.Storage.LocalPath)
	if err != nil {
		return nil, nil, err
	}
	return local, local, nil
}

// newPushSender returns an APNs sender when credentials are configured
func newPushSender(cfg *config.Config) push.Sender {
	if !cfg.APNS.Enabled() {
		return push.NopSender{}
	}
	sender, err := push.NewAPNSSender(push.Config{
		KeyFile:    cfg.APNS.KeyFile,
		KeyID:      cfg.APNS.KeyID,
		TeamID:     cfg.APNS.TeamID,
		Topic:      cfg.APNS.Topic,
		Production: cfg.APNS.Production,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create APNs sender, push disabled")
		return push.NopSender{}
	}
	return sender
}

// serveFiles serves stored media without directory listings
func serveFiles(root string) http.Handler {
	fs := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
