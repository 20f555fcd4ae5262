package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"spacemarket/internal/auth"
	"spacemarket/internal/config"
	"spacemarket/internal/handler"
	"spacemarket/internal/logger"
	"spacemarket/internal/repository"
	"spacemarket/internal/service"
	"spacemarket/internal/session"
	"spacemarket/internal/storage"

	firebase "firebase.google.com/go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/option"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	slog.SetDefault(log)

	log.Info("SpaceMarket API", "version", Version, "build_time", BuildTime, "git_commit", GitCommit)

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	var app *firebase.App
	if cfg.UsesFirebase() {
		var opts []option.ClientOption
		if cfg.Firebase.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		}
		var fbConfig *firebase.Config
		if cfg.Firebase.ProjectID != "" {
			fbConfig = &firebase.Config{ProjectID: cfg.Firebase.ProjectID}
		}
		fbApp, err := firebase.NewApp(ctx, fbConfig, opts...)
		if err != nil {
			return fmt.Errorf("failed to initialize firebase: %w", err)
		}
		app = fbApp
		log.Info("✅ Firebase app initialized", "project", cfg.Firebase.ProjectID)
	}

	store, err := openStore(ctx, cfg, app)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("✅ Connected to document store", "backend", cfg.Store.Backend)

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()
	log.Info("✅ Form sessions ready", "backend", cfg.Session.Backend)

	var objects storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UsePathStyle:    cfg.Storage.UsePathStyle,
			PresignTTL:      time.Duration(cfg.Storage.PresignTTLMinutes) * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		objects = s3Store
		log.Info("✅ Object storage initialized", "bucket", cfg.Storage.Bucket)
	} else {
		log.Warn("⚠️  S3_BUCKET is not set - image uploads are disabled")
	}

	profiles, err := config.LoadPredictionProfiles(cfg.Prediction.ProfilesFile)
	if err != nil {
		return err
	}

	// Repositories
	properties := repository.NewPropertyRepository(store)
	users := repository.NewUserRepository(store)
	messages := repository.NewMessageRepository(store)

	provider, err := openAuthProvider(ctx, cfg, app, store)
	if err != nil {
		return err
	}
	manager := auth.NewManager(provider, users, log)
	manager.Subscribe(func(e auth.Event) {
		log.Debug("Auth state changed", "event", e.Kind, "uid", e.UID)
	})
	log.Info("✅ Auth provider initialized", "provider", cfg.Auth.Provider)

	// Services
	predictions := service.NewPredictionService(service.NewPriceClient(&cfg.Prediction), profiles, log)
	planner := service.NewPlanner(properties, service.PushdownPolicy(cfg.Planner.Pushdown), log)
	propertyService := service.NewPropertyService(properties, planner, objects, log)
	userService := service.NewUserService(users, propertyService, log)
	messageService := service.NewMessageService(messages, propertyService, log)
	listingService := service.NewListingService(sessions, predictions, properties, users, objects, log)
	dashboardService := service.NewDashboardService(userService, propertyService, messageService, log)

	log.Info("✅ Services initialized",
		"price_model", cfg.Prediction.BaseURL,
		"pushdown", cfg.Planner.Pushdown,
	)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "spacemarket-api",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	handler.RegisterRoutes(router, handler.Handlers{
		Auth:      handler.NewAuthHandler(manager),
		Property:  handler.NewPropertyHandler(propertyService),
		Listing:   handler.NewListingHandler(listingService, int64(cfg.Storage.MaxUploadMB)<<20),
		User:      handler.NewUserHandler(userService),
		Message:   handler.NewMessageHandler(messageService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	}, manager)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found", "kind": handler.KindNotFound})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("🚀 Starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Info("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("✅ Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, app *firebase.App) (repository.DocumentStore, error) {
	switch cfg.Store.Backend {
	case "postgres":
		s, err := repository.NewPostgresStore(cfg.GetPostgreSQLDSN(), cfg.PostgreSQL.MaxConnections, cfg.PostgreSQL.MaxIdleConnections)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return s, nil
	case "mongo":
		s, err := repository.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		return s, nil
	case "firestore":
		s, err := repository.NewFirestoreStore(ctx, app)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return repository.NewMemoryStore(), nil
}

func openSessions(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	if cfg.Session.Backend == "redis" {
		s, err := session.NewRedisStore(ctx, cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB,
			ttl, time.Duration(cfg.Session.GuardSeconds)*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	}
	return session.NewMemoryStore(ttl), func() {}, nil
}

func openAuthProvider(ctx context.Context, cfg *config.Config, app *firebase.App, store repository.DocumentStore) (auth.Provider, error) {
	if cfg.Auth.Provider == "firebase" {
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open firebase auth: %w", err)
		}
		return auth.NewFirebaseProvider(client, auth.FirebaseConfig{APIKey: cfg.Firebase.APIKey})
	}
	return auth.NewLocalProvider(repository.NewCredentialRepository(store), auth.LocalConfig{
		Secret:          cfg.Auth.JWTSecret,
		TokenTTL:        time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
		MaxFailedLogins: cfg.Auth.MaxFailedLogins,
		Lockout:         time.Duration(cfg.Auth.LockoutMinutes) * time.Minute,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
