package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PauloVieira29/Fitness/internal/api"
	"github.com/PauloVieira29/Fitness/internal/config"
	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/repository"
	"github.com/PauloVieira29/Fitness/internal/repository/memory"
	"github.com/PauloVieira29/Fitness/internal/repository/mongo"
	"github.com/PauloVieira29/Fitness/internal/service"
	"github.com/PauloVieira29/Fitness/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// repositories is the set of stores the services are built on.
type repositories struct {
	users         repository.UserRepository
	requests      repository.TrainerRequestRepository
	plans         repository.PlanRepository
	templates     repository.PlanTemplateRepository
	entries       repository.EntryRepository
	uploads       repository.UploadRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	specialties   repository.SpecialtyRepository
	healthCheck   api.HealthCheck
	close         func()
}

// @title Fitness Coaching API
// @version 1.0
// @description Trainer/client pairing, workout plans, daily entries, messages and notifications.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logging.Fatal().Err(err).Msg("Could not load config")
	}
	logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Caller:     cfg.Log.Caller,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Info().
		Str("database", cfg.Database.Driver).
		Str("storage", cfg.Storage.Driver).
		Bool("redis", cfg.Redis.Enabled).
		Msg("Starting Fitness API server")

	// --- Database ---
	repos, err := openRepositories(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Could not open database")
	}
	defer repos.close()

	// --- File storage ---
	fileStorage, files, err := openStorage(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize file storage")
	}

	// --- Rate limiting ---
	var authLimiter api.RateLimiter
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				logging.Warn().Err(err).Msg("Failed to close Redis client")
			}
		}()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, rate limiting fails open until it recovers")
		}
		cancel()
		authLimiter = api.NewRedisLimiter(rdb, "auth", cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
	} else {
		authLimiter = api.NewLocalLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
	}

	// --- Services ---
	services := api.Services{
		Auth:          service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Users:         service.NewUserService(repos.users, repos.specialties),
		Pairing:       service.NewPairingService(repos.users, repos.requests, repos.plans, repos.notifications),
		Plans:         service.NewPlanService(repos.users, repos.plans, repos.templates, repos.entries, repos.notifications),
		Templates:     service.NewTemplateService(repos.templates),
		Entries:       service.NewEntryService(repos.users, repos.entries, repos.plans, repos.notifications),
		Messages:      service.NewMessageService(repos.users, repos.messages, repos.notifications),
		Notifications: service.NewNotificationService(repos.users, repos.notifications),
		Specialties:   service.NewSpecialtyService(repos.specialties, repos.users),
		Admin:         service.NewAdminService(repos.users, repos.specialties),
		Media:         service.NewMediaService(repos.users, repos.uploads, fileStorage, cfg.Upload.MaxBytes),
	}

	// --- HTTP ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxBytes
	api.SetupRoutes(router, services, api.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AuthLimiter:  authLimiter,
		Files:        files,
		HealthChecks: map[string]api.HealthCheck{
			"database": repos.healthCheck,
			"storage":  fileStorage.Ping,
		},
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logging.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("Shutting down server...")

	// The server has 5 seconds to finish the requests it is currently handling
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logging.Error().Err(err).Msg("Server forced to shutdown")
	}
	logging.Info().Msg("Server exiting")
}

func openRepositories(cfg config.DatabaseConfig) (*repositories, error) {
	if cfg.Driver == config.DriverMemory {
		logging.Warn().Msg("Using the in-memory database; data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:         store.Users(),
			requests:      store.TrainerRequests(),
			plans:         store.Plans(),
			templates:     store.PlanTemplates(),
			entries:       store.Entries(),
			uploads:       store.Uploads(),
			messages:      store.Messages(),
			notifications: store.Notifications(),
			specialties:   store.Specialties(),
			healthCheck:   func(context.Context) error { return nil },
			close:         func() {},
		}, nil
	}

	client, err := mongo.ConnectDB(cfg.URI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Name)
	logging.Info().Str("database", cfg.Name).Msg("Database connection established")

	// Index creation runs in the background; failures are logged.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, db)
		logging.Info().Msg("Index creation process completed")
	}()

	return &repositories{
		users:         mongo.NewMongoUserRepository(db),
		requests:      mongo.NewMongoTrainerRequestRepository(db),
		plans:         mongo.NewMongoPlanRepository(db),
		templates:     mongo.NewMongoPlanTemplateRepository(db),
		entries:       mongo.NewMongoEntryRepository(db),
		uploads:       mongo.NewMongoUploadRepository(db),
		messages:      mongo.NewMongoMessageRepository(db),
		notifications: mongo.NewMongoNotificationRepository(db),
		specialties:   mongo.NewMongoSpecialtyRepository(db),
		healthCheck: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: func() {
			logging.Info().Msg("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(client); err != nil {
				logging.Error().Err(err).Msg("Failed to disconnect MongoDB")
			}
		},
	}, nil
}

// openStorage also returns a handler for the uploaded files when they
// are kept in process.
func openStorage(cfg config.Config) (storage.FileStorage, http.Handler, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		logging.Warn().Msg("Using in-memory file storage; uploads are lost on restart")
		mem := storage.NewMemoryStorage("http://localhost" + cfg.Server.Address + "/files")
		return mem, mem, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s3Store, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewBreakerStorage(s3Store, storage.BreakerSettings{
		Name:             "s3",
		MaxRequests:      cfg.S3.Breaker.MaxRequests,
		Interval:         cfg.S3.Breaker.Interval,
		Timeout:          cfg.S3.Breaker.Timeout,
		FailureThreshold: cfg.S3.Breaker.FailureThreshold,
	}), nil, nil
}
