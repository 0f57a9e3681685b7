package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/eeeflix-contacts/api/swagger"
	"github.com/noah-isme/eeeflix-contacts/internal/handler"
	"github.com/noah-isme/eeeflix-contacts/internal/middleware"
	"github.com/noah-isme/eeeflix-contacts/internal/models"
	"github.com/noah-isme/eeeflix-contacts/internal/repository"
	"github.com/noah-isme/eeeflix-contacts/internal/service"
	"github.com/noah-isme/eeeflix-contacts/pkg/cache"
	"github.com/noah-isme/eeeflix-contacts/pkg/config"
	"github.com/noah-isme/eeeflix-contacts/pkg/database"
	"github.com/noah-isme/eeeflix-contacts/pkg/jobs"
	"github.com/noah-isme/eeeflix-contacts/pkg/logger"
	"github.com/noah-isme/eeeflix-contacts/pkg/storage"
)

// @title EEEFLIX Contacts API
// @version 1.0.0
// @description Contact store and update endpoint for the EEEFLIX student directory.
// @BasePath /
// @schemes http

type contactStore interface {
	Replace(ctx context.Context, contacts []models.Contact) error
	Raw(ctx context.Context) ([]byte, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.ReadinessCheck{}
	validate := validator.New()
	metrics := service.NewMetricsService()

	store, closeStore, err := openStore(ctx, cfg, checks)
	if err != nil {
		logr.Fatal("failed to open contact store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
		checks["redis"] = repo.Ping
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Redis.CacheTTL, logr, cfg.Redis.Enabled)

	opts := service.ContactServiceOptions{
		RejectUnknownID: cfg.Contacts.RejectUnknownID,
		Cache:           cacheSvc,
		CacheTTL:        cfg.Redis.CacheTTL,
		Metrics:         metrics,
	}

	var backups *service.BackupService
	if cfg.Backups.Enabled {
		backupStore, err := storage.NewLocalStorage(cfg.Backups.Dir)
		if err != nil {
			logr.Fatal("failed to prepare backup dir", zap.Error(err))
		}
		queue := jobs.NewQueue("contact-backups", jobs.QueueConfig{
			Workers:    cfg.Backups.Workers,
			MaxRetries: cfg.Backups.Retries,
			Logger:     logr,
		})
		backups = service.NewBackupService(queue, backupStore, metrics, logr, cfg.Backups.Retention)
		queue.Start(ctx)
		defer queue.Stop()
		go backups.RunCleanup(ctx, time.Hour)
		opts.Backups = backups
	}

	contacts := service.NewContactService(store, validate, logr, opts)
	if list, _, err := contacts.List(ctx); err != nil {
		logr.Warn("contact store not readable at startup", zap.Error(err))
	} else {
		metrics.SetStoreSize(len(list))
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		logr.Fatal("failed to prepare export dir", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exports := service.NewExportService(contacts, exportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)
	go runExportCleanup(ctx, exports, logr)

	auth := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AdminUsername:     cfg.Auth.AdminUsername,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		WriteAPIKey:       cfg.Auth.WriteAPIKey,
	})

	if cfg.Store.Driver == config.StoreDriverFile && cfg.Store.Watch {
		watcher, err := service.NewStoreWatcher(cfg.Store.ContactsPath(), contacts.Invalidate, logr)
		if err != nil {
			logr.Fatal("failed to create store watcher", zap.Error(err))
		}
		if err := watcher.Start(ctx); err != nil {
			logr.Warn("store watcher not started", zap.Error(err))
		}
		defer watcher.Stop()
	}

	var backupHandler *handler.BackupHandler
	if backups != nil {
		backupHandler = handler.NewBackupHandler(backups)
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthEnabled:    cfg.Auth.Enabled,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Contacts:       handler.NewContactHandler(contacts, cfg.Store.AssetsDir, cfg.Store.ContactsFile, logr),
		Exports:        handler.NewExportHandler(exports),
		Backups:        backupHandler,
		Auth:           handler.NewAuthHandler(auth),
		Metrics:        handler.NewMetricsHandler(metrics, checks),
		AuthService:    auth,
		MetricsService: metrics,
		Audit:          middleware.ZapAuditSink{Logger: logr.Named("audit")},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore returns the contact store for the configured driver and
// registers its readiness check.
func openStore(ctx context.Context, cfg *config.Config, checks map[string]handler.ReadinessCheck) (contactStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres, config.StoreDriverSQLite:
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewContactSQLRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		checks["database"] = db.PingContext
		return repo, func() { _ = db.Close() }, nil
	default:
		repo := repository.NewContactFileRepository(cfg.Store.ContactsPath())
		checks["store"] = func(ctx context.Context) error {
			_, err := os.Stat(repo.Path())
			return err
		}
		return repo, func() {}, nil
	}
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := exports.Cleanup(); err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
			}
		}
	}
}
