package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wastereport/internal/accounts"
	"wastereport/internal/audit"
	"wastereport/internal/auth"
	"wastereport/internal/config"
	"wastereport/internal/filter"
	"wastereport/internal/httpapi"
	"wastereport/internal/intake"
	"wastereport/internal/metrics"
	"wastereport/internal/ratelimit"
	"wastereport/internal/reports"
	"wastereport/internal/schema"
	"wastereport/internal/uploads"
	"wastereport/pkg/logger"
	"wastereport/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions, err := auth.NewManager(cfg.Session)
	if err != nil {
		log.Error("session init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := schema.Apply(rootCtx, db); err != nil {
			log.Error("schema apply failed", "err", err)
			os.Exit(1)
		}
		log.Info("schema applied")
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	photos, err := openPhotoSink(rootCtx, cfg.Upload)
	if err != nil {
		log.Error("upload backend init failed", "backend", cfg.Upload.Backend, "err", err)
		os.Exit(1)
	}

	m := metrics.New()
	store := reports.NewPostgresRepo(db)

	h := httpapi.Handlers{
		Intake:   intake.NewService(store, photos),
		Reports:  store,
		Guard:    accounts.NewGuard(accounts.NewPostgresRepo(db), accounts.BcryptHasher{}),
		Sessions: sessions,
		Revoker:  auth.NewRedisRevoker(rdb),
		Filter:   filter.NewEngine(store),
		Audit:    audit.NewService(audit.NewPostgresRepo(db)),
		Metrics:  m,
		Ping: func(ctx context.Context) error {
			if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
		SecureCookies:  cfg.IsProduction(),
		MaxUploadBytes: cfg.Upload.MaxBytes,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(m.Middleware())
	r.Use(logger.Middleware(log))

	d := routeDeps{
		Handlers:      h,
		Metrics:       m,
		SubmitLimiter: ratelimit.NewPerIP(cfg.RateLimit.SubmitPerSecond, cfg.RateLimit.SubmitBurst),
		LoginThrottle: ratelimit.NewLoginThrottle(rdb, cfg.RateLimit.LoginAttemptsPerMinute),
	}
	if cfg.Upload.Backend == config.UploadBackendDisk {
		d.StaticPrefix = cfg.Upload.PublicPrefix
		d.StaticDir = cfg.Upload.Dir
	}
	registerRoutes(r, d)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "uploads", cfg.Upload.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func openPhotoSink(ctx context.Context, cfg config.UploadConfig) (intake.PhotoSink, error) {
	switch cfg.Backend {
	case config.UploadBackendMinIO:
		s, err := uploads.NewMinIOSink(ctx, uploads.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			PublicURL: cfg.MinIOPublicURL,
			MaxBytes:  cfg.MaxBytes,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := uploads.NewDiskSink(cfg.Dir, cfg.PublicPrefix, cfg.MaxBytes)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
