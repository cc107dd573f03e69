package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/neurobridge-media/internal/data/db"
	"github.com/yungbote/neurobridge-media/internal/data/repos"
	httpserver "github.com/yungbote/neurobridge-media/internal/http"
	httpH "github.com/yungbote/neurobridge-media/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-media/internal/http/middleware"
	"github.com/yungbote/neurobridge-media/internal/media"
	"github.com/yungbote/neurobridge-media/internal/observability"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
	"github.com/yungbote/neurobridge-media/internal/services"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Remote   mediaRemote
	Mounts   *media.Registry
	Repos    repos.Repos
	Metrics  *observability.Metrics
	Server   *httpserver.Server
	Tokens   services.TokenService
	Attach   services.AttachmentService
	shutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	a := &App{Log: log, Cfg: cfg}

	if cfg.MetricsEnabled {
		m, err := observability.NewMetrics()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		a.Metrics = m
	}

	a.DB, err = db.Open(cfg.DB, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	remote, storageCfg, err := resolveMediaRemote(ctx, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init media storage: %w", err)
	}
	a.Remote = instrumentRemote(remote, a.Metrics)

	a.Mounts, err = media.LoadRegistry(cfg.MountsFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load mounts: %w", err)
	}
	log.Info("Mounts loaded", "mounts", a.Mounts.Names(), "file", cfg.MountsFile)

	a.shutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Tracing:     cfg.Tracing,
		Media: observability.MediaResource{
			StorageMode: string(storageCfg.Mode),
			Bucket:      storageCfg.Bucket,
			Folder:      storageCfg.Folder,
			Mounts:      a.Mounts.Names(),
		},
	})

	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	a.Repos = repos.New(a.DB.DB(), a.Log)
	a.Attach = services.NewAttachmentService(a.DB.DB(), a.Log, a.Repos.Attachment, a.Remote, a.Mounts, a.Cfg.PurgeConcurrency)

	var auth *httpMW.AuthMiddleware
	if a.Cfg.APISecret != "" {
		tokens, err := services.NewTokenService(a.Log, a.Cfg.APISecret)
		if err != nil {
			return fmt.Errorf("init token service: %w", err)
		}
		a.Tokens = tokens
		auth = httpMW.NewAuthMiddleware(a.Log, tokens)
	} else {
		a.Log.Warn("MEDIA_API_SECRET not set; write endpoints will reject every request")
	}

	health := httpH.NewHealthHandler(map[string]httpH.HealthCheck{
		"database": a.pingDB,
	})

	a.Server = httpserver.NewServer(httpserver.RouterConfig{
		Log:               a.Log,
		ServiceName:       a.Cfg.ServiceName,
		AllowOrigins:      a.Cfg.AllowOrigins,
		Metrics:           a.Metrics,
		AuthMiddleware:    auth,
		AttachmentHandler: httpH.NewAttachmentHandler(a.Log, a.Attach),
		HealthHandler:     health,
	})
	return nil
}

func (a *App) pingDB(ctx context.Context) error {
	sqlDB, err := a.DB.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Starting server", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(ctx, a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.shutdown = nil
	}
	if a.Remote != nil {
		if err := a.Remote.Close(); err != nil {
			a.Log.Warn("media storage close failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
