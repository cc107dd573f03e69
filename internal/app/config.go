package app

import (
	"strings"

	"github.com/yungbote/neurobridge-media/internal/data/db"
	"github.com/yungbote/neurobridge-media/internal/observability"
	"github.com/yungbote/neurobridge-media/internal/platform/envutil"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

type Config struct {
	HTTPAddr string
	DB       db.Config

	APISecret string

	MountsFile       string
	PurgeConcurrency int

	AllowOrigins   []string
	MetricsEnabled bool

	ServiceName string
	Environment string
	Version     string
	Tracing     observability.TracingConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr: envutil.String("HTTP_ADDR", ":8080", log),
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "mediastore", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "", log),
		},
		APISecret:        envutil.String("MEDIA_API_SECRET", "", log),
		MountsFile:       envutil.String("MEDIA_MOUNTS_FILE", "", log),
		PurgeConcurrency: envutil.Int("MEDIA_PURGE_CONCURRENCY", 4, log),
		AllowOrigins:     splitList(envutil.String("CORS_ALLOW_ORIGINS", "", log)),
		MetricsEnabled:   envutil.Bool("METRICS_ENABLED", false, log),
		ServiceName:      envutil.String("OTEL_SERVICE_NAME", "mediastore", log),
		Environment:      envutil.String("APP_ENV", "development", log),
		Version:          envutil.String("APP_VERSION", "dev", log),
		Tracing:          observability.LoadTracingConfig(log),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
