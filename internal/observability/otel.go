package observability

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/neurobridge-media/internal/platform/envutil"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

const defaultSampleRatio = 0.1

// TracingConfig is the exporter side of tracing, read once at startup.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

func LoadTracingConfig(log *logger.Logger) TracingConfig {
	return TracingConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
		Headers:     parseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		SampleRatio: parseSampleRatio(envutil.String("OTEL_SAMPLER_RATIO", "", log)),
	}
}

// MediaResource describes the storage a process serves. It is stamped on
// every span through the tracer resource.
type MediaResource struct {
	StorageMode string
	Bucket      string
	Folder      string
	Mounts      []string
}

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string

	Tracing TracingConfig
	Media   MediaResource
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider when tracing is enabled. The
// returned shutdown func is nil when tracing stays off.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !cfg.Tracing.Enabled {
			return
		}
		res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg)...))
		if err != nil && log != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
			sdktrace.WithResource(res),
		}
		exporter, expErr := buildTraceExporter(ctx, log, cfg.Tracing)
		if expErr != nil && log != nil {
			log.Warn("otel exporter init failed (continuing)", "error", expErr)
		}
		if exporter != nil {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("otel tracing initialized",
				"service", serviceName(cfg),
				"endpoint", cfg.Tracing.Endpoint,
				"bucket", cfg.Media.Bucket,
				"storage_mode", cfg.Media.StorageMode,
			)
		}
	})
	return otelShutdown
}

func serviceName(cfg OtelConfig) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return "mediastore"
}

func resourceAttributes(cfg OtelConfig) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(serviceName(cfg)),
		semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		attribute.String("service.component", "media"),
	}
	if cfg.Media.StorageMode != "" {
		attrs = append(attrs, attribute.String("media.storage_mode", cfg.Media.StorageMode))
	}
	if cfg.Media.Bucket != "" {
		attrs = append(attrs, attribute.String("media.bucket", cfg.Media.Bucket))
	}
	if cfg.Media.Folder != "" {
		attrs = append(attrs, attribute.String("media.folder", cfg.Media.Folder))
	}
	if len(cfg.Media.Mounts) > 0 {
		attrs = append(attrs, attribute.StringSlice("media.mounts", cfg.Media.Mounts))
	}
	return attrs
}

// parseSampleRatio clamps to [0,1]; blank or junk falls back to 10%.
func parseSampleRatio(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultSampleRatio
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultSampleRatio
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// parseHeaders reads "k=v,k2=v2", skipping malformed pairs.
func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func buildTraceExporter(ctx context.Context, log *logger.Logger, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if cfg.Headers != nil {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	}
	return exp, nil
}
