package mediacloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/iterator"

	"github.com/yungbote/neurobridge-media/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

const tracerName = "github.com/yungbote/neurobridge-media/internal/platform/mediacloud"

// UploadParams describe one upload. PublicID is required; Format is recorded
// on the object and echoed back in the result.
type UploadParams struct {
	PublicID         string
	Format           string
	OriginalFilename string
	Metadata         map[string]string
}

type UploadResult struct {
	PublicID    string
	Version     int64
	Format      string
	Bytes       int64
	ContentType string
}

// Service is the remote media store: uploads and destroys assets in a GCS
// bucket and builds delivery URLs for them.
type Service struct {
	log    *logger.Logger
	client *storage.Client
	cfg    Config
	urls   URLBuilder
	tracer trace.Tracer

	openWriter func(ctx context.Context, key string) objectWriter
}

// objectWriter is the part of *storage.Writer an upload drives. Cancelling
// the context it was opened with before Close discards the object.
type objectWriter interface {
	io.Writer
	Close() error
	Attrs() *storage.ObjectAttrs
	SetObjectInfo(contentType string, metadata map[string]string)
}

type gcsWriter struct {
	*storage.Writer
}

func (w gcsWriter) SetObjectInfo(contentType string, metadata map[string]string) {
	w.ContentType = contentType
	w.Metadata = metadata
}

func NewServiceFromEnv(ctx context.Context, log *logger.Logger) (*Service, error) {
	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve media storage config: %w", err)
	}
	return NewService(ctx, log, cfg)
}

func NewService(ctx context.Context, log *logger.Logger, cfg Config) (*Service, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate media storage config: %w", err)
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = defaultUploadTimeout
	}
	if cfg.DestroyTimeout <= 0 {
		cfg.DestroyTimeout = defaultDestroyTimeout
	}
	if cfg.ListTimeout <= 0 {
		cfg.ListTimeout = defaultListTimeout
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "MediaCloud")
	serviceLog.Info(
		"Media storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"emulator_host", cfg.EmulatorHost,
		"bucket", cfg.Bucket,
		"folder", cfg.Folder,
		"delivery_base_url", cfg.DeliveryBaseURL,
		"credentials", cfg.CredentialsSource(),
	)
	svc := &Service{
		log:    serviceLog,
		client: client,
		cfg:    cfg,
		urls:   NewURLBuilder(cfg),
		tracer: otel.Tracer(tracerName),
	}
	svc.openWriter = func(ctx context.Context, key string) objectWriter {
		return gcsWriter{client.Bucket(cfg.Bucket).Object(key).NewWriter(ctx)}
	}
	return svc, nil
}

func newStorageClientForMode(ctx context.Context, cfg Config) (*storage.Client, error) {
	switch cfg.Mode {
	case StorageModeGCS:
		return storage.NewClient(ctx, cfg.ClientOptions()...)
	case StorageModeGCSEmulator:
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"))
		return storage.NewClient(ctx, cfg.ClientOptions()...)
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (s *Service) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Service) object(publicID string) *storage.ObjectHandle {
	return s.client.Bucket(s.cfg.Bucket).Object(ObjectKey(s.cfg.Folder, publicID))
}

func (s *Service) Upload(ctx context.Context, r io.Reader, params UploadParams) (*UploadResult, error) {
	publicID := strings.Trim(strings.TrimSpace(params.PublicID), "/")
	if publicID == "" {
		return nil, fmt.Errorf("upload: public id is required")
	}
	ctx, span := s.tracer.Start(ctx, "mediacloud.Upload", trace.WithAttributes(s.spanAttributes(ctx,
		attribute.String("media.public_id", publicID),
		attribute.String("media.format", params.Format),
	)...))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	// The writer gets its own context so a failed copy can abort the upload
	// instead of committing a truncated object over the live one.
	writeCtx, abort := context.WithCancel(ctx)
	defer abort()

	w := s.openWriter(writeCtx, ObjectKey(s.cfg.Folder, publicID))
	contentType := ContentTypeForFormat(params.Format)
	metadata := map[string]string{"format": params.Format}
	if params.OriginalFilename != "" {
		metadata["original_filename"] = params.OriginalFilename
	}
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	w.SetObjectInfo(contentType, metadata)

	n, err := io.Copy(w, r)
	if err != nil {
		abort()
		_ = w.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		s.log.Warn("Media upload aborted", "public_id", publicID, "bytes_sent", n, "error", err)
		return nil, fmt.Errorf("failed to write media %q: %w", publicID, err)
	}
	if err := w.Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "close failed")
		return nil, fmt.Errorf("failed to finalize media %q: %w", publicID, err)
	}

	created := time.Now()
	if attrs := w.Attrs(); attrs != nil && !attrs.Created.IsZero() {
		created = attrs.Created
	}
	res := &UploadResult{
		PublicID:    publicID,
		Version:     created.Unix(),
		Format:      params.Format,
		Bytes:       n,
		ContentType: contentType,
	}
	span.SetAttributes(attribute.Int64("media.version", res.Version), attribute.Int64("media.bytes", n))
	s.log.Debug("Media uploaded", "public_id", publicID, "version", res.Version, "bytes", n)
	return res, nil
}

// Destroy removes the asset stored under publicID. An asset that is already
// gone is not an error.
func (s *Service) Destroy(ctx context.Context, publicID string) error {
	publicID = strings.Trim(strings.TrimSpace(publicID), "/")
	if publicID == "" {
		return fmt.Errorf("destroy: public id is required")
	}
	ctx, span := s.tracer.Start(ctx, "mediacloud.Destroy", trace.WithAttributes(s.spanAttributes(ctx,
		attribute.String("media.public_id", publicID),
	)...))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DestroyTimeout)
	defer cancel()

	if err := s.object(publicID).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			s.log.Debug("Media already absent", "public_id", publicID)
			span.SetAttributes(attribute.String("media.result", "not_found"))
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to destroy media %q in bucket %q: %w", publicID, s.cfg.Bucket, err)
	}
	span.SetAttributes(attribute.String("media.result", "ok"))
	return nil
}

// ListPublicIDs returns the public ids stored under prefix.
func (s *Service) ListPublicIDs(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "mediacloud.ListPublicIDs", trace.WithAttributes(s.spanAttributes(ctx,
		attribute.String("media.prefix", prefix),
	)...))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ListTimeout)
	defer cancel()
	keyPrefix := ObjectKey(s.cfg.Folder, prefix)
	it := s.client.Bucket(s.cfg.Bucket).Objects(ctx, &storage.Query{Prefix: keyPrefix})
	folderPrefix := ""
	if s.cfg.Folder != "" {
		folderPrefix = s.cfg.Folder + "/"
	}
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list failed")
			return nil, fmt.Errorf("failed to list media under %q: %w", prefix, err)
		}
		out = append(out, strings.TrimPrefix(attrs.Name, folderPrefix))
	}
	return out, nil
}

// spanAttributes tags a remote call with the bucket and, when the call
// comes from an API request, its request id, trace id and caller.
func (s *Service) spanAttributes(ctx context.Context, attrs ...attribute.KeyValue) []attribute.KeyValue {
	attrs = append(attrs, attribute.String("media.bucket", s.cfg.Bucket))
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.RequestID != "" {
			attrs = append(attrs, attribute.String("http.request_id", td.RequestID))
		}
		if td.TraceID != "" {
			attrs = append(attrs, attribute.String("app.trace_id", td.TraceID))
		}
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.Subject != "" {
		attrs = append(attrs, attribute.String("enduser.id", rd.Subject))
	}
	return attrs
}

// RandomPublicID returns a fresh 20-character lowercase alphanumeric id.
func (s *Service) RandomPublicID() string {
	return RandomPublicID()
}

func RandomPublicID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

func (s *Service) URL(source string, opts URLOptions) string {
	return s.urls.URL(source, opts)
}

// ContentTypeForFormat maps a file format to the content type recorded on
// the origin object.
func ContentTypeForFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "svg":
		return "image/svg+xml"
	case "mp4", "m4v":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mov":
		return "video/quicktime"
	case "pdf":
		return "application/pdf"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// FormatVersion renders an upload version the way identifiers store it.
func FormatVersion(v int64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
