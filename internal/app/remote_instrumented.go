package app

import (
	"context"
	"io"
	"time"

	"github.com/yungbote/neurobridge-media/internal/media"
	"github.com/yungbote/neurobridge-media/internal/observability"
	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
)

// mediaRemote is the full surface of the media store the app owns.
type mediaRemote interface {
	media.Remote
	ListPublicIDs(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

type instrumentedRemote struct {
	inner   mediaRemote
	metrics *observability.Metrics
}

func instrumentRemote(inner mediaRemote, metrics *observability.Metrics) mediaRemote {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedRemote{inner: inner, metrics: metrics}
}

func (r *instrumentedRemote) Upload(ctx context.Context, body io.Reader, params mediacloud.UploadParams) (*mediacloud.UploadResult, error) {
	start := time.Now()
	res, err := r.inner.Upload(ctx, body, params)
	r.metrics.ObserveRemote("upload", time.Since(start), err)
	if err == nil && res != nil {
		r.metrics.AddUploadedBytes(res.Bytes)
	}
	return res, err
}

func (r *instrumentedRemote) Destroy(ctx context.Context, publicID string) error {
	start := time.Now()
	err := r.inner.Destroy(ctx, publicID)
	r.metrics.ObserveRemote("destroy", time.Since(start), err)
	return err
}

func (r *instrumentedRemote) ListPublicIDs(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	out, err := r.inner.ListPublicIDs(ctx, prefix)
	r.metrics.ObserveRemote("list", time.Since(start), err)
	return out, err
}

func (r *instrumentedRemote) RandomPublicID() string { return r.inner.RandomPublicID() }

func (r *instrumentedRemote) URL(source string, opts mediacloud.URLOptions) string {
	return r.inner.URL(source, opts)
}

func (r *instrumentedRemote) Close() error { return r.inner.Close() }
