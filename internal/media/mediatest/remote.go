// Package mediatest provides an in-memory media remote for tests.
package mediatest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
)

type Remote struct {
	mu sync.Mutex

	URLs mediacloud.URLBuilder

	// Objects holds uploaded bodies by public id.
	Objects   map[string]string
	Uploads   []mediacloud.UploadParams
	Destroyed []string
	Generated int

	UploadErr  error
	DestroyErr error

	version int64
}

func NewRemote() *Remote {
	return &Remote{
		URLs:    mediacloud.URLBuilder{DeliveryBaseURL: "https://media.test"},
		Objects: map[string]string{},
		version: 1700000000,
	}
}

func (r *Remote) Upload(ctx context.Context, body io.Reader, params mediacloud.UploadParams) (*mediacloud.UploadResult, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UploadErr != nil {
		return nil, r.UploadErr
	}
	r.version++
	r.Uploads = append(r.Uploads, params)
	r.Objects[params.PublicID] = string(raw)
	return &mediacloud.UploadResult{
		PublicID:    params.PublicID,
		Version:     r.version,
		Format:      params.Format,
		Bytes:       int64(len(raw)),
		ContentType: mediacloud.ContentTypeForFormat(params.Format),
	}, nil
}

func (r *Remote) Destroy(ctx context.Context, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DestroyErr != nil {
		return r.DestroyErr
	}
	r.Destroyed = append(r.Destroyed, publicID)
	delete(r.Objects, publicID)
	return nil
}

func (r *Remote) RandomPublicID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Generated++
	return fmt.Sprintf("gen%03d", r.Generated)
}

func (r *Remote) URL(source string, opts mediacloud.URLOptions) string {
	return r.URLs.URL(source, opts)
}

func (r *Remote) DestroyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Destroyed)
}

func (r *Remote) UploadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Uploads)
}

func (r *Remote) ListPublicIDs(ctx context.Context, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id := range r.Objects {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Remote) Close() error { return nil }
