package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-media/internal/data/repos"
	domain "github.com/yungbote/neurobridge-media/internal/domain/media"
	"github.com/yungbote/neurobridge-media/internal/media"
	"github.com/yungbote/neurobridge-media/internal/platform/apierr"
	"github.com/yungbote/neurobridge-media/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
)

const defaultPurgeConcurrency = 4

type AttachInput struct {
	OwnerType string
	OwnerID   string
	MountedAs string

	Filename string
	Reader   io.Reader

	// PublicID overrides the generated public id when non-blank.
	PublicID string
	Metadata map[string]any
	// DeleteRemote overrides the mount definition's policy when set.
	DeleteRemote *bool
}

type AttachmentView struct {
	ID        uuid.UUID `json:"id"`
	OwnerType string    `json:"owner_type"`
	OwnerID   string    `json:"owner_id"`
	MountedAs string    `json:"mounted_as"`

	Identifier       string `json:"identifier"`
	PublicID         string `json:"public_id"`
	FullPublicID     string `json:"full_public_id"`
	Version          string `json:"version,omitempty"`
	Format           string `json:"format,omitempty"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename,omitempty"`
	DeleteRemote     bool   `json:"delete_remote"`

	URL      string            `json:"url"`
	Variants map[string]string `json:"variants,omitempty"`
	Metadata datatypes.JSON    `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AttachmentService interface {
	Attach(ctx context.Context, in AttachInput) (*AttachmentView, error)
	Get(ctx context.Context, id uuid.UUID, variant string, opts mediacloud.URLOptions) (*AttachmentView, error)
	List(ctx context.Context, ownerType, ownerID string) ([]*AttachmentView, error)
	Detach(ctx context.Context, id uuid.UUID) error
	PurgeOwner(ctx context.Context, ownerType, ownerID string) (int, error)
}

type attachmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	attachments repos.AttachmentRepo
	remote      media.Remote
	mounts      *media.Registry

	purgeConcurrency int
}

func NewAttachmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	attachments repos.AttachmentRepo,
	remote media.Remote,
	mounts *media.Registry,
	purgeConcurrency int,
) AttachmentService {
	if purgeConcurrency <= 0 {
		purgeConcurrency = defaultPurgeConcurrency
	}
	return &attachmentService{
		db:               db,
		log:              baseLog.With("service", "AttachmentService"),
		attachments:      attachments,
		remote:           remote,
		mounts:           mounts,
		purgeConcurrency: purgeConcurrency,
	}
}

func (s *attachmentService) Attach(ctx context.Context, in AttachInput) (*AttachmentView, error) {
	in.OwnerType = strings.TrimSpace(in.OwnerType)
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	in.MountedAs = strings.TrimSpace(in.MountedAs)
	if in.OwnerType == "" || in.OwnerID == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_owner", fmt.Errorf("owner_type and owner_id are required"))
	}
	if in.Reader == nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_file", fmt.Errorf("file is required"))
	}
	def, ok := s.mounts.Lookup(in.MountedAs)
	if !ok {
		return nil, apierr.New(http.StatusBadRequest, "unknown_mount", fmt.Errorf("unknown mount %q", in.MountedAs))
	}

	meta, err := marshalMetadata(in.Metadata)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_metadata", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.attachments.GetByOwnerMount(dbc, in.OwnerType, in.OwnerID, def.Name)
	if err != nil {
		return nil, fmt.Errorf("load attachment: %w", err)
	}

	deleteRemote := def.DefaultDeleteRemote()
	if in.DeleteRemote != nil {
		deleteRemote = *in.DeleteRemote
	}
	publicID := strings.TrimSpace(in.PublicID)

	m := def.NewMount(s.remote, publicID, deleteRemote)
	m.Metadata = in.Metadata
	var previous *media.Mount
	if existing != nil {
		// Re-assignment: the stored public id is reused unless overridden,
		// so the remote asset is overwritten in place.
		m.Retrieve(existing.Identifier)
		previous = def.NewMount(s.remote, existing.PublicIDOverride, existing.DeleteRemote)
		previous.Retrieve(existing.Identifier)
	}

	identifier, err := m.Store(ctx, in.Reader, in.Filename)
	if err != nil {
		s.log.Warn("Remote upload failed", "owner_type", in.OwnerType, "owner_id", in.OwnerID, "mount", def.Name, "error", err)
		return nil, apierr.New(http.StatusBadGateway, "remote_upload_failed", err)
	}

	row := &domain.Attachment{
		OwnerType:        in.OwnerType,
		OwnerID:          in.OwnerID,
		MountedAs:        def.Name,
		Identifier:       identifier,
		OriginalFilename: m.OriginalFilename(),
		PublicIDOverride: publicID,
		DeleteRemote:     deleteRemote,
		Metadata:         meta,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if existing == nil {
			_, err := s.attachments.Create(txc, []*domain.Attachment{row})
			return err
		}
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		return s.attachments.UpdateFields(txc, existing.ID, map[string]interface{}{
			"identifier":         row.Identifier,
			"original_filename":  row.OriginalFilename,
			"public_id_override": row.PublicIDOverride,
			"delete_remote":      row.DeleteRemote,
			"metadata":           row.Metadata,
		})
	})
	if err != nil {
		if existing == nil || previous.File().PublicID() != m.File().PublicID() {
			if rmErr := m.Remove(ctx); rmErr != nil {
				s.log.Warn("Failed to roll back remote upload", "public_id", m.File().PublicID(), "error", rmErr)
			}
		}
		return nil, fmt.Errorf("persist attachment: %w", err)
	}
	row.UpdatedAt = time.Now().UTC()

	if previous != nil && previous.File().PublicID() != m.File().PublicID() {
		if err := previous.Remove(ctx); err != nil {
			s.log.Warn("Failed to delete replaced remote asset", "public_id", previous.File().PublicID(), "error", err)
		}
	}

	s.log.Info("Attachment stored", "owner_type", row.OwnerType, "owner_id", row.OwnerID, "mount", row.MountedAs, "identifier", identifier)
	return s.view(row, m, "", mediacloud.URLOptions{})
}

func (s *attachmentService) Get(ctx context.Context, id uuid.UUID, variant string, opts mediacloud.URLOptions) (*AttachmentView, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(row, s.mountFor(row), strings.TrimSpace(variant), opts)
}

func (s *attachmentService) List(ctx context.Context, ownerType, ownerID string) ([]*AttachmentView, error) {
	rows, err := s.attachments.GetByOwner(dbctx.Context{Ctx: ctx}, strings.TrimSpace(ownerType), strings.TrimSpace(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	out := make([]*AttachmentView, 0, len(rows))
	for _, row := range rows {
		v, err := s.view(row, s.mountFor(row), "", mediacloud.URLOptions{})
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *attachmentService) Detach(ctx context.Context, id uuid.UUID) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.detach(ctx, row)
}

// PurgeOwner detaches every attachment of an owner concurrently and returns
// how many were removed. The first failure cancels the rest.
func (s *attachmentService) PurgeOwner(ctx context.Context, ownerType, ownerID string) (int, error) {
	rows, err := s.attachments.GetByOwner(dbctx.Context{Ctx: ctx}, strings.TrimSpace(ownerType), strings.TrimSpace(ownerID))
	if err != nil {
		return 0, fmt.Errorf("list attachments: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var removed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.purgeConcurrency)
	for _, row := range rows {
		row := row
		g.Go(func() error {
			if err := s.detach(gctx, row); err != nil {
				return err
			}
			removed.Add(1)
			return nil
		})
	}
	err = g.Wait()
	s.log.Info("Owner attachments purged", "owner_type", ownerType, "owner_id", ownerID, "removed", removed.Load(), "total", len(rows))
	return int(removed.Load()), err
}

func (s *attachmentService) detach(ctx context.Context, row *domain.Attachment) error {
	m := s.mountFor(row)
	if err := m.Remove(ctx); err != nil {
		return apierr.New(http.StatusBadGateway, "remote_destroy_failed", err)
	}
	if err := s.attachments.FullDeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{row.ID}); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	s.log.Debug("Attachment detached", "id", row.ID, "remote_deleted", row.DeleteRemote)
	return nil
}

func (s *attachmentService) load(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	row, err := s.attachments.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load attachment: %w", err)
	}
	if row == nil {
		return nil, apierr.New(http.StatusNotFound, "attachment_not_found", fmt.Errorf("attachment %s not found", id))
	}
	return row, nil
}

// mountFor rebuilds the mount of a persisted row. Rows whose mount was
// removed from the definitions still resolve, without variants.
func (s *attachmentService) mountFor(row *domain.Attachment) *media.Mount {
	def, ok := s.mounts.Lookup(row.MountedAs)
	if !ok {
		def = media.MountDefinition{Name: row.MountedAs}
	}
	m := def.NewMount(s.remote, row.PublicIDOverride, row.DeleteRemote)
	m.Retrieve(row.Identifier)
	return m
}

func (s *attachmentService) view(row *domain.Attachment, m *media.Mount, variant string, opts mediacloud.URLOptions) (*AttachmentView, error) {
	f := m.File()
	v := &AttachmentView{
		ID:               row.ID,
		OwnerType:        row.OwnerType,
		OwnerID:          row.OwnerID,
		MountedAs:        row.MountedAs,
		Identifier:       row.Identifier,
		PublicID:         f.PublicID(),
		FullPublicID:     m.FullPublicID(),
		Version:          m.StoredVersion(),
		Format:           m.Format(),
		Filename:         m.Filename(),
		OriginalFilename: row.OriginalFilename,
		DeleteRemote:     row.DeleteRemote,
		Metadata:         row.Metadata,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if v.OriginalFilename == "" {
		v.OriginalFilename = m.OriginalFilename()
	}

	if variant != "" {
		if _, ok := m.Variant(variant); !ok {
			return nil, apierr.New(http.StatusBadRequest, "unknown_variant", fmt.Errorf("mount %q has no variant %q", row.MountedAs, variant))
		}
	}
	v.URL = m.URLFor(variant, opts)

	for _, mv := range m.Variants() {
		if mv.Name() == "" {
			continue
		}
		if v.Variants == nil {
			v.Variants = map[string]string{}
		}
		v.Variants[mv.Name()] = mv.URL()
	}
	return v, nil
}

func marshalMetadata(meta map[string]any) (datatypes.JSON, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return datatypes.JSON(raw), nil
}
