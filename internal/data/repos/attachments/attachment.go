package attachments

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/neurobridge-media/internal/domain/media"
	"github.com/yungbote/neurobridge-media/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

type AttachmentRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Attachment) ([]*domain.Attachment, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Attachment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Attachment, error)

	GetByOwner(dbc dbctx.Context, ownerType, ownerID string) ([]*domain.Attachment, error)
	GetByOwnerMount(dbc dbctx.Context, ownerType, ownerID, mountedAs string) (*domain.Attachment, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type attachmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttachmentRepo(db *gorm.DB, baseLog *logger.Logger) AttachmentRepo {
	return &attachmentRepo{db: db, log: baseLog.With("repo", "AttachmentRepo")}
}

func (r *attachmentRepo) Create(dbc dbctx.Context, rows []*domain.Attachment) ([]*domain.Attachment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Attachment{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attachmentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Attachment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Attachment
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attachmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Attachment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *attachmentRepo) GetByOwner(dbc dbctx.Context, ownerType, ownerID string) ([]*domain.Attachment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Attachment
	if strings.TrimSpace(ownerType) == "" || strings.TrimSpace(ownerID) == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("mounted_as ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attachmentRepo) GetByOwnerMount(dbc dbctx.Context, ownerType, ownerID, mountedAs string) (*domain.Attachment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if ownerType == "" || ownerID == "" || mountedAs == "" {
		return nil, nil
	}
	var row domain.Attachment
	err := t.WithContext(dbc.Ctx).
		Where("owner_type = ? AND owner_id = ? AND mounted_as = ?", ownerType, ownerID, mountedAs).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *attachmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&domain.Attachment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *attachmentRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&domain.Attachment{}).Error
}
