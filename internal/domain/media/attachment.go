package media

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Attachment is an owner record's persisted mount column: the identifier of
// the remote asset plus the per-record upload policy.
type Attachment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// Ownership (polymorphic)
	OwnerType string `gorm:"column:owner_type;not null;index:idx_attachment_owner,priority:1;uniqueIndex:idx_attachment_owner_mount,priority:1" json:"owner_type"`
	OwnerID   string `gorm:"column:owner_id;not null;index:idx_attachment_owner,priority:2;uniqueIndex:idx_attachment_owner_mount,priority:2" json:"owner_id"`
	MountedAs string `gorm:"column:mounted_as;not null;uniqueIndex:idx_attachment_owner_mount,priority:3" json:"mounted_as"`

	// Identifier is "[v<version>/]<public_id>[.<format>]".
	Identifier       string `gorm:"column:identifier;not null;index" json:"identifier"`
	OriginalFilename string `gorm:"column:original_filename" json:"original_filename,omitempty"`
	PublicIDOverride string `gorm:"column:public_id_override" json:"public_id_override,omitempty"`
	// No gorm default here: a default:true would swallow explicit false on insert.
	DeleteRemote bool `gorm:"column:delete_remote;not null" json:"delete_remote"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Attachment) TableName() string { return "media_attachment" }

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
