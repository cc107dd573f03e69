package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-media/internal/data/repos/attachments"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

type AttachmentRepo = attachments.AttachmentRepo

type Repos struct {
	Attachment AttachmentRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Attachment: attachments.NewAttachmentRepo(db, log),
	}
}
