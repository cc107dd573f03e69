package db

import (
	"gorm.io/gorm"

	domain "github.com/yungbote/neurobridge-media/internal/domain/media"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Attachment{},
	)
}
