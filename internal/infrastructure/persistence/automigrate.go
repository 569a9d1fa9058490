package persistence

import (
	"github.com/labelbridge/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AllModels lists every persisted model in dependency order
func AllModels() []any {
	return []any{
		&models.SaleModel{},
		&models.SaleAttachmentModel{},
		&models.PreparedLabelModel{},
		&models.PrintJobModel{},
		&models.PrintJobItemModel{},
	}
}

// AutoMigrate creates or updates the schema from the gorm models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
