package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleReader reads sales and their label attachments
type GormSaleReader struct {
	db *gorm.DB
}

// NewGormSaleReader creates a new GormSaleReader
func NewGormSaleReader(db *gorm.DB) *GormSaleReader {
	return &GormSaleReader{db: db}
}

// FindSale finds a sale by ID
func (r *GormSaleReader) FindSale(ctx context.Context, id uuid.UUID) (*label.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLabelAttachment returns the most recent label attachment of a sale
func (r *GormSaleReader) FindLabelAttachment(ctx context.Context, saleID uuid.UUID) (*label.Attachment, error) {
	var model models.SaleAttachmentModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ? AND purpose = ?", saleID, models.AttachmentPurposeLabel).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// BackfillCarrier sets the carrier of a sale that has none. A sale with a carrier is left untouched.
func (r *GormSaleReader) BackfillCarrier(ctx context.Context, saleID uuid.UUID, carrier string) error {
	if carrier == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND (carrier IS NULL OR carrier = '')", saleID).
		Updates(map[string]any{"carrier": carrier, "updated_at": gorm.Expr("CURRENT_TIMESTAMP")}).Error
}

// CreateSale inserts a sale with its label attachment. Used by seeding and tests;
// sales are otherwise written by the system that owns them.
func (r *GormSaleReader) CreateSale(ctx context.Context, sale *label.Sale, attachment *label.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.SaleModelFromDomain(sale)).Error; err != nil {
			return err
		}
		if attachment == nil {
			return nil
		}
		return tx.Create(models.SaleAttachmentModelFromDomain(attachment)).Error
	})
}

var _ label.SaleReader = (*GormSaleReader)(nil)
