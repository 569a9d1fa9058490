package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/label"
)

// AttachmentPurposeLabel marks the attachment holding the shipping label
const AttachmentPurposeLabel = "label"

// SaleModel is the GORM model for the sales table
type SaleModel struct {
	BaseModel
	ProductNumber string    `gorm:"column:product_number;type:varchar(100)"`
	Title         string    `gorm:"type:varchar(500)"`
	SoldAt        time.Time `gorm:"column:sold_at;not null"`
	Carrier       string    `gorm:"type:varchar(100)"`
	Marketplace   string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for SaleModel
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts SaleModel to domain Sale
func (m *SaleModel) ToDomain() *label.Sale {
	return &label.Sale{
		ID:            m.ID,
		ProductNumber: m.ProductNumber,
		Title:         m.Title,
		SoldAt:        m.SoldAt,
		Carrier:       m.Carrier,
		Marketplace:   m.Marketplace,
	}
}

// SaleModelFromDomain creates a SaleModel from domain Sale
func SaleModelFromDomain(s *label.Sale) *SaleModel {
	now := time.Now().UTC()
	return &SaleModel{
		BaseModel:     BaseModel{ID: s.ID, CreatedAt: now, UpdatedAt: now},
		ProductNumber: s.ProductNumber,
		Title:         s.Title,
		SoldAt:        s.SoldAt,
		Carrier:       s.Carrier,
		Marketplace:   s.Marketplace,
	}
}

// SaleAttachmentModel is the GORM model for the sale_attachments table
type SaleAttachmentModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SaleID    uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	Purpose   string    `gorm:"type:varchar(20);not null;default:'label'"`
	Path      string    `gorm:"type:text;not null"`
	Filename  string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for SaleAttachmentModel
func (SaleAttachmentModel) TableName() string {
	return "sale_attachments"
}

// ToDomain converts SaleAttachmentModel to domain Attachment
func (m *SaleAttachmentModel) ToDomain() *label.Attachment {
	return &label.Attachment{
		ID:        m.ID,
		SaleID:    m.SaleID,
		Path:      m.Path,
		Filename:  m.Filename,
		CreatedAt: m.CreatedAt,
	}
}

// SaleAttachmentModelFromDomain creates a label attachment model from domain Attachment
func SaleAttachmentModelFromDomain(a *label.Attachment) *SaleAttachmentModel {
	return &SaleAttachmentModel{
		ID:        a.ID,
		SaleID:    a.SaleID,
		Purpose:   AttachmentPurposeLabel,
		Path:      a.Path,
		Filename:  a.Filename,
		CreatedAt: a.CreatedAt,
	}
}
