package models

import (
	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/label"
)

// PreparedLabelModel is the GORM model for the prepared_labels table
type PreparedLabelModel struct {
	BaseModel
	RecordID      uuid.UUID           `gorm:"column:record_id;type:uuid;not null;index"`
	ProfileID     string              `gorm:"column:profile_id;type:varchar(50);not null"`
	OutputPath    string              `gorm:"column:output_path;type:text;not null"`
	WidthMM       float64             `gorm:"column:width_mm;not null"`
	HeightMM      float64             `gorm:"column:height_mm;not null"`
	DPI           int                 `gorm:"column:dpi;not null"`
	FooterApplied bool                `gorm:"column:footer_applied;not null;default:false"`
	FooterConfig  *label.FooterConfig `gorm:"column:footer_config;type:text;serializer:json"`
}

// TableName returns the table name for PreparedLabelModel
func (PreparedLabelModel) TableName() string {
	return "prepared_labels"
}

// ToDomain converts PreparedLabelModel to domain PreparedLabel
func (m *PreparedLabelModel) ToDomain() *label.PreparedLabel {
	return &label.PreparedLabel{
		BaseEntity:    m.BaseModel.ToDomain(),
		RecordID:      m.RecordID,
		ProfileID:     label.ProfileID(m.ProfileID),
		OutputPath:    m.OutputPath,
		WidthMM:       m.WidthMM,
		HeightMM:      m.HeightMM,
		DPI:           m.DPI,
		FooterApplied: m.FooterApplied,
		FooterConfig:  m.FooterConfig,
	}
}

// PreparedLabelModelFromDomain creates a PreparedLabelModel from domain PreparedLabel
func PreparedLabelModelFromDomain(l *label.PreparedLabel) *PreparedLabelModel {
	m := &PreparedLabelModel{
		RecordID:      l.RecordID,
		ProfileID:     string(l.ProfileID),
		OutputPath:    l.OutputPath,
		WidthMM:       l.WidthMM,
		HeightMM:      l.HeightMM,
		DPI:           l.DPI,
		FooterApplied: l.FooterApplied,
		FooterConfig:  l.FooterConfig,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}
