package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/printing"
)

// PrintJobModel is the GORM model for the print_jobs table
type PrintJobModel struct {
	AggregateModel
	PrinterName  string              `gorm:"column:printer_name;type:varchar(255);not null"`
	Status       string              `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PrintedCount int                 `gorm:"column:printed_count;not null;default:0"`
	TotalCount   int                 `gorm:"column:total_count;not null"`
	Errors       []string            `gorm:"type:text;serializer:json"`
	QuotaCharged bool                `gorm:"column:quota_charged;not null;default:false"`
	Items        []PrintJobItemModel `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for PrintJobModel
func (PrintJobModel) TableName() string {
	return "print_jobs"
}

// ToDomain converts PrintJobModel to domain PrintJob
func (m *PrintJobModel) ToDomain() *printing.PrintJob {
	job := &printing.PrintJob{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PrinterName:       m.PrinterName,
		Status:            printing.JobStatus(m.Status),
		PrintedCount:      m.PrintedCount,
		TotalCount:        m.TotalCount,
		Errors:            m.Errors,
		QuotaCharged:      m.QuotaCharged,
		Items:             make([]printing.PrintJobItem, len(m.Items)),
	}
	for i := range m.Items {
		job.Items[i] = *m.Items[i].ToDomain()
	}
	return job
}

// PrintJobModelFromDomain creates a PrintJobModel with its items from domain PrintJob
func PrintJobModelFromDomain(j *printing.PrintJob) *PrintJobModel {
	m := &PrintJobModel{
		PrinterName:  j.PrinterName,
		Status:       string(j.Status),
		PrintedCount: j.PrintedCount,
		TotalCount:   j.TotalCount,
		Errors:       j.Errors,
		QuotaCharged: j.QuotaCharged,
		Items:        make([]PrintJobItemModel, len(j.Items)),
	}
	m.FromDomainAggregateRoot(j.BaseAggregateRoot)
	for i := range j.Items {
		m.Items[i] = *PrintJobItemModelFromDomain(&j.Items[i])
	}
	return m
}

// PrintJobItemModel is the GORM model for the print_job_items table
type PrintJobItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobID     uuid.UUID `gorm:"column:job_id;type:uuid;not null;index"`
	LabelID   uuid.UUID `gorm:"column:label_id;type:uuid;not null"`
	Position  int       `gorm:"not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Error     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for PrintJobItemModel
func (PrintJobItemModel) TableName() string {
	return "print_job_items"
}

// ToDomain converts PrintJobItemModel to domain PrintJobItem
func (m *PrintJobItemModel) ToDomain() *printing.PrintJobItem {
	return &printing.PrintJobItem{
		ID:        m.ID,
		JobID:     m.JobID,
		LabelID:   m.LabelID,
		Position:  m.Position,
		Status:    printing.ItemStatus(m.Status),
		Error:     m.Error,
		UpdatedAt: m.UpdatedAt,
	}
}

// PrintJobItemModelFromDomain creates a PrintJobItemModel from domain PrintJobItem
func PrintJobItemModelFromDomain(i *printing.PrintJobItem) *PrintJobItemModel {
	return &PrintJobItemModel{
		ID:        i.ID,
		JobID:     i.JobID,
		LabelID:   i.LabelID,
		Position:  i.Position,
		Status:    string(i.Status),
		Error:     i.Error,
		UpdatedAt: i.UpdatedAt,
	}
}
