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

// GormPreparedLabelRepository implements PreparedLabelRepository using GORM
type GormPreparedLabelRepository struct {
	db *gorm.DB
}

// NewGormPreparedLabelRepository creates a new GormPreparedLabelRepository
func NewGormPreparedLabelRepository(db *gorm.DB) *GormPreparedLabelRepository {
	return &GormPreparedLabelRepository{db: db}
}

// FindByID finds a label by ID
func (r *GormPreparedLabelRepository) FindByID(ctx context.Context, id uuid.UUID) (*label.PreparedLabel, error) {
	var model models.PreparedLabelModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds labels by IDs in the order of ids. Unknown ids are skipped.
func (r *GormPreparedLabelRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]label.PreparedLabel, error) {
	if len(ids) == 0 {
		return []label.PreparedLabel{}, nil
	}

	var labelModels []models.PreparedLabelModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&labelModels).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.PreparedLabelModel, len(labelModels))
	for i := range labelModels {
		byID[labelModels[i].ID] = &labelModels[i]
	}

	labels := make([]label.PreparedLabel, 0, len(labelModels))
	for _, id := range ids {
		if model, ok := byID[id]; ok {
			labels = append(labels, *model.ToDomain())
		}
	}
	return labels, nil
}

// FindByRecord finds all labels prepared for a record, newest first
func (r *GormPreparedLabelRepository) FindByRecord(ctx context.Context, recordID uuid.UUID) ([]label.PreparedLabel, error) {
	var labelModels []models.PreparedLabelModel
	if err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at DESC").
		Find(&labelModels).Error; err != nil {
		return nil, err
	}

	labels := make([]label.PreparedLabel, len(labelModels))
	for i := range labelModels {
		labels[i] = *labelModels[i].ToDomain()
	}
	return labels, nil
}

// Save inserts a new label. Labels are immutable so an existing id is an error.
func (r *GormPreparedLabelRepository) Save(ctx context.Context, l *label.PreparedLabel) error {
	return r.db.WithContext(ctx).Create(models.PreparedLabelModelFromDomain(l)).Error
}

var _ label.PreparedLabelRepository = (*GormPreparedLabelRepository)(nil)
