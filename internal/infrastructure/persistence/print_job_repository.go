package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPrintJobRepository implements PrintJobRepository using GORM
type GormPrintJobRepository struct {
	db *gorm.DB
}

// NewGormPrintJobRepository creates a new GormPrintJobRepository
func NewGormPrintJobRepository(db *gorm.DB) *GormPrintJobRepository {
	return &GormPrintJobRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

// Create inserts the job and all its items in one transaction
func (r *GormPrintJobRepository) Create(ctx context.Context, job *printing.PrintJob) error {
	model := models.PrintJobModelFromDomain(job)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
}

// FindByID finds a job by ID with its items ordered by position
func (r *GormPrintJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*printing.PrintJob, error) {
	var model models.PrintJobModel
	if err := preloadItems(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent returns the most recently created jobs, newest first
func (r *GormPrintJobRepository) FindRecent(ctx context.Context, limit int) ([]printing.PrintJob, error) {
	var jobModels []models.PrintJobModel
	query := preloadItems(r.db.WithContext(ctx)).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels), nil
}

// FindByStatus returns jobs in the given status, oldest first
func (r *GormPrintJobRepository) FindByStatus(ctx context.Context, status printing.JobStatus) ([]printing.PrintJob, error) {
	var jobModels []models.PrintJobModel
	if err := preloadItems(r.db.WithContext(ctx)).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels), nil
}

// Save updates the job row only
func (r *GormPrintJobRepository) Save(ctx context.Context, job *printing.PrintJob) error {
	return saveJobRow(r.db.WithContext(ctx), models.PrintJobModelFromDomain(job))
}

// SaveItem updates a single item
func (r *GormPrintJobRepository) SaveItem(ctx context.Context, item *printing.PrintJobItem) error {
	return r.db.WithContext(ctx).Save(models.PrintJobItemModelFromDomain(item)).Error
}

// SaveWithItems updates the job and every item in one transaction
func (r *GormPrintJobRepository) SaveWithItems(ctx context.Context, job *printing.PrintJob) error {
	model := models.PrintJobModelFromDomain(job)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveJobRow(tx, model); err != nil {
			return err
		}
		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a job and its items
func (r *GormPrintJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.PrintJobItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.PrintJobModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func saveJobRow(db *gorm.DB, model *models.PrintJobModel) error {
	result := db.Model(model).Select("*").Omit("Items", "CreatedAt").Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainJobs(jobModels []models.PrintJobModel) []printing.PrintJob {
	jobs := make([]printing.PrintJob, len(jobModels))
	for i := range jobModels {
		jobs[i] = *jobModels[i].ToDomain()
	}
	return jobs
}

var _ printing.PrintJobRepository = (*GormPrintJobRepository)(nil)
