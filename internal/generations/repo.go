package generations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

// Repository manages Generation rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new generation row.
func (r *Repository) Create(ctx context.Context, generation *models.Generation) error {
	return r.db.WithContext(ctx).Create(generation).Error
}

// FindByID loads a generation by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	var generation models.Generation
	if err := r.db.WithContext(ctx).First(&generation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &generation, nil
}

// ListByPerson returns a cursor page of the person's generations, newest first.
func (r *Repository) ListByPerson(ctx context.Context, personID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Generation, error) {
	query := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Generation
	err := query.Find(&rows).Error
	return rows, err
}

// MarkProcessing transitions a queued generation to processing.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("id = ? AND status = ?", id, enums.GenerationStatusQueued).
		UpdateColumn("status", enums.GenerationStatusProcessing)
	return result.RowsAffected, result.Error
}

// MarkCompleted finishes a generation with its result object keys.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, resultKeys []string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("id = ? AND status IN ?", id, []enums.GenerationStatus{enums.GenerationStatusQueued, enums.GenerationStatusProcessing}).
		Updates(map[string]any{
			"status":       enums.GenerationStatusCompleted,
			"result_keys":  pq.StringArray(resultKeys),
			"completed_at": at,
		})
	return result.RowsAffected, result.Error
}

// MarkFailed finishes a generation with a failure reason.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Generation{}).
		Where("id = ? AND status IN ?", id, []enums.GenerationStatus{enums.GenerationStatusQueued, enums.GenerationStatusProcessing}).
		Updates(map[string]any{
			"status":         enums.GenerationStatusFailed,
			"failure_reason": reason,
			"completed_at":   at,
		})
	return result.RowsAffected, result.Error
}

// ListStuck returns generations still queued or processing past the cutoff.
func (r *Repository) ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]models.Generation, error) {
	var rows []models.Generation
	err := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []enums.GenerationStatus{enums.GenerationStatusQueued, enums.GenerationStatusProcessing}, cutoff).
		Order("created_at").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
