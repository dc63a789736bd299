package selfies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// Repository manages Selfie rows.
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

// Create inserts a new selfie row.
func (r *Repository) Create(ctx context.Context, selfie *models.Selfie) error {
	return r.db.WithContext(ctx).Create(selfie).Error
}

// FindByID loads a selfie by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Selfie, error) {
	var selfie models.Selfie
	if err := r.db.WithContext(ctx).First(&selfie, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &selfie, nil
}

// ListByPerson returns a person's selfies, newest first.
func (r *Repository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]models.Selfie, error) {
	var rows []models.Selfie
	err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// CountByPerson counts all of a person's selfie rows.
func (r *Repository) CountByPerson(ctx context.Context, personID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Selfie{}).
		Where("person_id = ?", personID).
		Count(&count).Error
	return count, err
}

// CountUploadedByIDs counts how many of the given ids are uploaded selfies
// belonging to the person.
func (r *Repository) CountUploadedByIDs(ctx context.Context, personID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Selfie{}).
		Where("person_id = ? AND status = ? AND id IN ?", personID, enums.SelfieStatusUploaded, ids).
		Count(&count).Error
	return count, err
}

// UpdateStatus transitions a selfie's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SelfieStatus, sizeBytes int64) error {
	updates := map[string]any{"status": status}
	if sizeBytes > 0 {
		updates["size_bytes"] = sizeBytes
	}
	return r.db.WithContext(ctx).
		Model(&models.Selfie{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes a selfie row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Selfie{}, "id = ?", id).Error
}
