package styles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
)

// Repository manages StyleContext rows.
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

// Create inserts a new style context.
func (r *Repository) Create(ctx context.Context, style *models.StyleContext) error {
	return r.db.WithContext(ctx).Create(style).Error
}

// FindByID loads a style context by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StyleContext, error) {
	var style models.StyleContext
	if err := r.db.WithContext(ctx).First(&style, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &style, nil
}

// ListByTeam returns the team's style contexts, newest first.
func (r *Repository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.StyleContext, error) {
	var rows []models.StyleContext
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListByPerson returns a person's own style contexts, newest first.
func (r *Repository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]models.StyleContext, error) {
	var rows []models.StyleContext
	err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Update persists the full style context row.
func (r *Repository) Update(ctx context.Context, style *models.StyleContext) error {
	return r.db.WithContext(ctx).Save(style).Error
}

// Delete removes a style context.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.StyleContext{}, "id = ?", id).Error
}

// ClearActiveForTeam drops the active flag from every context of the team.
func (r *Repository) ClearActiveForTeam(ctx context.Context, teamID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.StyleContext{}).
		Where("team_id = ?", teamID).
		UpdateColumn("is_active", false).Error
}

// SetActive flips the active flag on one context.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.StyleContext{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}
