package teams

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
)

// Repository exposes team persistence operations.
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

// Create inserts a new team.
func (r *Repository) Create(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

// FindByID loads a team by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// Update persists the full team row.
func (r *Repository) Update(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Save(team).Error
}

// SetAdmin points the team at a new admin person.
func (r *Repository) SetAdmin(ctx context.Context, teamID, adminID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Team{}).
		Where("id = ?", teamID).
		UpdateColumn("admin_id", adminID).Error
}

// SetActiveStyleContext switches the team's active style context.
func (r *Repository) SetActiveStyleContext(ctx context.Context, teamID uuid.UUID, styleContextID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Team{}).
		Where("id = ?", teamID).
		UpdateColumn("active_style_context_id", styleContextID).Error
}

// SetSeatTier records the purchased tier.
func (r *Repository) SetSeatTier(ctx context.Context, teamID uuid.UUID, tier enums.SeatTier) error {
	return r.db.WithContext(ctx).
		Model(&models.Team{}).
		Where("id = ?", teamID).
		UpdateColumn("seat_tier", tier).Error
}

// SetSubscriptionActive toggles the subscription flag from webhook events.
func (r *Repository) SetSubscriptionActive(ctx context.Context, teamID uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Team{}).
		Where("id = ?", teamID).
		UpdateColumn("subscription_active", active).Error
}
