package feedback

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

// Repository persists user feedback rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, row *models.Feedback) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) ListByPerson(ctx context.Context, personID uuid.UUID, params pagination.Params) ([]models.Feedback, error) {
	query := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("created_at desc, id desc").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Feedback
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
