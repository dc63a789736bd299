package credits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

// Repository manages persistence for credit ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.CreditTransaction) error
	SumByScope(ctx context.Context, scope enums.CreditScope, ownerID uuid.UUID) (int, error)
	ListByScope(ctx context.Context, scope enums.CreditScope, ownerID uuid.UUID, params pagination.Params) ([]models.CreditTransaction, error)
	ListByCounterpart(ctx context.Context, counterpartID uuid.UUID) ([]models.CreditTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.CreditTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) SumByScope(ctx context.Context, scope enums.CreditScope, ownerID uuid.UUID) (int, error) {
	var total int64
	query := r.db.WithContext(ctx).
		Model(&models.CreditTransaction{}).
		Select("COALESCE(SUM(amount), 0)")
	query = scopeFilter(query, scope, ownerID)
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *repository) ListByScope(ctx context.Context, scope enums.CreditScope, ownerID uuid.UUID, params pagination.Params) ([]models.CreditTransaction, error) {
	query := r.db.WithContext(ctx).Model(&models.CreditTransaction{})
	query = scopeFilter(query, scope, ownerID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.CreditTransaction
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByCounterpart(ctx context.Context, counterpartID uuid.UUID) ([]models.CreditTransaction, error) {
	var rows []models.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("counterpart_id = ?", counterpartID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func scopeFilter(query *gorm.DB, scope enums.CreditScope, ownerID uuid.UUID) *gorm.DB {
	if scope == enums.CreditScopeTeam {
		return query.Where("scope = ? AND team_id = ?", scope, ownerID)
	}
	return query.Where("scope = ? AND person_id = ?", scope, ownerID)
}
