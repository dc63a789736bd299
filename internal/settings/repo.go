package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
)

// Repository persists admin-tunable app settings.
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

// Upsert writes the value for a key, creating the row if needed.
func (r *Repository) Upsert(ctx context.Context, setting *models.AppSetting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}

func (r *Repository) FindByKey(ctx context.Context, key string) (*models.AppSetting, error) {
	var setting models.AppSetting
	if err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *Repository) List(ctx context.Context) ([]models.AppSetting, error) {
	var rows []models.AppSetting
	if err := r.db.WithContext(ctx).Order("key asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Delete(ctx context.Context, key string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.AppSetting{}, "key = ?", key)
	return result.RowsAffected, result.Error
}
