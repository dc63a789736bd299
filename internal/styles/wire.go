package styles

import (
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/teams"
)

// GormParams builds ServiceParams over live gorm repositories.
func GormParams(db *gorm.DB, runner txRunner) ServiceParams {
	styleRepo := NewRepository(db)
	teamRepo := teams.NewRepository(db)
	return ServiceParams{
		TxRunner:         runner,
		StyleRepoFactory: func(tx *gorm.DB) styleRepository { return styleRepo.WithTx(tx) },
		TeamRepoFactory:  func(tx *gorm.DB) teamRepository { return teamRepo.WithTx(tx) },
	}
}
