package generations

import (
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/persons"
	"github.com/teamshotspro/teamshots-backend/internal/selfies"
	"github.com/teamshotspro/teamshots-backend/internal/teams"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
)

// GormParams builds ServiceParams over live gorm repositories.
func GormParams(
	db *gorm.DB,
	runner txRunner,
	stylesSvc styleResolver,
	creditsSvc creditRecorder,
	emitter outboxEmitter,
	selfieCfg config.SelfieConfig,
) ServiceParams {
	generationRepo := NewRepository(db)
	return ServiceParams{
		TxRunner:              runner,
		GenerationRepoFactory: func(tx *gorm.DB) generationRepository { return generationRepo.WithTx(tx) },
		SelfieRepo:            selfies.NewRepository(db),
		PersonRepo:            persons.NewRepository(db),
		TeamRepo:              teams.NewRepository(db),
		Styles:                stylesSvc,
		Credits:               creditsSvc,
		Outbox:                emitter,
		SelfieLimits:          selfieCfg,
	}
}
