package stripewebhook

import (
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/persons"
	"github.com/teamshotspro/teamshots-backend/internal/teams"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

// GormParams builds ServiceParams over live gorm repositories.
func GormParams(db *gorm.DB, runner txRunner, creditsSvc creditRecorder, emitter outboxEmitter, logg *logger.Logger) ServiceParams {
	teamRepo := teams.NewRepository(db)
	personRepo := persons.NewRepository(db)
	return ServiceParams{
		TxRunner:          runner,
		TeamRepoFactory:   func(tx *gorm.DB) teamRepository { return teamRepo.WithTx(tx) },
		PersonRepoFactory: func(tx *gorm.DB) personRepository { return personRepo.WithTx(tx) },
		Credits:           creditsSvc,
		Outbox:            emitter,
		Logger:            logg,
	}
}
