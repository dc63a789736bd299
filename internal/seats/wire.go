package seats

import (
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/invites"
	"github.com/teamshotspro/teamshots-backend/internal/persons"
	"github.com/teamshotspro/teamshots-backend/internal/teams"
)

// GormParams builds ServiceParams over live gorm repositories.
func GormParams(db *gorm.DB, runner txRunner, creditsSvc creditTransferer, emitter outboxEmitter) ServiceParams {
	teamRepo := teams.NewRepository(db)
	personRepo := persons.NewRepository(db)
	inviteRepo := invites.NewRepository(db)
	return ServiceParams{
		TxRunner:          runner,
		TeamRepoFactory:   func(tx *gorm.DB) teamRepository { return teamRepo.WithTx(tx) },
		PersonRepoFactory: func(tx *gorm.DB) personRepository { return personRepo.WithTx(tx) },
		InviteRepoFactory: func(tx *gorm.DB) inviteRepository { return inviteRepo.WithTx(tx) },
		Credits:           creditsSvc,
		Outbox:            emitter,
	}
}
