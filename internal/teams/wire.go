package teams

import (
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/invites"
	"github.com/teamshotspro/teamshots-backend/internal/persons"
)

// GormParams builds ServiceParams over live gorm repositories. The factories
// rebind each repository to the transaction the service opens.
func GormParams(db *gorm.DB, runner txRunner, emitter outboxEmitter, returnInviteToken bool) ServiceParams {
	teamRepo := NewRepository(db)
	personRepo := persons.NewRepository(db)
	inviteRepo := invites.NewRepository(db)
	return ServiceParams{
		TxRunner:          runner,
		TeamRepoFactory:   func(tx *gorm.DB) teamRepository { return teamRepo.WithTx(tx) },
		PersonRepoFactory: func(tx *gorm.DB) personRepository { return personRepo.WithTx(tx) },
		InviteRepoFactory: func(tx *gorm.DB) inviteRepository { return inviteRepo.WithTx(tx) },
		Outbox:            emitter,
		ReturnInviteToken: returnInviteToken,
	}
}
