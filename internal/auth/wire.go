package auth

import (
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/internal/persons"
	"github.com/teamshotspro/teamshots-backend/internal/teams"
	"github.com/teamshotspro/teamshots-backend/internal/users"
	"github.com/teamshotspro/teamshots-backend/pkg/config"
)

// GormParams builds ServiceParams over live gorm repositories.
func GormParams(db *gorm.DB, runner txRunner, sessions sessionManager, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) ServiceParams {
	personRepo := persons.NewRepository(db)
	teamRepo := teams.NewRepository(db)
	return ServiceParams{
		TxRunner:          runner,
		UserRepo:          users.NewRepository(db),
		PersonRepoFactory: func(tx *gorm.DB) personRepository { return personRepo.WithTx(tx) },
		TeamRepoFactory:   func(tx *gorm.DB) teamRepository { return teamRepo.WithTx(tx) },
		Sessions:          sessions,
		JWT:               jwtCfg,
		Password:          pwCfg,
	}
}
