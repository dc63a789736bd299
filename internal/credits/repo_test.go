package credits

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

func setupCreditsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	creditTransactions := `
CREATE TABLE IF NOT EXISTS credit_transactions (
  id TEXT PRIMARY KEY,
  scope TEXT NOT NULL,
  team_id TEXT,
  person_id TEXT,
  type TEXT NOT NULL,
  amount INTEGER NOT NULL,
  counterpart_id TEXT,
  actor_user_id TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(creditTransactions).Error)
	return db
}

func newLedgerRow(t *testing.T, repo Repository, scope enums.CreditScope, ownerID uuid.UUID, amount int, txnType enums.CreditTxnType, createdAt time.Time) *models.CreditTransaction {
	t.Helper()

	txn := &models.CreditTransaction{
		ID:          uuid.New(),
		Scope:       scope,
		Type:        txnType,
		Amount:      amount,
		ActorUserID: uuid.New(),
		CreatedAt:   createdAt,
	}
	if scope == enums.CreditScopeTeam {
		txn.TeamID = &ownerID
	} else {
		txn.PersonID = &ownerID
	}
	require.NoError(t, repo.Create(context.Background(), txn))
	return txn
}

func TestSumByScopeIsolatesPools(t *testing.T) {
	repo := NewRepository(setupCreditsTestDB(t))
	ctx := context.Background()

	teamID := uuid.New()
	personID := uuid.New()
	now := time.Now().UTC()

	newLedgerRow(t, repo, enums.CreditScopeTeam, teamID, 100, enums.CreditTxnPurchase, now)
	newLedgerRow(t, repo, enums.CreditScopeTeam, teamID, -25, enums.CreditTxnTransferOut, now.Add(time.Second))
	newLedgerRow(t, repo, enums.CreditScopePerson, personID, 25, enums.CreditTxnTransferIn, now.Add(time.Second))

	teamBalance, err := repo.SumByScope(ctx, enums.CreditScopeTeam, teamID)
	require.NoError(t, err)
	assert.Equal(t, 75, teamBalance)

	personBalance, err := repo.SumByScope(ctx, enums.CreditScopePerson, personID)
	require.NoError(t, err)
	assert.Equal(t, 25, personBalance)

	// An empty ledger sums to zero, not an error.
	otherBalance, err := repo.SumByScope(ctx, enums.CreditScopePerson, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, otherBalance)
}

func TestListByCounterpartReturnsPairedLegs(t *testing.T) {
	repo := NewRepository(setupCreditsTestDB(t))
	ctx := context.Background()

	teamID := uuid.New()
	personID := uuid.New()
	counterpartID := uuid.New()
	now := time.Now().UTC()

	out := &models.CreditTransaction{
		ID: uuid.New(), Scope: enums.CreditScopeTeam, TeamID: &teamID,
		Type: enums.CreditTxnTransferOut, Amount: -25,
		CounterpartID: &counterpartID, ActorUserID: uuid.New(), CreatedAt: now,
	}
	in := &models.CreditTransaction{
		ID: uuid.New(), Scope: enums.CreditScopePerson, PersonID: &personID,
		Type: enums.CreditTxnTransferIn, Amount: 25,
		CounterpartID: &counterpartID, ActorUserID: uuid.New(), CreatedAt: now.Add(time.Second),
	}
	require.NoError(t, repo.Create(ctx, out))
	require.NoError(t, repo.Create(ctx, in))

	legs, err := repo.ListByCounterpart(ctx, counterpartID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, out.ID, legs[0].ID)
	assert.Equal(t, in.ID, legs[1].ID)
	assert.Zero(t, legs[0].Amount+legs[1].Amount)
}

func TestListByScopePagination(t *testing.T) {
	repo := NewRepository(setupCreditsTestDB(t))
	ctx := context.Background()

	personID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	oldest := newLedgerRow(t, repo, enums.CreditScopePerson, personID, 10, enums.CreditTxnTransferIn, base)
	middle := newLedgerRow(t, repo, enums.CreditScopePerson, personID, -3, enums.CreditTxnConsume, base.Add(time.Minute))
	newest := newLedgerRow(t, repo, enums.CreditScopePerson, personID, -2, enums.CreditTxnConsume, base.Add(2*time.Minute))

	rows, err := repo.ListByScope(ctx, enums.CreditScopePerson, personID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)
	assert.Equal(t, oldest.ID, rows[2].ID)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: rows[0].CreatedAt, ID: rows[0].ID})
	rest, err := repo.ListByScope(ctx, enums.CreditScopePerson, personID, pagination.Params{Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, middle.ID, rest[0].ID)
	assert.Equal(t, oldest.ID, rest[1].ID)
}
