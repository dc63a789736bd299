package credits

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

// Service records and reads the append-only credit ledger. Ledger writes that
// must be atomic with other state changes run through the *Tx variants on the
// caller's transaction.
type Service interface {
	Balance(ctx context.Context, scope enums.CreditScope, ownerID uuid.UUID) (int, error)
	Record(ctx context.Context, input RecordInput) (*models.CreditTransaction, error)
	RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.CreditTransaction, error)
	TransferTx(ctx context.Context, tx *gorm.DB, input TransferInput) (*TransferResult, error)
	History(ctx context.Context, scope enums.CreditScope, ownerID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data a ledger row requires.
type RecordInput struct {
	Scope       enums.CreditScope
	TeamID      *uuid.UUID
	PersonID    *uuid.UUID
	Type        enums.CreditTxnType
	Amount      int
	ActorUserID uuid.UUID
	Metadata    json.RawMessage
}

// TransferInput describes a team-pool to personal-balance move.
type TransferInput struct {
	TeamID      uuid.UUID
	PersonID    uuid.UUID
	Amount      int
	ActorUserID uuid.UUID
	Metadata    json.RawMessage
}

// TransferResult returns both halves of the paired transfer.
type TransferResult struct {
	Out *models.CreditTransaction
	In  *models.CreditTransaction
}

// HistoryPage is a cursor-paginated slice of ledger rows.
type HistoryPage struct {
	Items      []models.CreditTransaction
	NextCursor string
}

// NewService wires a credits service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("credits repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Balance(ctx context.Context, scope enums.CreditScope, ownerID uuid.UUID) (int, error) {
	if !scope.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid credit scope")
	}
	if ownerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	total, err := s.repo.SumByScope(ctx, scope, ownerID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum ledger")
	}
	return total, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.CreditTransaction, error) {
	return s.record(ctx, s.repo, input)
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.CreditTransaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	return s.record(ctx, s.repo.WithTx(tx), input)
}

func (s *service) record(ctx context.Context, repo Repository, input RecordInput) (*models.CreditTransaction, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	// Debits must never drive the balance below zero. The check runs on the
	// same connection, so inside a transaction it sees uncommitted rows.
	if input.Amount < 0 {
		ownerID := ownerOf(input)
		balance, err := repo.SumByScope(ctx, input.Scope, ownerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check balance")
		}
		if balance+input.Amount < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficient, "insufficient credits").
				WithDetails(map[string]int{"balance": balance, "requested": -input.Amount})
		}
	}

	txn := &models.CreditTransaction{
		Scope:       input.Scope,
		TeamID:      input.TeamID,
		PersonID:    input.PersonID,
		Type:        input.Type,
		Amount:      input.Amount,
		ActorUserID: input.ActorUserID,
		Metadata:    input.Metadata,
	}
	if err := repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert ledger row")
	}
	return txn, nil
}

// TransferTx moves credits from the team pool into a member's personal
// balance as two rows sharing a counterpart id. The pair sums to zero.
func (s *service) TransferTx(ctx context.Context, tx *gorm.DB, input TransferInput) (*TransferResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.TeamID == uuid.Nil || input.PersonID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "team id and person id are required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer amount must be positive")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor user id is required")
	}

	repo := s.repo.WithTx(tx)
	counterpartID := uuid.New()

	teamID := input.TeamID
	personID := input.PersonID
	out := &models.CreditTransaction{
		Scope:         enums.CreditScopeTeam,
		TeamID:        &teamID,
		Type:          enums.CreditTxnTransferOut,
		Amount:        -input.Amount,
		CounterpartID: &counterpartID,
		ActorUserID:   input.ActorUserID,
		Metadata:      input.Metadata,
	}

	balance, err := repo.SumByScope(ctx, enums.CreditScopeTeam, input.TeamID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check team balance")
	}
	if balance < input.Amount {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficient, "team pool has insufficient credits").
			WithDetails(map[string]int{"balance": balance, "requested": input.Amount})
	}

	if err := repo.Create(ctx, out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert transfer_out")
	}

	in := &models.CreditTransaction{
		Scope:         enums.CreditScopePerson,
		PersonID:      &personID,
		Type:          enums.CreditTxnTransferIn,
		Amount:        input.Amount,
		CounterpartID: &counterpartID,
		ActorUserID:   input.ActorUserID,
		Metadata:      input.Metadata,
	}
	if err := repo.Create(ctx, in); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert transfer_in")
	}

	return &TransferResult{Out: out, In: in}, nil
}

func (s *service) History(ctx context.Context, scope enums.CreditScope, ownerID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if !scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid credit scope")
	}
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	rows, err := s.repo.ListByScope(ctx, scope, ownerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list ledger")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &HistoryPage{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func validateRecordInput(input RecordInput) error {
	if !input.Scope.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid credit scope")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid credit txn type %q", input.Type))
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor user id is required")
	}
	if input.Amount == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-zero")
	}
	if input.Type.IsDebit() && input.Amount > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s rows must carry a negative amount", input.Type))
	}
	if !input.Type.IsDebit() && input.Amount < 0 && input.Type != enums.CreditTxnAdjust {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s rows must carry a positive amount", input.Type))
	}

	switch input.Scope {
	case enums.CreditScopeTeam:
		if input.TeamID == nil || *input.TeamID == uuid.Nil || input.PersonID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "team scope requires team_id only")
		}
	case enums.CreditScopePerson:
		if input.PersonID == nil || *input.PersonID == uuid.Nil || input.TeamID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "person scope requires person_id only")
		}
	}
	return nil
}

func ownerOf(input RecordInput) uuid.UUID {
	if input.Scope == enums.CreditScopeTeam && input.TeamID != nil {
		return *input.TeamID
	}
	if input.PersonID != nil {
		return *input.PersonID
	}
	return uuid.Nil
}
