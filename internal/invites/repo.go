package invites

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
)

// Repository manages TeamInvite rows. Invites double as seat records:
// used_at set marks a consumed seat, a past expires_at marks revocation.
// The acceptance TTL applies to pending rows only; Accept replaces it with
// OpenEndedExpiry so an occupied seat can only be revoked explicitly.
type Repository struct {
	db *gorm.DB
}

// OpenEndedExpiry is stamped on accepted invites in place of the acceptance
// TTL. From then on only Revoke past-dates the row.
var OpenEndedExpiry = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new invite row.
func (r *Repository) Create(ctx context.Context, invite *models.TeamInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

// FindByToken loads an invite by its unique token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.TeamInvite, error) {
	var invite models.TeamInvite
	if err := r.db.WithContext(ctx).First(&invite, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindByID loads an invite by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TeamInvite, error) {
	var invite models.TeamInvite
	if err := r.db.WithContext(ctx).First(&invite, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindByTeamAndPerson returns the invite row linking the person to the team.
func (r *Repository) FindByTeamAndPerson(ctx context.Context, teamID, personID uuid.UUID) (*models.TeamInvite, error) {
	var invite models.TeamInvite
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND person_id = ?", teamID, personID).
		Order("created_at DESC").
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindPendingByTeamAndEmail returns an unaccepted, unexpired invite for the email.
func (r *Repository) FindPendingByTeamAndEmail(ctx context.Context, teamID uuid.UUID, email string, now time.Time) (*models.TeamInvite, error) {
	var invite models.TeamInvite
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND email = ? AND person_id IS NULL AND expires_at > ?", teamID, email, now).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// CountConsumedSeats counts invites representing occupied seats: consumed and
// not revoked.
func (r *Repository) CountConsumedSeats(ctx context.Context, teamID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TeamInvite{}).
		Where("team_id = ? AND used_at IS NOT NULL AND expires_at > ?", teamID, now).
		Count(&count).Error
	return count, err
}

// HasConsumedSeat reports whether the person already holds a live seat on the team.
func (r *Repository) HasConsumedSeat(ctx context.Context, teamID, personID uuid.UUID, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TeamInvite{}).
		Where("team_id = ? AND person_id = ? AND used_at IS NOT NULL AND expires_at > ?", teamID, personID, now).
		Count(&count).Error
	return count > 0, err
}

// Accept links the invite to the accepting person and clears the acceptance
// window. Without the expiry bump the seat would silently fall out of the
// capacity count once the original TTL lapsed.
func (r *Repository) Accept(ctx context.Context, id, personID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TeamInvite{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"person_id":  personID,
			"expires_at": OpenEndedExpiry,
		}).Error
}

// MarkUsed consumes the seat.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.TeamInvite{}).
		Where("id = ?", id).
		UpdateColumn("used_at", at).Error
}

// Revoke soft-deletes the invite by past-dating its expiry. The row survives
// so the seat can be reactivated later.
func (r *Repository) Revoke(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.TeamInvite{}).
		Where("id = ?", id).
		UpdateColumn("expires_at", now.Add(-time.Second)).Error
}

// Reactivate issues a fresh expiry on the same row.
func (r *Repository) Reactivate(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.TeamInvite{}).
		Where("id = ?", id).
		UpdateColumn("expires_at", expiresAt).Error
}

// ListByTeam returns every invite row for the team, newest first.
func (r *Repository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.TeamInvite, error) {
	var rows []models.TeamInvite
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// DeleteStalePending removes invites that were never accepted and expired
// before the cutoff. Accepted rows are kept for seat reactivation; only
// dead pending invites are swept.
func (r *Repository) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("person_id IS NULL AND used_at IS NULL AND expires_at < ?", cutoff).
		Delete(&models.TeamInvite{})
	return result.RowsAffected, result.Error
}
