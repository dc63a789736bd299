package persons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
)

// Repository exposes person persistence operations.
type Repository struct {
	db *gorm.DB
}

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

// Create inserts a new person row.
func (r *Repository) Create(ctx context.Context, person *models.Person) error {
	return r.db.WithContext(ctx).Create(person).Error
}

// FindByID loads a person by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).First(&person, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

// FindByUserID loads the person profile belonging to a user.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).First(&person, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

// SetTeamID moves the person onto (or off of, with nil) a team.
func (r *Repository) SetTeamID(ctx context.Context, personID uuid.UUID, teamID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Person{}).
		Where("id = ?", personID).
		UpdateColumn("team_id", teamID).Error
}

// MemberRow joins a person with their user identity for team member listings.
type MemberRow struct {
	models.Person
	Email     string `gorm:"column:email"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
}

// ListTeamMembers returns the persons on a team along with user metadata.
func (r *Repository) ListTeamMembers(ctx context.Context, teamID uuid.UUID) ([]MemberRow, error) {
	var rows []MemberRow
	err := r.db.WithContext(ctx).
		Model(&models.Person{}).
		Select("persons.*, users.email, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = persons.user_id").
		Where("persons.team_id = ?", teamID).
		Order("persons.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateAvatar sets the person's avatar selfie reference.
func (r *Repository) UpdateAvatar(ctx context.Context, personID uuid.UUID, selfieID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Person{}).
		Where("id = ?", personID).
		UpdateColumn("avatar_selfie_id", selfieID).Error
}
