package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

var allowedCategories = []string{"bug", "feature_request", "quality", "billing", "other"}

const maxMessageLen = 4000

// Service stores and lists user-submitted feedback.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*FeedbackDTO, error)
	ListOwn(ctx context.Context, personID uuid.UUID, params pagination.Params) (*Page, error)
}

type SubmitInput struct {
	PersonID uuid.UUID
	Category string
	Message  string
	Page     *string
}

type FeedbackDTO struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Page      *string   `json:"page,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is a cursor-paginated slice of feedback rows.
type Page struct {
	Items      []FeedbackDTO `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type feedbackRepository interface {
	Create(ctx context.Context, row *models.Feedback) error
	ListByPerson(ctx context.Context, personID uuid.UUID, params pagination.Params) ([]models.Feedback, error)
}

type service struct {
	repo feedbackRepository
}

func NewService(repo feedbackRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("feedback repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*FeedbackDTO, error) {
	if input.PersonID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "person id is required")
	}
	category := strings.TrimSpace(strings.ToLower(input.Category))
	if !validCategory(category) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown feedback category").
			WithDetails(map[string][]string{"allowed": allowedCategories})
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if len(message) > maxMessageLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message too long")
	}

	row := &models.Feedback{
		PersonID: input.PersonID,
		Category: category,
		Message:  message,
		Page:     input.Page,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store feedback")
	}
	return toDTO(row), nil
}

func (s *service) ListOwn(ctx context.Context, personID uuid.UUID, params pagination.Params) (*Page, error) {
	rows, err := s.repo.ListByPerson(ctx, personID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list feedback")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Items: make([]FeedbackDTO, 0, len(rows))}
	trimmed := rows
	if len(rows) > limit {
		trimmed = rows[:limit]
		last := trimmed[len(trimmed)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	for i := range trimmed {
		page.Items = append(page.Items, *toDTO(&trimmed[i]))
	}
	return page, nil
}

func validCategory(category string) bool {
	for _, allowed := range allowedCategories {
		if category == allowed {
			return true
		}
	}
	return false
}

func toDTO(row *models.Feedback) *FeedbackDTO {
	return &FeedbackDTO{
		ID:        row.ID,
		Category:  row.Category,
		Message:   row.Message,
		Page:      row.Page,
		CreatedAt: row.CreatedAt,
	}
}
