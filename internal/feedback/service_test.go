package feedback

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/pagination"
)

type stubFeedbackRepo struct {
	rows []models.Feedback
}

func (s *stubFeedbackRepo) Create(ctx context.Context, row *models.Feedback) error {
	row.ID = uuid.New()
	s.rows = append(s.rows, *row)
	return nil
}

func (s *stubFeedbackRepo) ListByPerson(ctx context.Context, personID uuid.UUID, params pagination.Params) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, row := range s.rows {
		if row.PersonID == personID {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestSubmitStoresNormalizedRow(t *testing.T) {
	repo := &stubFeedbackRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	page := "/generations/new"
	dto, err := svc.Submit(context.Background(), SubmitInput{
		PersonID: uuid.New(),
		Category: "  Bug ",
		Message:  "  headshot came back sideways  ",
		Page:     &page,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if dto.Category != "bug" {
		t.Fatalf("category = %q", dto.Category)
	}
	if dto.Message != "headshot came back sideways" {
		t.Fatalf("message = %q", dto.Message)
	}
	if len(repo.rows) != 1 {
		t.Fatal("expected one stored row")
	}
}

func TestSubmitRejections(t *testing.T) {
	svc, _ := NewService(&stubFeedbackRepo{})
	personID := uuid.New()

	cases := []struct {
		name  string
		input SubmitInput
	}{
		{name: "missing person", input: SubmitInput{Category: "bug", Message: "x"}},
		{name: "unknown category", input: SubmitInput{PersonID: personID, Category: "rant", Message: "x"}},
		{name: "blank message", input: SubmitInput{PersonID: personID, Category: "bug", Message: "   "}},
		{name: "oversized message", input: SubmitInput{PersonID: personID, Category: "bug", Message: strings.Repeat("a", maxMessageLen+1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestListOwnScopesToPerson(t *testing.T) {
	repo := &stubFeedbackRepo{}
	svc, _ := NewService(repo)
	mine := uuid.New()

	for _, person := range []uuid.UUID{mine, uuid.New()} {
		_, err := svc.Submit(context.Background(), SubmitInput{
			PersonID: person,
			Category: "other",
			Message:  "note",
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	page, err := svc.ListOwn(context.Background(), mine, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("ListOwn: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d", len(page.Items))
	}
}
