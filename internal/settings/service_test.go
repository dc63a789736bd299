package settings

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

type stubSettingRepo struct {
	rows map[string]*models.AppSetting
}

func newStubSettingRepo() *stubSettingRepo {
	return &stubSettingRepo{rows: map[string]*models.AppSetting{}}
}

func (s *stubSettingRepo) Upsert(ctx context.Context, setting *models.AppSetting) error {
	copy := *setting
	s.rows[setting.Key] = &copy
	return nil
}

func (s *stubSettingRepo) FindByKey(ctx context.Context, key string) (*models.AppSetting, error) {
	row, ok := s.rows[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *row
	return &copy, nil
}

func (s *stubSettingRepo) List(ctx context.Context) ([]models.AppSetting, error) {
	out := make([]models.AppSetting, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *stubSettingRepo) Delete(ctx context.Context, key string) (int64, error) {
	if _, ok := s.rows[key]; !ok {
		return 0, nil
	}
	delete(s.rows, key)
	return 1, nil
}

func TestSetAndGet(t *testing.T) {
	repo := newStubSettingRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	dto, err := svc.Set(context.Background(), SetInput{
		Key:       "generation.provider_timeout",
		Value:     json.RawMessage(`"90s"`),
		UpdatedBy: "ops@teamshots.test",
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if dto.UpdatedBy == nil || *dto.UpdatedBy != "ops@teamshots.test" {
		t.Fatalf("updated_by = %v", dto.UpdatedBy)
	}

	got, err := svc.Get(context.Background(), "generation.provider_timeout")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Value) != `"90s"` {
		t.Fatalf("value = %s", got.Value)
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	svc, _ := NewService(newStubSettingRepo())

	cases := []SetInput{
		{Key: "Bad Key", Value: json.RawMessage(`1`)},
		{Key: "trailing.", Value: json.RawMessage(`1`)},
		{Key: "ok.key", Value: nil},
		{Key: "ok.key", Value: json.RawMessage(`{broken`)},
	}
	for _, input := range cases {
		_, err := svc.Set(context.Background(), input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("input %+v: expected validation error, got %v", input, err)
		}
	}
}

func TestDeleteMissingSetting(t *testing.T) {
	svc, _ := NewService(newStubSettingRepo())

	err := svc.Delete(context.Background(), "never.written")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
