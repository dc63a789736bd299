package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
)

// Keys are dotted lowercase identifiers, e.g. "generation.provider_timeout".
var keyPattern = regexp.MustCompile(`^[a-z0-9_]+(\.[a-z0-9_]+)*$`)

const maxValueBytes = 64 * 1024

// Service exposes app-setting CRUD. Access control (system admin) is enforced
// at the route layer.
type Service interface {
	Get(ctx context.Context, key string) (*SettingDTO, error)
	List(ctx context.Context) ([]SettingDTO, error)
	Set(ctx context.Context, input SetInput) (*SettingDTO, error)
	Delete(ctx context.Context, key string) error
}

// SetInput carries an upsert. UpdatedBy records the admin's email for audit.
type SetInput struct {
	Key       string
	Value     json.RawMessage
	UpdatedBy string
}

type SettingDTO struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedBy *string         `json:"updated_by,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type settingRepository interface {
	Upsert(ctx context.Context, setting *models.AppSetting) error
	FindByKey(ctx context.Context, key string) (*models.AppSetting, error)
	List(ctx context.Context) ([]models.AppSetting, error)
	Delete(ctx context.Context, key string) (int64, error)
}

type service struct {
	repo settingRepository
}

func NewService(repo settingRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, key string) (*SettingDTO, error) {
	setting, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load setting")
	}
	return toDTO(setting), nil
}

func (s *service) List(ctx context.Context) ([]SettingDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list settings")
	}
	out := make([]SettingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Set(ctx context.Context, input SetInput) (*SettingDTO, error) {
	if !keyPattern.MatchString(input.Key) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "setting key must be dotted lowercase identifiers")
	}
	if len(input.Value) == 0 || !json.Valid(input.Value) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "setting value must be valid json")
	}
	if len(input.Value) > maxValueBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "setting value too large")
	}

	setting := &models.AppSetting{
		Key:   input.Key,
		Value: input.Value,
	}
	if input.UpdatedBy != "" {
		by := input.UpdatedBy
		setting.UpdatedBy = &by
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store setting")
	}
	return toDTO(setting), nil
}

func (s *service) Delete(ctx context.Context, key string) error {
	affected, err := s.repo.Delete(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete setting")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")
	}
	return nil
}

func toDTO(setting *models.AppSetting) *SettingDTO {
	return &SettingDTO{
		Key:       setting.Key,
		Value:     setting.Value,
		UpdatedBy: setting.UpdatedBy,
		UpdatedAt: setting.UpdatedAt,
	}
}
