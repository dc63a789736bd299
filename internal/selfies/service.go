package selfies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamshotspro/teamshots-backend/pkg/config"
	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Service owns the selfie upload lifecycle: presign, confirm, list, delete.
type Service interface {
	PresignUpload(ctx context.Context, personID uuid.UUID, input PresignInput) (*PresignResult, error)
	ConfirmUpload(ctx context.Context, personID, selfieID uuid.UUID, sizeBytes int64) (*SelfieDTO, error)
	List(ctx context.Context, personID uuid.UUID) ([]SelfieDTO, error)
	Delete(ctx context.Context, personID, selfieID uuid.UUID) error
}

// PresignInput requests an upload slot.
type PresignInput struct {
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"required,gt=0"`
}

// PresignResult carries the signed PUT URL and the pending selfie row.
type PresignResult struct {
	Selfie    *SelfieDTO `json:"selfie"`
	UploadURL string     `json:"upload_url"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// SelfieDTO is the transport shape. DownloadURL is only set on list responses.
type SelfieDTO struct {
	ID          uuid.UUID          `json:"id"`
	PersonID    uuid.UUID          `json:"person_id"`
	ObjectKey   string             `json:"object_key"`
	ContentType string             `json:"content_type"`
	SizeBytes   int64              `json:"size_bytes"`
	Status      enums.SelfieStatus `json:"status"`
	DownloadURL string             `json:"download_url,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type selfieRepository interface {
	Create(ctx context.Context, selfie *models.Selfie) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Selfie, error)
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]models.Selfie, error)
	CountByPerson(ctx context.Context, personID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SelfieStatus, sizeBytes int64) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type objectStore interface {
	DefaultBucket() string
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// ServiceParams bundles selfie service dependencies.
type ServiceParams struct {
	Repo   selfieRepository
	Store  objectStore
	GCS    config.GCSConfig
	Limits config.SelfieConfig
	Logger *logger.Logger
}

type service struct {
	repo   selfieRepository
	store  objectStore
	gcs    config.GCSConfig
	limits config.SelfieConfig
	logg   *logger.Logger
}

// NewService builds the selfies service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("selfie repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	return &service{
		repo:   params.Repo,
		store:  params.Store,
		gcs:    params.GCS,
		limits: params.Limits,
		logg:   params.Logger,
	}, nil
}

func (s *service) PresignUpload(ctx context.Context, personID uuid.UUID, input PresignInput) (*PresignResult, error) {
	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported content type").
			WithDetails(map[string]any{"content_type": contentType})
	}

	maxBytes := int64(s.limits.MaxUploadMB) * 1024 * 1024
	if maxBytes > 0 && input.SizeBytes > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file too large").
			WithDetails(map[string]int64{"size_bytes": input.SizeBytes, "max_bytes": maxBytes})
	}

	if s.limits.MaxPerPerson > 0 {
		count, err := s.repo.CountByPerson(ctx, personID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count selfies")
		}
		if count >= int64(s.limits.MaxPerPerson) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "selfie limit reached")
		}
	}

	selfie := &models.Selfie{
		PersonID:    personID,
		ObjectKey:   fmt.Sprintf("selfies/%s/%s%s", personID, uuid.NewString(), ext),
		ContentType: contentType,
		SizeBytes:   input.SizeBytes,
		Status:      enums.SelfieStatusPending,
	}
	if err := s.repo.Create(ctx, selfie); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create selfie")
	}

	uploadURL, err := s.store.SignedURL(s.store.DefaultBucket(), selfie.ObjectKey, contentType, s.gcs.UploadURLExpiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignResult{
		Selfie:    fromModel(selfie),
		UploadURL: uploadURL,
		ExpiresAt: time.Now().UTC().Add(s.gcs.UploadURLExpiry),
	}, nil
}

func (s *service) ConfirmUpload(ctx context.Context, personID, selfieID uuid.UUID, sizeBytes int64) (*SelfieDTO, error) {
	selfie, err := s.loadOwned(ctx, personID, selfieID)
	if err != nil {
		return nil, err
	}
	if selfie.Status == enums.SelfieStatusUploaded {
		return fromModel(selfie), nil
	}
	if selfie.Status == enums.SelfieStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "selfie was rejected")
	}

	if err := s.repo.UpdateStatus(ctx, selfieID, enums.SelfieStatusUploaded, sizeBytes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm upload")
	}
	selfie.Status = enums.SelfieStatusUploaded
	if sizeBytes > 0 {
		selfie.SizeBytes = sizeBytes
	}
	return fromModel(selfie), nil
}

func (s *service) List(ctx context.Context, personID uuid.UUID) ([]SelfieDTO, error) {
	rows, err := s.repo.ListByPerson(ctx, personID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list selfies")
	}

	out := make([]SelfieDTO, 0, len(rows))
	for i := range rows {
		dto := fromModel(&rows[i])
		if rows[i].Status == enums.SelfieStatusUploaded {
			url, err := s.store.SignedReadURL(s.store.DefaultBucket(), rows[i].ObjectKey, s.gcs.DownloadURLExpiry)
			if err != nil {
				// A broken signer should not hide the listing itself.
				if s.logg != nil {
					s.logg.Warn(ctx, "sign download url failed: "+err.Error())
				}
			} else {
				dto.DownloadURL = url
			}
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, personID, selfieID uuid.UUID) error {
	selfie, err := s.loadOwned(ctx, personID, selfieID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteObject(ctx, s.store.DefaultBucket(), selfie.ObjectKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object")
	}
	if err := s.repo.Delete(ctx, selfieID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete selfie")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, personID, selfieID uuid.UUID) (*models.Selfie, error) {
	selfie, err := s.repo.FindByID(ctx, selfieID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "selfie not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load selfie")
	}
	if selfie.PersonID != personID {
		// Hide other people's objects entirely.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "selfie not found")
	}
	return selfie, nil
}

func fromModel(m *models.Selfie) *SelfieDTO {
	return &SelfieDTO{
		ID:          m.ID,
		PersonID:    m.PersonID,
		ObjectKey:   m.ObjectKey,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
	}
}
