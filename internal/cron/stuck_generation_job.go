package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

const stuckGenerationBatch = 100

type stuckGenerationReader interface {
	ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]models.Generation, error)
}

type generationFailer interface {
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}

// StuckGenerationJobParams configure the stuck generation sweep.
type StuckGenerationJobParams struct {
	Logger      *logger.Logger
	Reader      stuckGenerationReader
	Generations generationFailer
	MaxAge      time.Duration
	Interval    time.Duration
}

// NewStuckGenerationJob builds the job that fails generations the provider
// never reported back on. Failing refunds the charged credits.
func NewStuckGenerationJob(params StuckGenerationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("generation reader required")
	}
	if params.Generations == nil {
		return nil, fmt.Errorf("generations service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = 2 * time.Hour
	}
	interval := params.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &stuckGenerationJob{
		logg:        params.Logger,
		reader:      params.Reader,
		generations: params.Generations,
		maxAge:      maxAge,
		interval:    interval,
		now:         time.Now,
	}, nil
}

type stuckGenerationJob struct {
	logg        *logger.Logger
	reader      stuckGenerationReader
	generations generationFailer
	maxAge      time.Duration
	interval    time.Duration
	now         func() time.Time
}

func (j *stuckGenerationJob) Name() string            { return "stuck-generation-sweep" }
func (j *stuckGenerationJob) Interval() time.Duration { return j.interval }

func (j *stuckGenerationJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	rows, err := j.reader.ListStuck(ctx, cutoff, stuckGenerationBatch)
	if err != nil {
		return fmt.Errorf("list stuck generations: %w", err)
	}

	var errs []error
	failed := 0
	for _, row := range rows {
		if err := j.generations.Fail(ctx, row.ID, "generation timed out"); err != nil {
			errs = append(errs, fmt.Errorf("fail generation %s: %w", row.ID, err))
			continue
		}
		failed++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": failed})
	j.logg.Info(logCtx, "stuck generation sweep complete")
	return multierr.Combine(errs...)
}
