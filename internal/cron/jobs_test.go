package cron

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teamshotspro/teamshots-backend/pkg/db/models"
	"github.com/teamshotspro/teamshots-backend/pkg/enums"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

type fakeInviteDeleter struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeInviteDeleter) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestInviteSweepJob_usesGraceCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	deleter := &fakeInviteDeleter{deleted: 3}
	job, err := NewInviteSweepJob(InviteSweepJobParams{Logger: testLogger(), Invites: deleter})
	if err != nil {
		t.Fatalf("NewInviteSweepJob: %v", err)
	}
	job.(*inviteSweepJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := now.Add(-inviteSweepGrace)
	if !deleter.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", deleter.cutoff, want)
	}
}

type fakeStuckReader struct {
	cutoff time.Time
	rows   []models.Generation
}

func (f *fakeStuckReader) ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]models.Generation, error) {
	f.cutoff = cutoff
	return f.rows, nil
}

type fakeFailer struct {
	failed  []uuid.UUID
	failErr map[uuid.UUID]error
}

func (f *fakeFailer) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	if err := f.failErr[id]; err != nil {
		return err
	}
	f.failed = append(f.failed, id)
	return nil
}

func TestStuckGenerationJob_failsStaleRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.Generation{
		{ID: uuid.New(), Status: enums.GenerationStatusQueued},
		{ID: uuid.New(), Status: enums.GenerationStatusProcessing},
	}
	reader := &fakeStuckReader{rows: rows}
	failer := &fakeFailer{failErr: map[uuid.UUID]error{}}

	job, err := NewStuckGenerationJob(StuckGenerationJobParams{
		Logger:      testLogger(),
		Reader:      reader,
		Generations: failer,
		MaxAge:      2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewStuckGenerationJob: %v", err)
	}
	job.(*stuckGenerationJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reader.cutoff.Equal(now.Add(-2 * time.Hour)) {
		t.Fatalf("cutoff = %s", reader.cutoff)
	}
	if len(failer.failed) != 2 {
		t.Fatalf("failed = %d rows", len(failer.failed))
	}
}

func TestStuckGenerationJob_keepsGoingAfterFailError(t *testing.T) {
	bad := uuid.New()
	good := uuid.New()
	reader := &fakeStuckReader{rows: []models.Generation{{ID: bad}, {ID: good}}}
	failer := &fakeFailer{failErr: map[uuid.UUID]error{bad: fmt.Errorf("boom")}}

	job, err := NewStuckGenerationJob(StuckGenerationJobParams{
		Logger:      testLogger(),
		Reader:      reader,
		Generations: failer,
	})
	if err != nil {
		t.Fatalf("NewStuckGenerationJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected combined error")
	}
	if len(failer.failed) != 1 || failer.failed[0] != good {
		t.Fatalf("failed = %v", failer.failed)
	}
}
