package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

// Expired never-accepted invites linger for a grace period so admins can see
// who ignored an invite and resend it before the row disappears.
const inviteSweepGrace = 30 * 24 * time.Hour

type staleInviteDeleter interface {
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// InviteSweepJobParams configure the stale invite sweep.
type InviteSweepJobParams struct {
	Logger   *logger.Logger
	Invites  staleInviteDeleter
	Interval time.Duration
}

// NewInviteSweepJob builds the job that purges expired never-accepted invites.
func NewInviteSweepJob(params InviteSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Invites == nil {
		return nil, fmt.Errorf("invites repository required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &inviteSweepJob{
		logg:     params.Logger,
		invites:  params.Invites,
		interval: interval,
		now:      time.Now,
	}, nil
}

type inviteSweepJob struct {
	logg     *logger.Logger
	invites  staleInviteDeleter
	interval time.Duration
	now      func() time.Time
}

func (j *inviteSweepJob) Name() string            { return "invite-sweep" }
func (j *inviteSweepJob) Interval() time.Duration { return j.interval }

func (j *inviteSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-inviteSweepGrace)
	deleted, err := j.invites.DeleteStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete stale invites: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": deleted})
	j.logg.Info(logCtx, "stale invite sweep complete")
	return nil
}
