package consumer

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/teamshotspro/teamshots-backend/pkg/errors"
	"github.com/teamshotspro/teamshots-backend/pkg/logger"
)

const (
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// statusMessage is the payload the generation provider publishes on the
// status topic.
type statusMessage struct {
	GenerationID string   `json:"generation_id"`
	Status       string   `json:"status"`
	ResultKeys   []string `json:"result_keys,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

type generationService interface {
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, resultKeys []string) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}

// Consumer applies provider status events to generation rows.
type Consumer struct {
	svc          generationService
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

func NewConsumer(svc generationService, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, errors.New("generation service is required")
	}
	if subscription == nil {
		return nil, errors.New("status subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{svc: svc, subscription: subscription, logg: logg}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.Process(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Process applies one status message. The returned bool is whether the
// message should be acked; malformed or stale messages are acked so the
// subscription does not redeliver them forever.
func (c *Consumer) Process(ctx context.Context, msgID string, data []byte) bool {
	var payload statusMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logg.Error(c.withFields(ctx, msgID, nil), "failed to unmarshal status message", err)
		return true
	}

	generationID, err := uuid.Parse(payload.GenerationID)
	if err != nil {
		c.logg.Error(c.withFields(ctx, msgID, &payload), "invalid generation id", err)
		return true
	}

	logCtx := c.withFields(ctx, msgID, &payload)

	switch payload.Status {
	case statusProcessing:
		err = c.svc.MarkProcessing(ctx, generationID)
	case statusCompleted:
		err = c.svc.Complete(ctx, generationID, payload.ResultKeys)
	case statusFailed:
		reason := payload.Reason
		if reason == "" {
			reason = "provider reported failure"
		}
		err = c.svc.Fail(ctx, generationID, reason)
	default:
		c.logg.Warn(logCtx, "unknown generation status")
		return true
	}

	if err == nil {
		c.logg.Info(logCtx, "generation status applied")
		return true
	}

	// Redeliveries land here once the row has moved on; retrying cannot help.
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeStateConflict, pkgerrors.CodeNotFound, pkgerrors.CodeValidation:
			c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "generation status not applicable")
			return true
		}
	}

	c.logg.Error(logCtx, "failed to apply generation status", err)
	return false
}

func (c *Consumer) withFields(ctx context.Context, msgID string, payload *statusMessage) context.Context {
	fields := map[string]any{"message_id": msgID}
	if payload != nil {
		fields["generation_id"] = payload.GenerationID
		fields["status"] = payload.Status
	}
	return c.logg.WithFields(ctx, fields)
}
