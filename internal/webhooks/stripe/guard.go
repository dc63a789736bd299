package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type webhookStore interface {
	WebhookEventKey(provider, eventID string) string
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// IdempotencyGuard dedupes webhook deliveries by event id. Stripe retries
// deliveries until acknowledged, so a replayed event must not credit twice.
type IdempotencyGuard struct {
	store    webhookStore
	ttl      time.Duration
	provider string
}

func NewIdempotencyGuard(store webhookStore, ttl time.Duration, provider string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("webhook store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	return &IdempotencyGuard{
		store:    store,
		ttl:      ttl,
		provider: provider,
	}, nil
}

// CheckAndMark returns true when the event was already seen. The first caller
// claims the key atomically.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.WebhookEventKey(g.provider, eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook dedupe key: %w", err)
	}
	return !set, nil
}

// Release frees the key so a failed event can be retried by Stripe.
func (g *IdempotencyGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.WebhookEventKey(g.provider, eventID)
	return g.store.Del(ctx, key)
}
