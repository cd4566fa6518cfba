package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisTracker stores pending conversation state in Redis so intake can run
// with multiple instances behind the webhook. Keys expire after the
// configured TTL, bounding abandoned conversations.
type RedisTracker struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisTracker(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisTracker {
	if client == nil {
		panic("dialogue: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if tracer == nil {
		tracer = otel.Tracer("grievance.internal.dialogue.state")
	}
	return &RedisTracker{
		redis:  client,
		ttl:    ttl,
		tracer: tracer,
	}
}

func (t *RedisTracker) Set(ctx context.Context, sender string, state *ConversationState) error {
	ctx, span := t.tracer.Start(ctx, "dialogue.state.set")
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: failed to marshal state: %w", err)
	}
	if err := t.redis.Set(ctx, stateKey(sender), data, t.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: failed to persist state: %w", err)
	}
	return nil
}

func (t *RedisTracker) Get(ctx context.Context, sender string) (*ConversationState, error) {
	ctx, span := t.tracer.Start(ctx, "dialogue.state.get")
	defer span.End()

	data, err := t.redis.Get(ctx, stateKey(sender)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("dialogue: failed to load state: %w", err)
	}

	var state ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dialogue: failed to decode state: %w", err)
	}
	return &state, nil
}

func (t *RedisTracker) Clear(ctx context.Context, sender string) error {
	ctx, span := t.tracer.Start(ctx, "dialogue.state.clear")
	defer span.End()

	if err := t.redis.Del(ctx, stateKey(sender)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: failed to clear state: %w", err)
	}
	return nil
}

func stateKey(sender string) string {
	return fmt.Sprintf("pending_state:%s", sender)
}
