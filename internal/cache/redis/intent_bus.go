package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// DefaultStream is the stream intents are appended to.
const DefaultStream = "tradealgo:intents"

// streamMaxLen is the approximate stream length kept via XADD MAXLEN ~.
const streamMaxLen int64 = 10000

// IntentBus implements domain.IntentBus on a Redis stream. Each entry holds
// the JSON intent under the "payload" field. Every publish is also announced
// on a Pub/Sub channel of the same name for live listeners.
type IntentBus struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// NewIntentBus creates an IntentBus on stream, DefaultStream when empty.
func NewIntentBus(c *Client, stream string) *IntentBus {
	if stream == "" {
		stream = DefaultStream
	}
	return &IntentBus{rdb: c.rdb, stream: stream, maxLen: streamMaxLen}
}

// Stream returns the stream key.
func (b *IntentBus) Stream() string { return b.stream }

// Publish appends intent to the stream and announces its ID.
func (b *IntentBus) Publish(ctx context.Context, intent domain.TradeIntent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("redis: encode intent %s: %w", intent.ID, err)
	}
	args := &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"payload": payload,
		},
	}
	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", b.stream, err)
	}
	if err := b.rdb.Publish(ctx, b.stream, intent.ID).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", b.stream, err)
	}
	return nil
}

// Read returns up to count intents after lastID without blocking, and the ID
// to resume from. Use "0" to read from the beginning.
func (b *IntentBus) Read(ctx context.Context, lastID string, count int64) ([]domain.TradeIntent, string, error) {
	if lastID == "" {
		lastID = "0"
	}
	results, err := b.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{b.stream, lastID},
		Count:   count,
		Block:   -1,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, lastID, nil
	}
	if err != nil {
		return nil, lastID, fmt.Errorf("redis: stream read %s: %w", b.stream, err)
	}
	var msgs []redis.XMessage
	for _, s := range results {
		msgs = append(msgs, s.Messages...)
	}
	return decodeMessages(msgs, lastID)
}

// decodeMessages turns stream entries into intents, skipping entries without
// a payload. The returned ID is the last entry seen.
func decodeMessages(msgs []redis.XMessage, lastID string) ([]domain.TradeIntent, string, error) {
	var out []domain.TradeIntent
	for _, msg := range msgs {
		lastID = msg.ID
		var data []byte
		switch v := msg.Values["payload"].(type) {
		case string:
			data = []byte(v)
		case []byte:
			data = v
		default:
			continue
		}
		var in domain.TradeIntent
		if err := json.Unmarshal(data, &in); err != nil {
			return out, lastID, fmt.Errorf("redis: decode entry %s: %w", msg.ID, err)
		}
		out = append(out, in)
	}
	return out, lastID, nil
}

// Compile-time interface check.
var _ domain.IntentBus = (*IntentBus)(nil)
