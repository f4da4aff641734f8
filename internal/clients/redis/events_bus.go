package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
)

// Event is one lifecycle notification published to the bus: a job
// reached a terminal status, or a publication got a slot.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// EventsBus fans lifecycle events out to external consumers over redis
// pub/sub. The bus is optional: construction fails fast when REDIS_ADDR
// is unset and callers fall back to the no-op notifier.
type EventsBus interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type eventsBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewEventsBus(log *logger.Logger) (EventsBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "clipcast.events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &eventsBus{
		log:     log.With("client", "RedisEventsBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *eventsBus) Publish(ctx context.Context, event Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis events bus not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *eventsBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
