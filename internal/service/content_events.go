package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// EventPublisher announces committed content changes. Publishing is
// best-effort and never fails the write that triggered it.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.ContentEvent)
}

// ContentEventBus fans content events out over Redis Pub/Sub so every
// server instance can forward them to its connected admin sockets.
type ContentEventBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewContentEventBus creates a new ContentEventBus.
func NewContentEventBus(rdb *redis.Client, log zerolog.Logger) *ContentEventBus {
	return &ContentEventBus{
		rdb: rdb,
		log: log.With().Str("component", "content_events").Logger(),
	}
}

func (b *ContentEventBus) Publish(ctx context.Context, ev model.ContentEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Error().Err(err).Msg("Marshal content event")
		return
	}
	// Detached from the request so a client disconnect after commit does
	// not drop the notification.
	if err := b.rdb.Publish(context.WithoutCancel(ctx), config.CacheKey.ContentEventsChannel(), payload).Err(); err != nil {
		b.log.Warn().Err(err).
			Str("entity", string(ev.Entity)).
			Int("id", ev.ID).
			Msg("Publish content event failed")
	}
}

// Subscribe streams content events until ctx is cancelled.
func (b *ContentEventBus) Subscribe(ctx context.Context) <-chan model.ContentEvent {
	out := make(chan model.ContentEvent, 16)
	sub := b.rdb.Subscribe(ctx, config.CacheKey.ContentEventsChannel())

	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev model.ContentEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn().Err(err).Msg("Discarding malformed content event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.ContentEvent) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
