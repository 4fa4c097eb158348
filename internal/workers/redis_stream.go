package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"seabot/internal/common/cache"
	"seabot/internal/features/outbox"
	"seabot/internal/platform/redis"
	"seabot/internal/platform/whatsapp"
)

const (
	readBlock    = 5 * time.Second
	errorBackoff = time.Second
	batchSize    = 10
)

// OutboxWorker consumes the outbox stream: queued texts are sent through the
// messenger and invalidations drop the matching cache entries. Entries are
// acknowledged once handled, including ones that failed or could not be decoded.
type OutboxWorker struct {
	rdb       redis.RedisClient
	messenger whatsapp.Messenger
	cache     *cache.CacheService
	consumer  string
	block     time.Duration
	log       zerolog.Logger
}

// NewOutboxWorker builds the consumer. cacheService may be nil.
func NewOutboxWorker(rdb redis.RedisClient, messenger whatsapp.Messenger, cacheService *cache.CacheService, consumer string, log zerolog.Logger) *OutboxWorker {
	return &OutboxWorker{
		rdb:       rdb,
		messenger: messenger,
		cache:     cacheService,
		consumer:  consumer,
		block:     readBlock,
		log:       log,
	}
}

// EnsureGroup creates the stream and consumer group. Entries published before
// the group existed are delivered too.
func (w *OutboxWorker) EnsureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, outbox.StreamKey, outbox.ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Run blocks until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	if err := w.EnsureGroup(ctx); err != nil {
		return err
	}

	w.log.Info().Str("stream", outbox.StreamKey).Str("consumer", w.consumer).Msg("Starting outbox worker")

	for {
		if ctx.Err() != nil {
			w.log.Info().Msg("Stopping outbox worker")
			return nil
		}

		if _, err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Failed to read outbox stream")
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
		}
	}
}

// Poll reads and handles one batch, returning the number of entries handled.
func (w *OutboxWorker) Poll(ctx context.Context) (int, error) {
	streams, err := w.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    outbox.ConsumerGroup,
		Consumer: w.consumer,
		Streams:  []string{outbox.StreamKey, ">"},
		Count:    batchSize,
		Block:    w.block,
	}).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	handled := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			w.process(ctx, msg)
			if err := w.rdb.XAck(ctx, outbox.StreamKey, outbox.ConsumerGroup, msg.ID).Err(); err != nil {
				w.log.Error().Err(err).Str("entry", msg.ID).Msg("Failed to ack outbox entry")
			}
			handled++
		}
	}
	return handled, nil
}

func (w *OutboxWorker) process(ctx context.Context, msg goredis.XMessage) {
	event, err := outbox.Decode(msg.Values)
	if err != nil {
		w.log.Warn().Err(err).Str("entry", msg.ID).Msg("Dropping malformed outbox entry")
		return
	}

	log := w.log.With().Str("entry", msg.ID).Str("event_id", event.ID).Str("type", string(event.Type)).Logger()

	switch event.Type {
	case outbox.EventSendText:
		key, err := w.messenger.SendText(ctx, event.Chat, event.Text)
		if err != nil {
			log.Error().Err(err).Str("chat", event.Chat).Msg("Failed to deliver outbox message")
			return
		}
		log.Info().Str("chat", event.Chat).Str("message_id", key.ID).Msg("Outbox message delivered")

	case outbox.EventInvalidate:
		if w.cache == nil {
			return
		}
		switch event.Target {
		case outbox.TargetCommands:
			err = w.cache.InvalidateCommands(ctx)
		case outbox.TargetStats:
			err = w.cache.InvalidateStats(ctx)
		}
		if err != nil {
			log.Error().Err(err).Str("target", event.Target).Msg("Failed to invalidate cache")
			return
		}
		log.Info().Str("target", event.Target).Msg("Cache invalidated")
	}
}
