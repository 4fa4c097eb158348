// Package outbox queues work for the bot process on a Redis stream. The
// dashboard publishes, workers.OutboxWorker consumes.
package outbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/validation"
	"seabot/internal/platform/redis"
)

const (
	StreamKey     = "seabot:outbox"
	ConsumerGroup = "seabot_bot"

	maxStreamLen = 10000
)

type EventType string

const (
	EventSendText   EventType = "send_text"
	EventInvalidate EventType = "invalidate"
)

// Invalidation targets for EventInvalidate.
const (
	TargetCommands = "commands"
	TargetStats    = "stats"
)

// Event is one stream entry. Chat and Text are set for send_text, Target for invalidate.
type Event struct {
	ID        string    `json:"id" example:"7f1c0a4e-8d0b-4a8e-9a57-0d1f3c9b2e11"`
	Type      EventType `json:"type" example:"send_text" enums:"send_text,invalidate"`
	Chat      string    `json:"chat,omitempty" example:"6281234567890@s.whatsapp.net"`
	Text      string    `json:"text,omitempty" example:"Maintenance tonight at 22:00"`
	Target    string    `json:"target,omitempty" example:"commands"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Event) Validate() error {
	switch e.Type {
	case EventSendText:
		if !strings.Contains(e.Chat, "@") {
			return apperrors.NewValidationError("chat", "must be a full address such as 628123@s.whatsapp.net or 1203@g.us")
		}
		if err := validation.ValidateMessageText(e.Text); err != nil {
			return apperrors.NewValidationError("text", err.Error())
		}
	case EventInvalidate:
		if e.Target != TargetCommands && e.Target != TargetStats {
			return apperrors.NewValidationError("target", "must be commands or stats")
		}
	default:
		return apperrors.NewValidationError("type", "must be send_text or invalidate")
	}
	return nil
}

func (e Event) values() map[string]interface{} {
	return map[string]interface{}{
		"id":         e.ID,
		"type":       string(e.Type),
		"chat":       e.Chat,
		"text":       e.Text,
		"target":     e.Target,
		"created_at": e.CreatedAt.Format(time.RFC3339Nano),
	}
}

// Decode reads an event back from stream values.
func Decode(values map[string]interface{}) (Event, error) {
	str := func(k string) string {
		s, _ := values[k].(string)
		return s
	}

	e := Event{
		ID:     str("id"),
		Type:   EventType(str("type")),
		Chat:   str("chat"),
		Text:   str("text"),
		Target: str("target"),
	}
	if ts := str("created_at"); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Event{}, fmt.Errorf("invalid created_at %q: %w", ts, err)
		}
		e.CreatedAt = t
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

type Publisher struct {
	client redis.RedisClient
}

func NewPublisher(client redis.RedisClient) *Publisher {
	return &Publisher{client: client}
}

// Publish validates e, assigns its id and timestamp and appends it to the stream.
func (p *Publisher) Publish(ctx context.Context, e Event) (Event, error) {
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: StreamKey,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: e.values(),
	}).Err()
	if err != nil {
		return Event{}, apperrors.NewCacheError("publish outbox event", err)
	}
	return e, nil
}
