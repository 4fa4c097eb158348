package whatsapp

import (
	"context"
	"errors"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
)

// ErrNoImage is returned by DownloadImage when the message carries no image.
var ErrNoImage = errors.New("message has no image")

// Message is an inbound chat message reduced to what command handling needs.
type Message struct {
	ID   string
	Chat string
	// Sender is the participant in groups and the chat itself in direct messages.
	Sender string
	// SenderAlt is the sender's other address (phone number or hidden id) when the server reports it.
	SenderAlt string
	PushName  string
	Text      string
	IsGroup   bool
	IsFromMe  bool
	Timestamp time.Time
	// Image is the attached image, or the quoted one when replying to an image.
	Image *waE2E.ImageMessage
}

// MessageKey addresses a sent message for later edits and deletes.
type MessageKey struct {
	Chat string
	ID   string
}

// Messenger is the outbound side of the transport used by command handlers.
type Messenger interface {
	SendText(ctx context.Context, chat, text string) (MessageKey, error)
	SendMention(ctx context.Context, chat, text string, mentions []string) (MessageKey, error)
	EditText(ctx context.Context, key MessageKey, text string) error
	Delete(ctx context.Context, key MessageKey) error
	SendImage(ctx context.Context, chat string, data []byte, mimeType, caption string) (MessageKey, error)
	SendSticker(ctx context.Context, chat string, data []byte, mimeType string) (MessageKey, error)
	GroupParticipants(ctx context.Context, chat string) ([]string, error)
	DownloadImage(ctx context.Context, msg Message) ([]byte, error)
}
