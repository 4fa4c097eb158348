package whatsapp

import (
	"context"
	"fmt"
	"os"
	"sync"

	"seabot/internal/common/config"
	"seabot/internal/common/logger"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// Client owns the whatsmeow session and implements Messenger.
type Client struct {
	wa        *whatsmeow.Client
	container *sqlstore.Container
	pairPhone string
	log       zerolog.Logger

	mu          sync.RWMutex
	onMessage   func(Message)
	onConnected func()
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	container, err := sqlstore.New(ctx, cfg.WhatsApp.StoreDialect, cfg.WhatsApp.StoreAddress,
		logger.WhatsApp("Database", cfg.WhatsApp.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open whatsapp store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to load whatsapp device: %w", err)
	}

	c := &Client{
		wa:        whatsmeow.NewClient(device, logger.WhatsApp("Client", cfg.WhatsApp.LogLevel)),
		container: container,
		pairPhone: cfg.WhatsApp.PairingPhone,
		log:       logger.Component("whatsapp"),
	}
	c.wa.AddEventHandler(c.handleEvent)
	return c, nil
}

// OnMessage registers the inbound message callback. It is invoked on the
// whatsmeow event goroutine and must not block.
func (c *Client) OnMessage(fn func(Message)) {
	c.mu.Lock()
	c.onMessage = fn
	c.mu.Unlock()
}

func (c *Client) OnConnected(fn func()) {
	c.mu.Lock()
	c.onConnected = fn
	c.mu.Unlock()
}

func (c *Client) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		msg, ok := FromEvent(v)
		if !ok {
			return
		}
		c.mu.RLock()
		fn := c.onMessage
		c.mu.RUnlock()
		if fn != nil {
			fn(msg)
		}
	case *events.Connected:
		c.log.Info().Msg("Connected to WhatsApp")
		c.mu.RLock()
		fn := c.onConnected
		c.mu.RUnlock()
		if fn != nil {
			go fn()
		}
	case *events.Disconnected:
		c.log.Warn().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		c.log.Error().Str("reason", v.Reason.String()).Msg("Session logged out, pair again")
	case *events.PairSuccess:
		c.log.Info().Str("jid", v.ID.String()).Msg("Device paired")
	}
}

// Connect opens the socket, pairing first when the store has no session.
// With a pairing phone configured a pairing code is logged, otherwise a QR
// code is printed to the terminal.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID != nil {
		return c.wa.Connect()
	}

	qrChan, err := c.wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get qr channel: %w", err)
	}
	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	go func() {
		paired := false
		for evt := range qrChan {
			switch evt.Event {
			case "code":
				if c.pairPhone != "" {
					if paired {
						continue
					}
					code, err := c.wa.PairPhone(ctx, c.pairPhone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
					if err != nil {
						c.log.Error().Err(err).Msg("Failed to request pairing code")
						continue
					}
					paired = true
					c.log.Info().Str("code", code).Msg("Enter this pairing code in WhatsApp > Linked devices")
					continue
				}
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
				c.log.Info().Msg("Scan the QR code above with WhatsApp")
			default:
				c.log.Info().Str("event", evt.Event).Msg("Pairing event")
			}
		}
	}()

	return nil
}

func (c *Client) IsConnected() bool {
	return c.wa.IsConnected()
}

// OwnID is the bot's own phone-number address, empty before pairing.
func (c *Client) OwnID() string {
	if c.wa.Store.ID == nil {
		return ""
	}
	return c.wa.Store.ID.ToNonAD().String()
}

// Disconnect closes the socket so no further events are delivered. The
// session store stays open.
func (c *Client) Disconnect() {
	c.wa.Disconnect()
}

func (c *Client) Close() error {
	c.wa.Disconnect()
	return c.container.Close()
}

func (c *Client) send(ctx context.Context, chat string, msg *waE2E.Message) (MessageKey, error) {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return MessageKey{}, fmt.Errorf("invalid chat %q: %w", chat, err)
	}
	resp, err := c.wa.SendMessage(ctx, jid, msg)
	if err != nil {
		return MessageKey{}, err
	}
	return MessageKey{Chat: chat, ID: resp.ID}, nil
}

func (c *Client) SendText(ctx context.Context, chat, text string) (MessageKey, error) {
	return c.send(ctx, chat, &waE2E.Message{Conversation: proto.String(text)})
}

func (c *Client) SendMention(ctx context.Context, chat, text string, mentions []string) (MessageKey, error) {
	return c.send(ctx, chat, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: &waE2E.ContextInfo{MentionedJID: mentions},
		},
	})
}

func (c *Client) EditText(ctx context.Context, key MessageKey, text string) error {
	jid, err := types.ParseJID(key.Chat)
	if err != nil {
		return fmt.Errorf("invalid chat %q: %w", key.Chat, err)
	}
	_, err = c.wa.SendMessage(ctx, jid, c.wa.BuildEdit(jid, key.ID, &waE2E.Message{Conversation: proto.String(text)}))
	return err
}

func (c *Client) Delete(ctx context.Context, key MessageKey) error {
	jid, err := types.ParseJID(key.Chat)
	if err != nil {
		return fmt.Errorf("invalid chat %q: %w", key.Chat, err)
	}
	_, err = c.wa.SendMessage(ctx, jid, c.wa.BuildRevoke(jid, types.EmptyJID, key.ID))
	return err
}

func (c *Client) SendImage(ctx context.Context, chat string, data []byte, mimeType, caption string) (MessageKey, error) {
	up, err := c.wa.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return MessageKey{}, fmt.Errorf("failed to upload image: %w", err)
	}
	return c.send(ctx, chat, &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		},
	})
}

func (c *Client) SendSticker(ctx context.Context, chat string, data []byte, mimeType string) (MessageKey, error) {
	up, err := c.wa.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return MessageKey{}, fmt.Errorf("failed to upload sticker: %w", err)
	}
	return c.send(ctx, chat, &waE2E.Message{
		StickerMessage: &waE2E.StickerMessage{
			Mimetype:      proto.String(mimeType),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		},
	})
}

func (c *Client) GroupParticipants(ctx context.Context, chat string) ([]string, error) {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return nil, fmt.Errorf("invalid chat %q: %w", chat, err)
	}
	info, err := c.wa.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(info.Participants))
	for _, p := range info.Participants {
		ids = append(ids, p.JID.String())
	}
	return ids, nil
}

func (c *Client) DownloadImage(ctx context.Context, msg Message) ([]byte, error) {
	if msg.Image == nil {
		return nil, ErrNoImage
	}
	data, err := c.wa.Download(ctx, msg.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	return data, nil
}

var _ Messenger = (*Client)(nil)
