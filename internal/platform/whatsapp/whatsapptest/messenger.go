// Package whatsapptest provides a recording Messenger for tests.
package whatsapptest

import (
	"context"
	"fmt"
	"sync"

	"seabot/internal/platform/whatsapp"
)

type Kind string

const (
	KindText    Kind = "text"
	KindMention Kind = "mention"
	KindEdit    Kind = "edit"
	KindDelete  Kind = "delete"
	KindImage   Kind = "image"
	KindSticker Kind = "sticker"
)

// Sent is one recorded outbound call.
type Sent struct {
	Kind     Kind
	Key      whatsapp.MessageKey
	Text     string
	Mentions []string
	Data     []byte
	MimeType string
}

type Messenger struct {
	mu   sync.Mutex
	seq  int
	sent []Sent

	// Participants is returned by GroupParticipants.
	Participants map[string][]string
	// Image is returned by DownloadImage for messages carrying an image.
	Image []byte
	// Err, when set, fails every call.
	Err error
}

func New() *Messenger {
	return &Messenger{Participants: make(map[string][]string)}
}

func (m *Messenger) record(s Sent) (whatsapp.MessageKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return whatsapp.MessageKey{}, m.Err
	}
	if s.Key.ID == "" {
		m.seq++
		s.Key.ID = fmt.Sprintf("MSG%d", m.seq)
	}
	m.sent = append(m.sent, s)
	return s.Key, nil
}

func (m *Messenger) SendText(_ context.Context, chat, text string) (whatsapp.MessageKey, error) {
	return m.record(Sent{Kind: KindText, Key: whatsapp.MessageKey{Chat: chat}, Text: text})
}

func (m *Messenger) SendMention(_ context.Context, chat, text string, mentions []string) (whatsapp.MessageKey, error) {
	return m.record(Sent{Kind: KindMention, Key: whatsapp.MessageKey{Chat: chat}, Text: text, Mentions: mentions})
}

func (m *Messenger) EditText(_ context.Context, key whatsapp.MessageKey, text string) error {
	_, err := m.record(Sent{Kind: KindEdit, Key: key, Text: text})
	return err
}

func (m *Messenger) Delete(_ context.Context, key whatsapp.MessageKey) error {
	_, err := m.record(Sent{Kind: KindDelete, Key: key})
	return err
}

func (m *Messenger) SendImage(_ context.Context, chat string, data []byte, mimeType, caption string) (whatsapp.MessageKey, error) {
	return m.record(Sent{Kind: KindImage, Key: whatsapp.MessageKey{Chat: chat}, Text: caption, Data: data, MimeType: mimeType})
}

func (m *Messenger) SendSticker(_ context.Context, chat string, data []byte, mimeType string) (whatsapp.MessageKey, error) {
	return m.record(Sent{Kind: KindSticker, Key: whatsapp.MessageKey{Chat: chat}, Data: data, MimeType: mimeType})
}

func (m *Messenger) GroupParticipants(_ context.Context, chat string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	ids, ok := m.Participants[chat]
	if !ok {
		return nil, fmt.Errorf("group %s not found", chat)
	}
	return ids, nil
}

func (m *Messenger) DownloadImage(_ context.Context, msg whatsapp.Message) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if msg.Image == nil {
		return nil, whatsapp.ErrNoImage
	}
	if m.Image == nil {
		return nil, fmt.Errorf("image not downloadable")
	}
	return m.Image, nil
}

// Sent returns a copy of every recorded call in order.
func (m *Messenger) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}

// Texts returns the text of every recorded call.
func (m *Messenger) Texts() []string {
	var out []string
	for _, s := range m.Sent() {
		out = append(out, s.Text)
	}
	return out
}

func (m *Messenger) Reset() {
	m.mu.Lock()
	m.sent = nil
	m.mu.Unlock()
}

var _ whatsapp.Messenger = (*Messenger)(nil)
