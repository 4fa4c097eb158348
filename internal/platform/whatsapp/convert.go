package whatsapp

import (
	"strings"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
)

// FromEvent converts a whatsmeow message event. Status broadcasts and
// messages without text are skipped.
func FromEvent(evt *events.Message) (Message, bool) {
	if evt == nil || evt.Message == nil {
		return Message{}, false
	}
	if evt.Info.Chat.User == "status" {
		return Message{}, false
	}

	text := Text(evt.Message)
	if text == "" {
		return Message{}, false
	}

	msg := Message{
		ID:        evt.Info.ID,
		Chat:      evt.Info.Chat.ToNonAD().String(),
		Sender:    evt.Info.Sender.String(),
		PushName:  evt.Info.PushName,
		Text:      text,
		IsGroup:   evt.Info.IsGroup,
		IsFromMe:  evt.Info.IsFromMe,
		Timestamp: evt.Info.Timestamp,
		Image:     Image(evt.Message),
	}
	if !evt.Info.SenderAlt.IsEmpty() {
		msg.SenderAlt = evt.Info.SenderAlt.String()
	}
	return msg, true
}

// Text returns the textual body of a message: plain, extended or a media caption.
func Text(m *waE2E.Message) string {
	switch {
	case m.GetConversation() != "":
		return strings.TrimSpace(m.GetConversation())
	case m.GetExtendedTextMessage().GetText() != "":
		return strings.TrimSpace(m.GetExtendedTextMessage().GetText())
	case m.GetImageMessage().GetCaption() != "":
		return strings.TrimSpace(m.GetImageMessage().GetCaption())
	case m.GetVideoMessage().GetCaption() != "":
		return strings.TrimSpace(m.GetVideoMessage().GetCaption())
	}
	return ""
}

// Image returns the message's own image or, for a reply, the quoted image.
func Image(m *waE2E.Message) *waE2E.ImageMessage {
	if img := m.GetImageMessage(); img != nil {
		return img
	}
	return m.GetExtendedTextMessage().GetContextInfo().GetQuotedMessage().GetImageMessage()
}
