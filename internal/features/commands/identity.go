package commands

import (
	"context"
	"errors"
	"fmt"

	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/user/repository"
	userservice "seabot/internal/features/user/service"
)

type GetLID struct{ base }

func NewGetLID() *GetLID {
	return &GetLID{describe("getlid", "Show your WhatsApp identifiers", models.CategoryUtility, "getlid", 2)}
}

func (g *GetLID) Handle(ctx context.Context, req *commandservice.Request) error {
	msg := req.Message

	chatType := "Private Chat"
	if msg.IsGroup {
		chatType = "Group Chat"
	}
	alt := msg.SenderAlt
	if alt == "" {
		alt = "-"
	}

	text := fmt.Sprintf(`🔍 *LID Information*

📱 *Your JID:* %s
🆔 *Your ID:* %s
🔁 *Alternate JID:* %s
📧 *Chat Type:* %s

*Note:* copy only the number to add it to the owner list if needed.`,
		msg.Sender, userservice.UserPart(msg.Sender), alt, chatType)

	_, err := req.Messenger.SendMention(ctx, msg.Chat, text, []string{msg.Sender})
	return err
}

type LinkJID struct {
	base
	deps Deps
}

func NewLinkJID(deps Deps) *LinkJID {
	b := describe("linkjid", "Link a secondary JID to an existing account", models.CategoryOwner, "linkjid <primary> <secondary>", 2)
	b.desc.OwnerOnly = true
	return &LinkJID{base: b, deps: deps}
}

func (l *LinkJID) Handle(ctx context.Context, req *commandservice.Request) error {
	if len(req.Args) < 2 {
		_, err := req.Reply(ctx, fmt.Sprintf(`❌ Usage: %[1]slinkjid <primary_jid> <secondary_jid>

Example: %[1]slinkjid 6285709557572@s.whatsapp.net 78752604233848@lid

This will link the secondary JID to the primary user account.`, req.Prefix))
		return err
	}

	primary, secondary := req.Args[0], req.Args[1]
	user, err := l.deps.Resolver.Link(ctx, primary, secondary)

	var text string
	switch {
	case err == nil:
		text = fmt.Sprintf("✅ Successfully linked JID %s to %s (%s)\n\nNow both JIDs will use the same user data.",
			secondary, user.DisplayName, user.PrimaryID)
	case errors.Is(err, repository.ErrUserNotFound):
		text = "❌ Primary user not found: " + primary
	case errors.Is(err, userservice.ErrSelfLink):
		text = "❌ Primary and secondary JID are the same."
	case errors.Is(err, userservice.ErrSecondaryIsOwner):
		text = "❌ The secondary JID belongs to an owner account."
	case errors.Is(err, userservice.ErrNotAUser),
		errors.Is(err, userservice.ErrUnsupportedID),
		errors.Is(err, userservice.ErrEmptyIdentifier):
		text = "❌ Invalid JID: " + err.Error()
	default:
		return err
	}

	_, err = req.Reply(ctx, text)
	return err
}
