package commands

import (
	"context"
	"fmt"
	"strings"

	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
)

type Hidetag struct{ base }

func NewHidetag() *Hidetag {
	return &Hidetag{describe("hidetag", "Mention every group member with a message", models.CategoryAdmin, "hidetag <text>", 5)}
}

// Handle resends the text mentioning every participant without listing them.
func (h *Hidetag) Handle(ctx context.Context, req *commandservice.Request) error {
	if !req.Message.IsGroup {
		_, err := req.Reply(ctx, "❌ This command can only be used in groups!")
		return err
	}

	text := strings.Join(req.Args, " ")
	if text == "" {
		_, err := req.Reply(ctx, fmt.Sprintf("❌ *Usage:* %shidetag <message>\n\n💡 Every group member is mentioned silently.", req.Prefix))
		return err
	}

	participants, err := req.Messenger.GroupParticipants(ctx, req.Message.Chat)
	if err != nil {
		return fmt.Errorf("failed to get group participants: %w", err)
	}
	if len(participants) == 0 {
		_, err := req.Reply(ctx, "❌ Could not get the group member list!")
		return err
	}

	req.Log.Info().Int("participants", len(participants)).Msg("Hidetag sent")
	_, err = req.Messenger.SendMention(ctx, req.Message.Chat, text, participants)
	return err
}
