package commands

import (
	"context"
	"fmt"
	"time"

	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
)

type Ping struct{ base }

func NewPing() *Ping {
	return &Ping{describe("ping", "Check bot response time and status", models.CategoryUtility, "ping", 2)}
}

// Handle sends a placeholder and edits it with the time since the command arrived.
func (p *Ping) Handle(ctx context.Context, req *commandservice.Request) error {
	key, err := req.Reply(ctx, "Calculating...")
	if err != nil {
		return err
	}

	elapsed := float64(time.Since(req.Start).Microseconds()) / 1000
	return req.Messenger.EditText(ctx, key, fmt.Sprintf("Pong! %.3fms", elapsed))
}
