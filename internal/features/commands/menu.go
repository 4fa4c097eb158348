package commands

import (
	"context"
	"fmt"
	"strings"

	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
	usermodels "seabot/internal/features/user/models"
)

type Menu struct {
	base
	deps Deps
}

func NewMenu(deps Deps) *Menu {
	return &Menu{
		base: describe("menu", "Show bot menu with available commands", models.CategoryGeneral, "menu", 3),
		deps: deps,
	}
}

func (m *Menu) Handle(ctx context.Context, req *commandservice.Request) error {
	active, err := m.deps.Commands.ListActive(ctx)
	if err != nil {
		return err
	}

	byCategory := make(map[models.Category][]*models.Descriptor)
	for _, d := range active {
		if d.OwnerOnly && req.User.Tier != usermodels.TierOwner {
			continue
		}
		byCategory[d.Category] = append(byCategory[d.Category], d)
	}

	prefix := m.deps.prefix()
	var sb strings.Builder
	fmt.Fprintf(&sb, "🤖 *%s Menu*\n", m.deps.Config.Bot.Name)
	for _, category := range models.Categories {
		list := byCategory[category]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n📋 *%s*\n", strings.ToUpper(string(category)))
		for _, d := range list {
			fmt.Fprintf(&sb, "• %s%s - %s\n", prefix, d.Usage, d.Description)
		}
	}
	fmt.Fprintf(&sb, "\nPrefixes: %s", strings.Join(m.deps.Config.Bot.Prefixes, " "))

	_, err = req.Reply(ctx, sb.String())
	return err
}
