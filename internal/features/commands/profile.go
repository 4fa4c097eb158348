package commands

import (
	"context"
	"fmt"

	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
	userservice "seabot/internal/features/user/service"
)

type Profile struct {
	base
	deps Deps
}

func NewProfile(deps Deps) *Profile {
	return &Profile{
		base: describe("profile", "Show your account information", models.CategoryGeneral, "profile", 3),
		deps: deps,
	}
}

func (p *Profile) Handle(ctx context.Context, req *commandservice.Request) error {
	user := req.User
	sender := req.Message.Sender

	text := fmt.Sprintf(`┌─「 User Info 」
│ • Username: %s
│ • Tag: @%s
│ • Status: %s
│ • Limit: %s
│ • Balance: %d
│ • Bonus: %d
│ • Member since: %s
└──────────────────────`,
		user.DisplayName,
		userservice.UserPart(sender),
		user.Tier,
		p.deps.Ledger.Info(user),
		user.Balance,
		user.BonusCredits,
		user.CreatedAt.Format("02/01/2006"),
	)

	_, err := req.Messenger.SendMention(ctx, req.Message.Chat, text, []string{sender})
	return err
}

type Limit struct {
	base
	deps Deps
}

func NewLimit(deps Deps) *Limit {
	return &Limit{
		base: describe("limit", "Show your remaining daily limit", models.CategoryGeneral, "limit", 2),
		deps: deps,
	}
}

func (l *Limit) Handle(ctx context.Context, req *commandservice.Request) error {
	info := l.deps.Ledger.Info(req.User)

	var text string
	if info.Unlimited {
		text = "♾️ Your account has no daily limit."
	} else {
		text = fmt.Sprintf("📊 Daily limit: %d/%d remaining (%d used).\nLimits reset every day at midnight.",
			info.Remaining, info.Total, info.Used)
	}

	_, err := req.Reply(ctx, text)
	return err
}
