// Package bot turns inbound chat messages into command executions.
package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"seabot/internal/common/clock"
	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/metrics"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/gate"
	"seabot/internal/features/user/models"
	"seabot/internal/features/user/repository"
	userservice "seabot/internal/features/user/service"
	"seabot/internal/platform/whatsapp"

	"github.com/rs/zerolog"
)

const (
	cooldownNotice  = "⏱️ Please wait before using another command!"
	quotaNotice     = "❌ You have reached your daily limit! Try again tomorrow."
	ownerOnlyNotice = "❌ Only owner can use this command!"
)

type Deps struct {
	Prefixes   []string
	Users      repository.UserRepository
	Resolver   *userservice.Resolver
	Ledger     *userservice.Ledger
	Gate       *gate.Gate
	Registry   *commandservice.Registry
	Commands   commandservice.CommandService
	Dispatcher *commandservice.Dispatcher
	Messenger  whatsapp.Messenger
	Clock      clock.Clock
	Log        zerolog.Logger
}

// Pipeline runs resolve, gate, quota and dispatch for each inbound message.
type Pipeline struct {
	Deps

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewPipeline(deps Deps) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	return &Pipeline{Deps: deps}
}

// Submit handles msg on its own goroutine so a slow command never blocks
// the transport's event loop. Messages arriving after ctx is done or after
// Wait has been called are dropped.
func (p *Pipeline) Submit(ctx context.Context, msg whatsapp.Message) {
	p.mu.Lock()
	if p.stopped || ctx.Err() != nil {
		p.mu.Unlock()
		p.Log.Debug().Str("message_id", msg.ID).Msg("Dropping message during shutdown")
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.Log.Error().Str("stack", string(debug.Stack())).Msgf("Message pipeline panicked: %v", r)
			}
		}()
		_ = p.Handle(ctx, msg)
	}()
}

// Wait stops accepting messages and blocks until every submitted one has
// been handled.
func (p *Pipeline) Wait() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
}

// Handle processes one message. The returned error describes why a command
// did not run; every outcome has already been logged and answered.
func (p *Pipeline) Handle(ctx context.Context, msg whatsapp.Message) error {
	if msg.IsFromMe || strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	start := p.Clock.Now()

	log := p.Log.With().Str("chat", msg.Chat).Str("sender", msg.Sender).Str("message_id", msg.ID).Logger()

	user, err := p.Resolver.Resolve(ctx, msg.Sender, msg.PushName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve sender")
		return err
	}
	if msg.SenderAlt != "" {
		user = p.linkAlternate(ctx, log, user, msg.SenderAlt)
	}

	inv, ok := commandservice.Parse(msg.Text, p.Prefixes)
	if !ok {
		return nil
	}
	log = log.With().Str("command", inv.Name).Int64("user_id", user.ID).Logger()

	handler, ok := p.Registry.Lookup(inv.Name)
	if !ok {
		log.Debug().Msg("Unknown command")
		return apperrors.New(apperrors.ErrCodeUnknownCommand, "Unknown command").WithDetail("command", inv.Name)
	}

	desc := p.Commands.Descriptor(ctx, inv.Name, handler.Descriptor())
	if !desc.IsActive {
		log.Debug().Msg("Command disabled")
		metrics.GateRejections.WithLabelValues("disabled").Inc()
		return apperrors.New(apperrors.ErrCodeCommandDisabled, "Command disabled").WithDetail("command", inv.Name)
	}

	if err := p.Gate.Allow(ctx, user.PrimaryID); err != nil {
		log.Warn().Err(err).Msg("Request dropped by rate limit")
		return err
	}

	if err := p.Gate.CheckCooldown(user, p.Gate.EffectiveCooldown(desc.CooldownDuration())); err != nil {
		log.Debug().Err(err).Msg("Command on cooldown")
		p.reply(ctx, log, msg.Chat, cooldownNotice)
		return err
	}

	if desc.OwnerOnly && user.Tier != models.TierOwner {
		metrics.GateRejections.WithLabelValues("owner_only").Inc()
		p.reply(ctx, log, msg.Chat, ownerOnlyNotice)
		return apperrors.New(apperrors.ErrCodeOwnerOnly, "Owner only command").WithDetail("command", inv.Name)
	}

	if !p.Ledger.CheckLimit(ctx, user) {
		metrics.GateRejections.WithLabelValues("quota").Inc()
		p.reply(ctx, log, msg.Chat, quotaNotice)
		return apperrors.NewQuotaExceededError(user.LimitUsed, user.DailyLimit)
	}

	if err := p.Users.TouchLastCommand(ctx, user.ID, p.Clock.Now()); err != nil {
		log.Error().Err(err).Msg("Failed to record command time")
	}

	err = p.Dispatcher.Dispatch(ctx, handler, &commandservice.Request{
		Messenger: p.Messenger,
		Message:   msg,
		User:      user,
		Prefix:    inv.Prefix,
		Name:      inv.Name,
		Args:      inv.Args,
		Start:     start,
	})
	if err != nil {
		return err
	}

	if err := p.Ledger.UseLimit(ctx, user); err != nil {
		log.Error().Err(err).Msg("Failed to use daily limit")
	}
	if err := p.Commands.RecordUsage(ctx, inv.Name); err != nil {
		log.Error().Err(err).Msg("Failed to record command usage")
	}
	return nil
}

// linkAlternate attaches the sender's server-reported alternate address to
// its account. When both addresses already have accounts the owner account
// is kept, otherwise the older one.
func (p *Pipeline) linkAlternate(ctx context.Context, log zerolog.Logger, user *models.User, alt string) *models.User {
	altID, err := userservice.NormalizeJID(alt)
	if err != nil || user.Owns(altID) {
		return user
	}

	primary, secondary := user.PrimaryID, altID
	other, err := p.Resolver.FindByIdentifier(ctx, altID)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
	case err != nil:
		log.Warn().Err(err).Msg("Failed to look up alternate identifier")
		return user
	case keepsOther(user, other):
		primary, secondary = other.PrimaryID, user.PrimaryID
	}

	linked, err := p.Resolver.Link(ctx, primary, secondary)
	if err != nil {
		log.Warn().Err(err).Str("alternate", altID).Msg("Failed to link alternate identifier")
		return user
	}
	log.Info().Str("primary_id", linked.PrimaryID).Str("alternate", secondary).Msg("Linked alternate identifier")
	return linked
}

func keepsOther(user, other *models.User) bool {
	userOwner := user.Tier == models.TierOwner
	otherOwner := other.Tier == models.TierOwner
	if userOwner != otherOwner {
		return otherOwner
	}
	return other.ID < user.ID
}

func (p *Pipeline) reply(ctx context.Context, log zerolog.Logger, chat, text string) {
	if _, err := p.Messenger.SendText(ctx, chat, text); err != nil {
		log.Error().Err(err).Msg("Failed to send notice")
	}
}

// AnnounceOnline tells every configured owner that the bot is connected.
func AnnounceOnline(ctx context.Context, messenger whatsapp.Messenger, botName string, owners []string, log zerolog.Logger) {
	text := fmt.Sprintf("✅ %s is online\n🕒 %s", botName, time.Now().Format("02/01/2006 15:04:05"))
	for _, owner := range owners {
		jid, err := userservice.NormalizeJID(owner)
		if err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("Skipping invalid owner id")
			continue
		}
		if _, err := messenger.SendText(ctx, jid, text); err != nil {
			log.Warn().Err(err).Str("owner", jid).Msg("Failed to notify owner")
		}
	}
}
