package gate

import (
	"context"
	"time"

	"seabot/internal/common/clock"
	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/metrics"
	"seabot/internal/features/user/models"

	"github.com/rs/zerolog"
)

type Config struct {
	Cooldown    time.Duration
	PerMinute   int
	PerHour     int
	BanDuration time.Duration
}

// Gate applies the per-user cooldown and the sliding-window request ceilings.
type Gate struct {
	store Store
	cfg   Config
	clock clock.Clock
	log   zerolog.Logger
}

func New(store Store, cfg Config, clk clock.Clock, log zerolog.Logger) *Gate {
	return &Gate{store: store, cfg: cfg, clock: clk, log: log}
}

// Allow records one request from identifier. It returns a RATE_LIMITED error
// while the identifier is banned or over the hourly ceiling. Exceeding the
// per-minute ceiling starts a ban. Store failures let the request through.
func (g *Gate) Allow(ctx context.Context, identifier string) error {
	now := g.clock.Now()

	until, banned, err := g.store.BannedUntil(ctx, identifier, now)
	if err != nil {
		g.log.Error().Err(err).Str("identifier", identifier).Msg("Rate limit store unavailable")
		return nil
	}
	if banned {
		metrics.GateRejections.WithLabelValues("banned").Inc()
		return apperrors.NewRateLimitedError(identifier, until)
	}

	minute, hour, err := g.store.Hit(ctx, identifier, now)
	if err != nil {
		g.log.Error().Err(err).Str("identifier", identifier).Msg("Rate limit store unavailable")
		return nil
	}

	if minute > g.cfg.PerMinute {
		if err := g.store.Ban(ctx, identifier, now, g.cfg.BanDuration); err != nil {
			g.log.Error().Err(err).Str("identifier", identifier).Msg("Failed to store ban")
		}
		g.log.Warn().
			Str("identifier", identifier).
			Int("requests_per_minute", minute).
			Dur("ban", g.cfg.BanDuration).
			Msg("Identifier banned for flooding")
		metrics.GateRejections.WithLabelValues("ban_started").Inc()
		return apperrors.NewRateLimitedError(identifier, now.Add(g.cfg.BanDuration))
	}

	if hour > g.cfg.PerHour {
		metrics.GateRejections.WithLabelValues("hourly_ceiling").Inc()
		return apperrors.NewRateLimitedError(identifier, now.Add(hourWindow))
	}

	return nil
}

// EffectiveCooldown is the larger of the global and per-command cooldowns.
func (g *Gate) EffectiveCooldown(command time.Duration) time.Duration {
	return max(g.cfg.Cooldown, command)
}

// CheckCooldown returns a COOLDOWN error when user's last command is more recent than cooldown.
func (g *Gate) CheckCooldown(user *models.User, cooldown time.Duration) error {
	if user.LastCommandAt == nil || cooldown <= 0 {
		return nil
	}
	elapsed := g.clock.Since(*user.LastCommandAt)
	if elapsed < cooldown {
		metrics.GateRejections.WithLabelValues("cooldown").Inc()
		return apperrors.NewCooldownError(cooldown - elapsed)
	}
	return nil
}
