package service

import (
	"context"
	"time"

	"seabot/internal/common/clock"
	"seabot/internal/common/metrics"
	"seabot/internal/features/user/models"
	"seabot/internal/features/user/repository"

	"github.com/rs/zerolog"
)

// ResetWindow is the rolling per-user quota period.
const ResetWindow = 24 * time.Hour

// Ledger tracks the persisted daily command quota of standard-tier users.
type Ledger struct {
	repo  repository.UserRepository
	clock clock.Clock
	log   zerolog.Logger
}

func NewLedger(repo repository.UserRepository, clk clock.Clock, log zerolog.Logger) *Ledger {
	return &Ledger{repo: repo, clock: clk, log: log}
}

// CheckLimit reports whether user may run one more command. A standard user
// whose window has elapsed is reset first. Persistence errors deny.
func (l *Ledger) CheckLimit(ctx context.Context, user *models.User) bool {
	if user.Tier.Unlimited() {
		return true
	}

	if l.clock.Since(user.LastLimitReset) >= ResetWindow {
		now := l.clock.Now()
		if err := l.repo.ResetLimit(ctx, user.ID, now); err != nil {
			l.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to reset daily limit")
			return false
		}
		user.LimitUsed = 0
		user.LastLimitReset = now
	}

	return user.LimitUsed < user.DailyLimit
}

// UseLimit consumes one unit of quota. No-op for unlimited tiers.
func (l *Ledger) UseLimit(ctx context.Context, user *models.User) error {
	if user.Tier.Unlimited() {
		return nil
	}
	if err := l.repo.IncrementLimitUsed(ctx, user.ID); err != nil {
		return err
	}
	user.LimitUsed++
	return nil
}

// ResetDailyLimits zeroes the usage of every standard-tier user. Idempotent.
func (l *Ledger) ResetDailyLimits(ctx context.Context) (int64, error) {
	n, err := l.repo.ResetStandardLimits(ctx, l.clock.Now())
	if err != nil {
		return 0, err
	}
	metrics.LimitResets.Add(float64(n))
	return n, nil
}

// Info describes the user's quota as it would be seen by the next CheckLimit.
func (l *Ledger) Info(user *models.User) models.LimitInfo {
	if user.Tier.Unlimited() {
		return models.LimitInfo{Unlimited: true}
	}
	used := user.LimitUsed
	if l.clock.Since(user.LastLimitReset) >= ResetWindow {
		used = 0
	}
	return models.LimitInfo{
		Used:      used,
		Remaining: max(0, user.DailyLimit-used),
		Total:     user.DailyLimit,
	}
}
