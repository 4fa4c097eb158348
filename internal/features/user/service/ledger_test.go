package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"seabot/internal/features/user/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFixture(t *testing.T) (*Ledger, *Resolver, func(tier models.Tier) *models.User) {
	t.Helper()
	r, repo, clk := newResolver(t, false)
	l := NewLedger(repo, clk, zerolog.Nop())

	n := 0
	mk := func(tier models.Tier) *models.User {
		n++
		u, err := r.Resolve(context.Background(), "628100"+string(rune('0'+n))+"@s.whatsapp.net", "")
		require.NoError(t, err)
		u.Tier = tier
		require.NoError(t, repo.Update(context.Background(), u))
		return u
	}
	return l, r, mk
}

func TestStandardUserExhaustsDailyLimit(t *testing.T) {
	l, _, mk := newLedgerFixture(t)
	ctx := context.Background()
	u := mk(models.TierStandard)

	for i := 0; i < u.DailyLimit; i++ {
		require.True(t, l.CheckLimit(ctx, u), "call %d", i)
		require.NoError(t, l.UseLimit(ctx, u))
	}
	assert.False(t, l.CheckLimit(ctx, u))

	info := l.Info(u)
	assert.Equal(t, models.LimitInfo{Used: 30, Remaining: 0, Total: 30}, info)
	assert.Equal(t, "0/30", info.String())
}

func TestUnlimitedTiersNeverDecrement(t *testing.T) {
	l, r, mk := newLedgerFixture(t)
	ctx := context.Background()

	for _, tier := range []models.Tier{models.TierOwner, models.TierPremium} {
		u := mk(tier)
		for i := 0; i < 100; i++ {
			require.True(t, l.CheckLimit(ctx, u))
			require.NoError(t, l.UseLimit(ctx, u))
		}
		stored, err := r.FindByIdentifier(ctx, u.PrimaryID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.LimitUsed)
		assert.Equal(t, "∞/∞", l.Info(u).String())
	}
}

func TestRollingResetAfterOneDay(t *testing.T) {
	r, repo, clk := newResolver(t, false)
	l := NewLedger(repo, clk, zerolog.Nop())
	ctx := context.Background()

	u, err := r.Resolve(ctx, "6281111@s.whatsapp.net", "")
	require.NoError(t, err)
	u.LimitUsed = u.DailyLimit
	u.LastLimitReset = testNow.Add(-25 * time.Hour)
	require.NoError(t, repo.Update(ctx, u))

	assert.Equal(t, 30, l.Info(u).Remaining, "info reflects the pending reset")
	assert.True(t, l.CheckLimit(ctx, u))
	assert.Equal(t, 0, u.LimitUsed)
	assert.Equal(t, testNow, u.LastLimitReset)

	stored, _ := repo.GetByID(ctx, u.ID)
	assert.Equal(t, 0, stored.LimitUsed)
	assert.Equal(t, testNow, stored.LastLimitReset)
}

func TestResetNotDueBeforeOneDay(t *testing.T) {
	r, repo, clk := newResolver(t, false)
	l := NewLedger(repo, clk, zerolog.Nop())
	ctx := context.Background()

	u, err := r.Resolve(ctx, "6281111@s.whatsapp.net", "")
	require.NoError(t, err)
	u.LimitUsed = u.DailyLimit
	require.NoError(t, repo.Update(ctx, u))

	clk.Advance(23 * time.Hour)
	assert.False(t, l.CheckLimit(ctx, u))
	clk.Advance(time.Hour)
	assert.True(t, l.CheckLimit(ctx, u))
}

func TestCheckLimitFailsClosed(t *testing.T) {
	r, repo, clk := newResolver(t, false)
	l := NewLedger(repo, clk, zerolog.Nop())
	ctx := context.Background()

	u, err := r.Resolve(ctx, "6281111@s.whatsapp.net", "")
	require.NoError(t, err)
	clk.Advance(48 * time.Hour)

	repo.Err = errors.New("db down")
	assert.False(t, l.CheckLimit(ctx, u))
	assert.Error(t, l.UseLimit(ctx, u))
}

func TestResetDailyLimitsIsIdempotent(t *testing.T) {
	l, r, mk := newLedgerFixture(t)
	ctx := context.Background()

	std := mk(models.TierStandard)
	owner := mk(models.TierOwner)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.UseLimit(ctx, std))
	}

	n, err := l.ResetDailyLimits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = l.ResetDailyLimits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, _ := r.FindByIdentifier(ctx, std.PrimaryID)
	assert.Equal(t, 0, stored.LimitUsed)
	stored, _ = r.FindByIdentifier(ctx, owner.PrimaryID)
	assert.Equal(t, models.TierOwner, stored.Tier)
}
