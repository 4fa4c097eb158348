package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"seabot/internal/common/clock"
)

// LimitResetter is satisfied by the user ledger.
type LimitResetter interface {
	ResetDailyLimits(ctx context.Context) (int64, error)
}

// LimitResetScheduler resets standard users' daily usage at every local midnight.
type LimitResetScheduler struct {
	ledger LimitResetter
	clock  clock.Clock
	loc    *time.Location
	after  func(time.Duration) <-chan time.Time
	log    zerolog.Logger
}

func NewLimitResetScheduler(ledger LimitResetter, clk clock.Clock, loc *time.Location, log zerolog.Logger) *LimitResetScheduler {
	return &LimitResetScheduler{
		ledger: ledger,
		clock:  clk,
		loc:    loc,
		after:  time.After,
		log:    log,
	}
}

// NextMidnight returns the first midnight in loc strictly after now.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

// Run blocks until ctx is cancelled.
func (s *LimitResetScheduler) Run(ctx context.Context) error {
	for {
		now := s.clock.Now()
		next := NextMidnight(now, s.loc)
		s.log.Debug().Time("next_reset", next).Msg("Limit reset scheduled")

		select {
		case <-ctx.Done():
			s.log.Info().Msg("Stopping limit reset scheduler")
			return nil
		case <-s.after(next.Sub(now)):
			s.reset(ctx)
		}
	}
}

func (s *LimitResetScheduler) reset(ctx context.Context) {
	n, err := s.ledger.ResetDailyLimits(ctx)
	if err != nil {
		// rolling 24h resets in the ledger still apply until the next midnight
		s.log.Error().Err(err).Msg("Daily limit reset failed")
		return
	}
	s.log.Info().Int64("users", n).Msg("Daily limits reset")
}
