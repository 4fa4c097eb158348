package gate

import (
	"context"
	"time"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Store holds volatile per-identifier request history and bans.
type Store interface {
	// Hit records a request at now and returns the request counts in the
	// trailing minute and hour, including this one.
	Hit(ctx context.Context, key string, now time.Time) (minute, hour int, err error)
	// BannedUntil returns the ban expiry if key is banned at now.
	BannedUntil(ctx context.Context, key string, now time.Time) (time.Time, bool, error)
	// Ban blocks key for d starting at now.
	Ban(ctx context.Context, key string, now time.Time, d time.Duration) error
}
