package repository

import (
	"context"
	"errors"
	"time"

	"seabot/internal/features/user/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrIdentifierTaken means the identifier already belongs to another user.
	ErrIdentifierTaken = errors.New("identifier belongs to another user")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByPrimaryID(ctx context.Context, primaryID string) (*models.User, error)
	GetByAlternateID(ctx context.Context, alternateID string) (*models.User, error)
	// GetByDisplayName returns the oldest user with exactly this display name.
	GetByDisplayName(ctx context.Context, name string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	// Merge saves keep and deletes the user removeID in one transaction.
	Merge(ctx context.Context, keep *models.User, removeID int64) error
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	CountByTier(ctx context.Context) (map[models.Tier]int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)

	// IncrementLimitUsed adds one to limit_used without a read-modify-write.
	IncrementLimitUsed(ctx context.Context, id int64) error
	// ResetLimit sets limit_used to 0 and last_limit_reset to at.
	ResetLimit(ctx context.Context, id int64, at time.Time) error
	// ResetStandardLimits zeroes limit_used for every standard-tier user.
	ResetStandardLimits(ctx context.Context, at time.Time) (int64, error)
	TouchLastCommand(ctx context.Context, id int64, at time.Time) error
}
