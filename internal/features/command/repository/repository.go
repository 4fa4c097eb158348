package repository

import (
	"context"
	"errors"

	"seabot/internal/features/command/models"
)

var ErrCommandNotFound = errors.New("command not found")

type CommandRepository interface {
	// Seed inserts missing descriptors and refreshes description, category and
	// usage of existing ones. Operator settings (is_active, cooldown,
	// owner_only) and usage counters are kept.
	Seed(ctx context.Context, descriptors []models.Descriptor) error
	Get(ctx context.Context, name string) (*models.Descriptor, error)
	List(ctx context.Context) ([]*models.Descriptor, error)
	Update(ctx context.Context, d *models.Descriptor) error
	// RecordUsage bumps the command's usage counter and the global total.
	RecordUsage(ctx context.Context, name string) error
	TotalCommands(ctx context.Context) (int64, error)
}
