package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"seabot/internal/common/cache"
	"seabot/internal/common/clock"
	apperrors "seabot/internal/common/errors"
	commandrepo "seabot/internal/features/command/repository"
	usermodels "seabot/internal/features/user/models"
	userrepo "seabot/internal/features/user/repository"
)

const (
	statsCacheTTL = 30 * time.Second
	activeWindow  = 24 * time.Hour
)

// Stats is the dashboard overview.
type Stats struct {
	TotalUsers    int                     `json:"total_users" example:"128"`
	UsersByTier   map[usermodels.Tier]int `json:"users_by_tier"`
	ActiveUsers   int                     `json:"active_users" example:"37"`
	TotalCommands int64                   `json:"total_commands" example:"5120"`
	CommandUsage  map[string]int64        `json:"command_usage"`
	GeneratedAt   time.Time               `json:"generated_at"`
}

type StatsService struct {
	users    userrepo.UserRepository
	commands commandrepo.CommandRepository
	cache    *cache.CacheService
	clock    clock.Clock
	log      zerolog.Logger
}

// NewStatsService builds the aggregator. cacheService may be nil.
func NewStatsService(users userrepo.UserRepository, commands commandrepo.CommandRepository, cacheService *cache.CacheService, clk clock.Clock, log zerolog.Logger) *StatsService {
	return &StatsService{users: users, commands: commands, cache: cacheService, clock: clk, log: log}
}

func (s *StatsService) Get(ctx context.Context) (*Stats, error) {
	if s.cache == nil {
		return s.compute(ctx)
	}

	var stats Stats
	err := s.cache.GetOrSet(ctx, cache.KeyDashboardStats, &stats, statsCacheTTL, func() (interface{}, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *StatsService) compute(ctx context.Context) (*Stats, error) {
	now := s.clock.Now()

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count users", err)
	}
	byTier, err := s.users.CountByTier(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count users by tier", err)
	}
	active, err := s.users.CountActiveSince(ctx, now.Add(-activeWindow))
	if err != nil {
		return nil, apperrors.NewDatabaseError("count active users", err)
	}
	commands, err := s.commands.TotalCommands(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("total commands", err)
	}
	list, err := s.commands.List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list commands", err)
	}

	usage := make(map[string]int64, len(list))
	for _, d := range list {
		usage[d.Name] = d.UsageCount
	}

	return &Stats{
		TotalUsers:    total,
		UsersByTier:   byTier,
		ActiveUsers:   active,
		TotalCommands: commands,
		CommandUsage:  usage,
		GeneratedAt:   now,
	}, nil
}
