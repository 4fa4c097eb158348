package service

import (
	"context"
	"errors"
	"time"

	"seabot/internal/common/cache"
	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/validation"
	"seabot/internal/features/command/models"
	"seabot/internal/features/command/repository"

	"github.com/rs/zerolog"
)

const (
	descriptorCacheTTL = time.Minute
	maxCooldownSeconds = 3600
)

type CommandService interface {
	// Seed stores the registry's built-in descriptors.
	Seed(ctx context.Context, registry *Registry) error
	// Descriptor returns the stored descriptor for name, falling back to
	// fallback when storage has none or is unavailable.
	Descriptor(ctx context.Context, name string, fallback models.Descriptor) models.Descriptor
	ListCommands(ctx context.Context) (*models.CommandsResponse, error)
	ListActive(ctx context.Context) ([]*models.Descriptor, error)
	UpdateCommand(ctx context.Context, name string, update models.DescriptorUpdate) (*models.Descriptor, error)
	RecordUsage(ctx context.Context, name string) error
}

type commandService struct {
	repo  repository.CommandRepository
	cache *cache.CacheService
	log   zerolog.Logger
}

// NewCommandService builds the descriptor service. cache may be nil.
func NewCommandService(repo repository.CommandRepository, cacheService *cache.CacheService, log zerolog.Logger) CommandService {
	return &commandService{repo: repo, cache: cacheService, log: log}
}

func (s *commandService) Seed(ctx context.Context, registry *Registry) error {
	if err := s.repo.Seed(ctx, registry.Descriptors()); err != nil {
		return apperrors.NewDatabaseError("seed commands", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *commandService) all(ctx context.Context) (map[string]*models.Descriptor, error) {
	load := func() (interface{}, error) {
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		byName := make(map[string]*models.Descriptor, len(list))
		for _, d := range list {
			byName[d.Name] = d
		}
		return byName, nil
	}

	if s.cache == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.(map[string]*models.Descriptor), nil
	}

	var byName map[string]*models.Descriptor
	if err := s.cache.GetOrSet(ctx, cache.KeyCommands, &byName, descriptorCacheTTL, load); err != nil {
		return nil, err
	}
	return byName, nil
}

func (s *commandService) Descriptor(ctx context.Context, name string, fallback models.Descriptor) models.Descriptor {
	byName, err := s.all(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("command", name).Msg("Using built-in command descriptor")
		return fallback
	}
	if d, ok := byName[name]; ok {
		return *d
	}
	return fallback
}

func (s *commandService) ListCommands(ctx context.Context) (*models.CommandsResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list commands", err)
	}
	total, err := s.repo.TotalCommands(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("total commands", err)
	}
	return &models.CommandsResponse{Items: list, Total: total}, nil
}

func (s *commandService) ListActive(ctx context.Context) ([]*models.Descriptor, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list commands", err)
	}
	active := list[:0]
	for _, d := range list {
		if d.IsActive {
			active = append(active, d)
		}
	}
	return active, nil
}

func (s *commandService) UpdateCommand(ctx context.Context, name string, update models.DescriptorUpdate) (*models.Descriptor, error) {
	d, err := s.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrCommandNotFound) {
			return nil, apperrors.NewNotFoundError("command", name)
		}
		return nil, apperrors.NewDatabaseError("get command", err)
	}

	if update.Cooldown != nil {
		if *update.Cooldown < 0 || *update.Cooldown > maxCooldownSeconds {
			return nil, apperrors.NewValidationError("cooldown", "must be between 0 and 3600 seconds")
		}
		d.Cooldown = *update.Cooldown
	}
	if update.Description != nil {
		if err := validation.ValidateDescription(*update.Description); err != nil {
			return nil, apperrors.NewValidationError("description", err.Error())
		}
		d.Description = *update.Description
	}
	if update.OwnerOnly != nil {
		d.OwnerOnly = *update.OwnerOnly
	}
	if update.IsActive != nil {
		d.IsActive = *update.IsActive
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, apperrors.NewDatabaseError("update command", err)
	}
	s.invalidate(ctx)
	return d, nil
}

func (s *commandService) RecordUsage(ctx context.Context, name string) error {
	if err := s.repo.RecordUsage(ctx, name); err != nil {
		return apperrors.NewDatabaseError("record usage", err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateStats(ctx)
	}
	return nil
}

func (s *commandService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCommands(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate command cache")
	}
}
