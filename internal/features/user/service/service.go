package service

import (
	"context"
	"errors"
	"strings"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/validation"
	"seabot/internal/features/user/models"
	"seabot/internal/features/user/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	exportBatch     = 500
)

var ErrUserNotFound = repository.ErrUserNotFound

// UserService backs the dashboard's user management.
type UserService interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, page, limit int) (*models.UsersResponse, error)
	ExportUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id int64, update models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	LinkIdentifier(ctx context.Context, id int64, identifier string) (*models.User, error)
	ResetDailyLimits(ctx context.Context) (int64, error)
}

type userService struct {
	repo     repository.UserRepository
	resolver *Resolver
	ledger   *Ledger
}

func NewUserService(repo repository.UserRepository, resolver *Resolver, ledger *Ledger) UserService {
	return &userService{
		repo:     repo,
		resolver: resolver,
		ledger:   ledger,
	}
}

func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) (*models.UsersResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	users, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list users", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count users", err)
	}

	return &models.UsersResponse{Items: users, Total: total, Page: page, Limit: limit}, nil
}

func (s *userService) ExportUsers(ctx context.Context) ([]*models.User, error) {
	var all []*models.User
	for offset := 0; ; offset += exportBatch {
		batch, err := s.repo.List(ctx, offset, exportBatch)
		if err != nil {
			return nil, apperrors.NewDatabaseError("export users", err)
		}
		all = append(all, batch...)
		if len(batch) < exportBatch {
			return all, nil
		}
	}
}

func (s *userService) UpdateUser(ctx context.Context, id int64, update models.UserUpdate) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id)
	}

	if update.DisplayName != nil {
		if err := validation.ValidateDisplayName(*update.DisplayName); err != nil {
			return nil, apperrors.NewValidationError("display_name", err.Error())
		}
		user.DisplayName = strings.TrimSpace(*update.DisplayName)
	}
	if update.Tier != nil {
		if !update.Tier.Valid() {
			return nil, apperrors.NewValidationError("tier", "must be one of owner, premium, standard")
		}
		user.Tier = *update.Tier
	}
	if update.Balance != nil {
		if err := validation.ValidateNonNegativeInt(*update.Balance, "balance"); err != nil {
			return nil, apperrors.NewValidationError("balance", err.Error())
		}
		user.Balance = *update.Balance
	}
	if update.BonusCredits != nil {
		if err := validation.ValidateNonNegativeInt(*update.BonusCredits, "bonus_credits"); err != nil {
			return nil, apperrors.NewValidationError("bonus_credits", err.Error())
		}
		user.BonusCredits = *update.BonusCredits
	}
	if update.DailyLimit != nil {
		if *update.DailyLimit < 0 {
			return nil, apperrors.NewValidationError("daily_limit", "must not be negative")
		}
		user.DailyLimit = *update.DailyLimit
	}
	if update.LimitUsed != nil {
		if *update.LimitUsed < 0 {
			return nil, apperrors.NewValidationError("limit_used", "must not be negative")
		}
		user.LimitUsed = *update.LimitUsed
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, id)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, id)
	}
	return nil
}

func (s *userService) LinkIdentifier(ctx context.Context, id int64, identifier string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id)
	}

	linked, err := s.resolver.Link(ctx, user.PrimaryID, identifier)
	switch {
	case errors.Is(err, ErrSelfLink), errors.Is(err, ErrNotAUser), errors.Is(err, ErrEmptyIdentifier),
		errors.Is(err, ErrUnsupportedID):
		return nil, apperrors.NewValidationError("identifier", err.Error())
	case errors.Is(err, ErrSecondaryIsOwner):
		return nil, apperrors.NewConflictError("user", err.Error())
	case err != nil:
		return nil, mapRepoError(err, id)
	}
	return linked, nil
}

func (s *userService) ResetDailyLimits(ctx context.Context) (int64, error) {
	n, err := s.ledger.ResetDailyLimits(ctx)
	if err != nil {
		return 0, apperrors.NewDatabaseError("reset daily limits", err)
	}
	return n, nil
}

func mapRepoError(err error, id int64) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperrors.NewNotFoundError("user", id)
	}
	return apperrors.NewDatabaseError("user", err)
}
