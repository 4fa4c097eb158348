package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"seabot/internal/common/clock"
	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/metrics"
	"seabot/internal/features/user/models"
	"seabot/internal/features/user/repository"

	"github.com/rs/zerolog"
)

const (
	ServerUser = "s.whatsapp.net"
	ServerLID  = "lid"
)

var (
	// ErrNotAUser is returned for group, broadcast and newsletter addresses.
	ErrNotAUser         = errors.New("identifier does not address a single user")
	ErrEmptyIdentifier  = errors.New("empty identifier")
	ErrUnsupportedID    = errors.New("unsupported identifier server")
	ErrSelfLink         = errors.New("cannot link an identifier to itself")
	ErrSecondaryIsOwner = errors.New("secondary account is an owner")
)

// NormalizeJID canonicalises a transport identifier. Device and agent suffixes
// are dropped, phone-number servers collapse to s.whatsapp.net and hidden-user
// ids keep the lid server. A bare number is treated as a phone number.
func NormalizeJID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "+")
	if raw == "" {
		return "", ErrEmptyIdentifier
	}

	user, server, found := strings.Cut(raw, "@")
	if !found {
		server = ServerUser
	}

	if i := strings.IndexAny(user, ":."); i >= 0 {
		user = user[:i]
	}
	if user == "" {
		return "", ErrEmptyIdentifier
	}

	switch strings.ToLower(server) {
	case ServerUser, "c.us", "":
		return user + "@" + ServerUser, nil
	case ServerLID:
		return user + "@" + ServerLID, nil
	case "g.us", "broadcast", "newsletter":
		return "", ErrNotAUser
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedID, server)
	}
}

// UserPart returns the part of a normalized identifier before '@'.
func UserPart(id string) string {
	user, _, _ := strings.Cut(id, "@")
	return user
}

type ResolverConfig struct {
	OwnerIDs       []string
	DailyLimit     int
	DefaultBalance int64
	DefaultBonus   int64
	NameMerge      bool
}

// Resolver maps transport identifiers to durable user records.
type Resolver struct {
	repo   repository.UserRepository
	cfg    ResolverConfig
	owners map[string]struct{}
	clock  clock.Clock
	log    zerolog.Logger
}

func NewResolver(repo repository.UserRepository, cfg ResolverConfig, clk clock.Clock, log zerolog.Logger) *Resolver {
	owners := make(map[string]struct{}, len(cfg.OwnerIDs))
	for _, raw := range cfg.OwnerIDs {
		if id, err := NormalizeJID(raw); err == nil {
			owners[UserPart(id)] = struct{}{}
		}
	}
	return &Resolver{repo: repo, cfg: cfg, owners: owners, clock: clk, log: log}
}

// IsOwnerID reports whether a normalized identifier belongs to a configured owner.
func (r *Resolver) IsOwnerID(id string) bool {
	_, ok := r.owners[UserPart(id)]
	return ok
}

func (r *Resolver) isOwner(u *models.User) bool {
	return slices.ContainsFunc(u.Identifiers(), r.IsOwnerID)
}

// Resolve returns the user behind transportID, creating it on first sight and
// refreshing its display name and alternates. It performs at most one write.
func (r *Resolver) Resolve(ctx context.Context, transportID, observedName string) (*models.User, error) {
	id, err := NormalizeJID(transportID)
	if err != nil {
		metrics.IdentityResolutions.WithLabelValues("error").Inc()
		return nil, apperrors.NewResolutionError(transportID, err)
	}
	name := cleanName(observedName)

	user, result, err := r.lookup(ctx, id, name)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = r.create(ctx, id, name)
		if errors.Is(err, repository.ErrIdentifierTaken) {
			// lost a race with a concurrent first message from the same id
			user, result, err = r.lookup(ctx, id, "")
		} else if err == nil {
			metrics.IdentityResolutions.WithLabelValues("created").Inc()
			return user, nil
		}
	}
	if err != nil {
		metrics.IdentityResolutions.WithLabelValues("error").Inc()
		return nil, apperrors.NewResolutionError(transportID, err)
	}
	metrics.IdentityResolutions.WithLabelValues(result).Inc()

	changed := false
	if name != "" && user.DisplayName != name {
		user.DisplayName = name
		changed = true
	}
	if !user.Owns(id) {
		user.AlternateIDs = append(user.AlternateIDs, id)
		changed = true
	}
	if user.Tier != models.TierOwner && r.isOwner(user) {
		user.Tier = models.TierOwner
		changed = true
	}

	if changed {
		if err := r.repo.Update(ctx, user); err != nil {
			metrics.IdentityResolutions.WithLabelValues("error").Inc()
			return nil, apperrors.NewResolutionError(transportID, err)
		}
	}

	return user, nil
}

func (r *Resolver) lookup(ctx context.Context, id, name string) (*models.User, string, error) {
	user, err := r.repo.GetByPrimaryID(ctx, id)
	if err == nil {
		return user, "existing", nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", err
	}

	user, err = r.repo.GetByAlternateID(ctx, id)
	if err == nil {
		return user, "alternate", nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", err
	}

	if r.cfg.NameMerge && name != "" {
		user, err = r.repo.GetByDisplayName(ctx, name)
		if err == nil {
			r.log.Warn().
				Str("identifier", id).
				Str("display_name", name).
				Str("primary_id", user.PrimaryID).
				Msg("Attaching identifier by display name")
			return user, "merged", nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", err
		}
	}

	return nil, "", repository.ErrUserNotFound
}

func (r *Resolver) create(ctx context.Context, id, name string) (*models.User, error) {
	if name == "" {
		name = models.PlaceholderName
	}
	tier := models.TierStandard
	if r.IsOwnerID(id) {
		tier = models.TierOwner
	}

	user := &models.User{
		PrimaryID:      id,
		AlternateIDs:   []string{},
		DisplayName:    name,
		Tier:           tier,
		Balance:        r.cfg.DefaultBalance,
		BonusCredits:   r.cfg.DefaultBonus,
		DailyLimit:     r.cfg.DailyLimit,
		LastLimitReset: r.clock.Now(),
	}
	if err := r.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	r.log.Info().
		Str("primary_id", id).
		Str("tier", string(tier)).
		Msg("User created")
	return user, nil
}

// FindByIdentifier looks up a user by primary or alternate identifier without side effects.
func (r *Resolver) FindByIdentifier(ctx context.Context, raw string) (*models.User, error) {
	id, err := NormalizeJID(raw)
	if err != nil {
		return nil, err
	}
	user, err := r.repo.GetByPrimaryID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = r.repo.GetByAlternateID(ctx, id)
	}
	return user, err
}

// Link attaches secondary to the account owning primary. When secondary already
// has its own account the two are merged: numeric fields keep the larger value,
// the higher tier wins and the secondary record is deleted.
func (r *Resolver) Link(ctx context.Context, primary, secondary string) (*models.User, error) {
	primaryID, err := NormalizeJID(primary)
	if err != nil {
		return nil, err
	}
	secondaryID, err := NormalizeJID(secondary)
	if err != nil {
		return nil, err
	}
	if primaryID == secondaryID {
		return nil, ErrSelfLink
	}

	keep, err := r.FindByIdentifier(ctx, primaryID)
	if err != nil {
		return nil, err
	}

	other, err := r.FindByIdentifier(ctx, secondaryID)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		if !keep.Owns(secondaryID) {
			keep.AlternateIDs = append(keep.AlternateIDs, secondaryID)
		}
		if err := r.repo.Update(ctx, keep); err != nil {
			return nil, err
		}
		return keep, nil
	case err != nil:
		return nil, err
	case other.ID == keep.ID:
		return keep, nil
	case other.Tier == models.TierOwner && keep.Tier != models.TierOwner:
		return nil, ErrSecondaryIsOwner
	}

	for _, id := range other.Identifiers() {
		if !keep.Owns(id) {
			keep.AlternateIDs = append(keep.AlternateIDs, id)
		}
	}
	keep.Balance = max(keep.Balance, other.Balance)
	keep.BonusCredits = max(keep.BonusCredits, other.BonusCredits)
	keep.LimitUsed = max(keep.LimitUsed, other.LimitUsed)
	keep.DailyLimit = max(keep.DailyLimit, other.DailyLimit)
	if keep.Tier == models.TierStandard && other.Tier == models.TierPremium {
		keep.Tier = models.TierPremium
	}
	if other.LastCommandAt != nil && (keep.LastCommandAt == nil || other.LastCommandAt.After(*keep.LastCommandAt)) {
		keep.LastCommandAt = other.LastCommandAt
	}
	if keep.DisplayName == models.PlaceholderName {
		keep.DisplayName = other.DisplayName
	}

	if err := r.repo.Merge(ctx, keep, other.ID); err != nil {
		return nil, err
	}

	r.log.Info().
		Str("primary_id", keep.PrimaryID).
		Str("merged_id", other.PrimaryID).
		Msg("Accounts merged")
	return keep, nil
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == models.PlaceholderName {
		return ""
	}
	return name
}
