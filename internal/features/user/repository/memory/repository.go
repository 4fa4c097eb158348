// Package memory is an in-process UserRepository used by tests and local runs without Postgres.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"seabot/internal/features/user/models"
	"seabot/internal/features/user/repository"
)

type Repository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*models.User
	// Err, when set, is returned by every call.
	Err error
}

func NewRepository() *Repository {
	return &Repository{users: make(map[int64]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	c.AlternateIDs = slices.Clone(u.AlternateIDs)
	if c.AlternateIDs == nil {
		c.AlternateIDs = []string{}
	}
	if u.LastCommandAt != nil {
		t := *u.LastCommandAt
		c.LastCommandAt = &t
	}
	return &c
}

func (r *Repository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.users {
		if existing.PrimaryID == user.PrimaryID {
			return repository.ErrIdentifierTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = clone(user)
	return nil
}

func (r *Repository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if u := r.users[id]; match(u) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *Repository) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *Repository) GetByPrimaryID(_ context.Context, primaryID string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.PrimaryID == primaryID })
}

func (r *Repository) GetByAlternateID(_ context.Context, alternateID string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return slices.Contains(u.AlternateIDs, alternateID) })
}

func (r *Repository) GetByDisplayName(_ context.Context, name string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.DisplayName == name })
}

func (r *Repository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = clone(user)
	return nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *Repository) Merge(_ context.Context, keep *models.User, removeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[removeID]; !ok {
		return repository.ErrUserNotFound
	}
	if _, ok := r.users[keep.ID]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, removeID)
	keep.UpdatedAt = time.Now()
	r.users[keep.ID] = clone(keep)
	return nil
}

func (r *Repository) List(_ context.Context, offset, limit int) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, clone(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= len(all) {
		return []*models.User{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *Repository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return len(r.users), nil
}

func (r *Repository) CountByTier(_ context.Context) (map[models.Tier]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	counts := map[models.Tier]int{models.TierOwner: 0, models.TierPremium: 0, models.TierStandard: 0}
	for _, u := range r.users {
		counts[u.Tier]++
	}
	return counts, nil
}

func (r *Repository) CountActiveSince(_ context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return 0, r.Err
	}
	n := 0
	for _, u := range r.users {
		if u.LastCommandAt != nil && !u.LastCommandAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *Repository) mutate(id int64, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *Repository) IncrementLimitUsed(_ context.Context, id int64) error {
	return r.mutate(id, func(u *models.User) { u.LimitUsed++ })
}

func (r *Repository) ResetLimit(_ context.Context, id int64, at time.Time) error {
	return r.mutate(id, func(u *models.User) {
		u.LimitUsed = 0
		u.LastLimitReset = at
	})
}

func (r *Repository) ResetStandardLimits(_ context.Context, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for _, u := range r.users {
		if u.Tier == models.TierStandard {
			u.LimitUsed = 0
			u.LastLimitReset = at
			n++
		}
	}
	return n, nil
}

func (r *Repository) TouchLastCommand(_ context.Context, id int64, at time.Time) error {
	return r.mutate(id, func(u *models.User) { u.LastCommandAt = &at })
}
