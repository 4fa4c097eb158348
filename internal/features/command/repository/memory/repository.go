// Package memory is an in-process CommandRepository for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"seabot/internal/features/command/models"
	"seabot/internal/features/command/repository"
)

type Repository struct {
	mu       sync.RWMutex
	commands map[string]*models.Descriptor
	total    int64
	Err      error
}

func NewRepository() *Repository {
	return &Repository{commands: make(map[string]*models.Descriptor)}
}

func (r *Repository) Seed(_ context.Context, descriptors []models.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, d := range descriptors {
		if existing, ok := r.commands[d.Name]; ok {
			existing.Description = d.Description
			existing.Category = d.Category
			existing.Usage = d.Usage
			continue
		}
		c := d
		c.UsageCount = 0
		c.UpdatedAt = time.Now()
		r.commands[d.Name] = &c
	}
	return nil
}

func (r *Repository) Get(_ context.Context, name string) (*models.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	d, ok := r.commands[name]
	if !ok {
		return nil, repository.ErrCommandNotFound
	}
	c := *d
	return &c, nil
}

func (r *Repository) List(_ context.Context) ([]*models.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*models.Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *Repository) Update(_ context.Context, d *models.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	existing, ok := r.commands[d.Name]
	if !ok {
		return repository.ErrCommandNotFound
	}
	existing.Description = d.Description
	existing.Cooldown = d.Cooldown
	existing.OwnerOnly = d.OwnerOnly
	existing.IsActive = d.IsActive
	existing.UpdatedAt = time.Now()
	d.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *Repository) RecordUsage(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if d, ok := r.commands[name]; ok {
		d.UsageCount++
	}
	r.total++
	return nil
}

func (r *Repository) TotalCommands(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return r.total, nil
}
