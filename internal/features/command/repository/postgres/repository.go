package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"seabot/internal/features/command/models"
	"seabot/internal/features/command/repository"
)

const descriptorColumns = `name, description, category, usage, cooldown, owner_only, is_active, usage_count, updated_at`

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.CommandRepository {
	return &postgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDescriptor(row rowScanner) (*models.Descriptor, error) {
	var (
		d        models.Descriptor
		category string
	)
	err := row.Scan(&d.Name, &d.Description, &category, &d.Usage, &d.Cooldown,
		&d.OwnerOnly, &d.IsActive, &d.UsageCount, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Category = models.Category(category)
	return &d, nil
}

func (r *postgresRepository) Seed(ctx context.Context, descriptors []models.Descriptor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO commands (name, description, category, usage, cooldown, owner_only, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description, category = EXCLUDED.category, usage = EXCLUDED.usage
	`
	for _, d := range descriptors {
		if _, err := tx.ExecContext(ctx, query,
			d.Name, d.Description, string(d.Category), d.Usage, d.Cooldown, d.OwnerOnly, d.IsActive,
		); err != nil {
			return fmt.Errorf("failed to seed command %s: %w", d.Name, err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepository) Get(ctx context.Context, name string) (*models.Descriptor, error) {
	query := `SELECT ` + descriptorColumns + ` FROM commands WHERE name = $1`

	d, err := scanDescriptor(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrCommandNotFound
		}
		return nil, fmt.Errorf("failed to get command: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]*models.Descriptor, error) {
	query := `SELECT ` + descriptorColumns + ` FROM commands ORDER BY category, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	defer rows.Close()

	var descriptors []*models.Descriptor
	for rows.Next() {
		d, err := scanDescriptor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, d *models.Descriptor) error {
	query := `
		UPDATE commands
		SET description = $2, cooldown = $3, owner_only = $4, is_active = $5, updated_at = NOW()
		WHERE name = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, d.Name, d.Description, d.Cooldown, d.OwnerOnly, d.IsActive).
		Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrCommandNotFound
		}
		return fmt.Errorf("failed to update command: %w", err)
	}
	return nil
}

func (r *postgresRepository) RecordUsage(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin usage update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE commands SET usage_count = usage_count + 1, updated_at = NOW() WHERE name = $1`, name,
	); err != nil {
		return fmt.Errorf("failed to increment command usage: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stats (type, count, last_updated) VALUES ('total_commands', 1, NOW())
		ON CONFLICT (type) DO UPDATE SET count = stats.count + 1, last_updated = NOW()
	`); err != nil {
		return fmt.Errorf("failed to increment total commands: %w", err)
	}

	return tx.Commit()
}

func (r *postgresRepository) TotalCommands(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT count FROM stats WHERE type = 'total_commands'`).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get total commands: %w", err)
	}
	return total, nil
}
