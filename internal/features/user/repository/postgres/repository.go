package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"seabot/internal/features/user/models"
	"seabot/internal/features/user/repository"

	"github.com/lib/pq"
)

const userColumns = `id, primary_id, alternate_ids, display_name, tier, balance, bonus_credits,
	daily_limit, limit_used, last_limit_reset, last_command_at, created_at, updated_at`

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.UserRepository {
	return &postgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user          models.User
		tier          string
		alternates    pq.StringArray
		lastCommandAt sql.NullTime
	)
	err := row.Scan(
		&user.ID, &user.PrimaryID, &alternates, &user.DisplayName, &tier,
		&user.Balance, &user.BonusCredits, &user.DailyLimit, &user.LimitUsed,
		&user.LastLimitReset, &lastCommandAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	user.Tier = models.Tier(tier)
	user.AlternateIDs = []string(alternates)
	if user.AlternateIDs == nil {
		user.AlternateIDs = []string{}
	}
	if lastCommandAt.Valid {
		t := lastCommandAt.Time
		user.LastCommandAt = &t
	}
	return &user, nil
}

func (r *postgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` ORDER BY id LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (primary_id, alternate_ids, display_name, tier, balance, bonus_credits,
			daily_limit, limit_used, last_limit_reset)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.PrimaryID, pq.Array(nonNil(user.AlternateIDs)), user.DisplayName, string(user.Tier),
		user.Balance, user.BonusCredits, user.DailyLimit, user.LimitUsed, user.LastLimitReset,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrIdentifierTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *postgresRepository) GetByPrimaryID(ctx context.Context, primaryID string) (*models.User, error) {
	return r.getOne(ctx, `primary_id = $1`, primaryID)
}

func (r *postgresRepository) GetByAlternateID(ctx context.Context, alternateID string) (*models.User, error) {
	return r.getOne(ctx, `$1 = ANY(alternate_ids)`, alternateID)
}

func (r *postgresRepository) GetByDisplayName(ctx context.Context, name string) (*models.User, error) {
	return r.getOne(ctx, `display_name = $1`, name)
}

func (r *postgresRepository) Update(ctx context.Context, user *models.User) error {
	return update(ctx, r.db, user)
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func update(ctx context.Context, db execer, user *models.User) error {
	query := `
		UPDATE users
		SET alternate_ids = $2, display_name = $3, tier = $4, balance = $5, bonus_credits = $6,
			daily_limit = $7, limit_used = $8, last_limit_reset = $9, last_command_at = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	var lastCommandAt sql.NullTime
	if user.LastCommandAt != nil {
		lastCommandAt = sql.NullTime{Time: *user.LastCommandAt, Valid: true}
	}

	err := db.QueryRowContext(ctx, query,
		user.ID, pq.Array(nonNil(user.AlternateIDs)), user.DisplayName, string(user.Tier),
		user.Balance, user.BonusCredits, user.DailyLimit, user.LimitUsed, user.LastLimitReset,
		lastCommandAt,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOne(result)
}

func (r *postgresRepository) Merge(ctx context.Context, keep *models.User, removeID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin merge: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", removeID)
	if err != nil {
		return fmt.Errorf("failed to delete merged user: %w", err)
	}
	if err := expectOne(result); err != nil {
		return err
	}

	if err := update(ctx, tx, keep); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *postgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) CountByTier(ctx context.Context) (map[models.Tier]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT tier, COUNT(*) FROM users GROUP BY tier")
	if err != nil {
		return nil, fmt.Errorf("failed to count users by tier: %w", err)
	}
	defer rows.Close()

	counts := map[models.Tier]int{models.TierOwner: 0, models.TierPremium: 0, models.TierStandard: 0}
	for rows.Next() {
		var (
			tier string
			n    int
		)
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		counts[models.Tier(tier)] = n
	}
	return counts, rows.Err()
}

func (r *postgresRepository) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE last_command_at >= $1", since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) IncrementLimitUsed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET limit_used = limit_used + 1, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to increment limit: %w", err)
	}
	return expectOne(result)
}

func (r *postgresRepository) ResetLimit(ctx context.Context, id int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET limit_used = 0, last_limit_reset = $2, updated_at = NOW() WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("failed to reset limit: %w", err)
	}
	return expectOne(result)
}

func (r *postgresRepository) ResetStandardLimits(ctx context.Context, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET limit_used = 0, last_limit_reset = $2, updated_at = NOW()
		WHERE tier = $1`, string(models.TierStandard), at)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily limits: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresRepository) TouchLastCommand(ctx context.Context, id int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_command_at = $2, updated_at = NOW() WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("failed to update last command time: %w", err)
	}
	return expectOne(result)
}

func expectOne(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
