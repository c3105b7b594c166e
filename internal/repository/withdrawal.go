package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"star-referral-bot/internal/model"
)

// NewPostgresStore returns a Store backed by PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:       NewPostgresUserRepository(pool),
		Settings:    NewPostgresSettingsRepository(pool),
		Withdrawals: NewPostgresWithdrawalRepository(pool),
	}
}

// PostgresWithdrawalRepository handles withdrawal request persistence.
type PostgresWithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresWithdrawalRepository creates a new PostgresWithdrawalRepository instance.
func NewPostgresWithdrawalRepository(pool *pgxpool.Pool) *PostgresWithdrawalRepository {
	return &PostgresWithdrawalRepository{pool: pool}
}

// Create records a withdrawal request.
func (r *PostgresWithdrawalRepository) Create(ctx context.Context, w *model.Withdrawal) error {
	const query = `
		INSERT INTO withdrawals (id, user_id, username, amount, post_link, status, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Username, w.Amount.String(), w.PostLink, w.Status, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's withdrawals, newest first.
func (r *PostgresWithdrawalRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Withdrawal, error) {
	const query = `
		SELECT id, user_id, username, amount::text, post_link, status, created_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Withdrawal, error) {
		var (
			w      model.Withdrawal
			amount string
		)
		if err := row.Scan(&w.ID, &w.UserID, &w.Username, &amount, &w.PostLink, &w.Status, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		w.Amount = d
		return &w, nil
	})
}
