package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"star-referral-bot/internal/model"
)

// PostgresUserRepository stores users and their referral lists in PostgreSQL.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository instance.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Get retrieves a user and its referral lists.
// Returns ErrUserNotFound if the user does not exist.
func (r *PostgresUserRepository) Get(ctx context.Context, telegramID int64) (*model.User, error) {
	const query = `
		SELECT telegram_id, username, balance::text, referrals, referral_code,
		       wallet, referred_by, created_at, updated_at
		FROM users
		WHERE telegram_id = $1
	`

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := r.loadReferrals(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user    model.User
		balance string
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&balance,
		&user.Referrals,
		&user.ReferralCode,
		&user.Wallet,
		&user.ReferredBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balance, err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) loadReferrals(ctx context.Context, user *model.User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT referred_id FROM pending_referrals
		WHERE referrer_id = $1
		ORDER BY position
	`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get pending referrals: %w", err)
	}
	user.PendingReferrals, err = pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("failed to scan pending referrals: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT referred_id, username, completed_at FROM completed_referrals
		WHERE referrer_id = $1
		ORDER BY completed_at, referred_id
	`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get completed referrals: %w", err)
	}
	user.CompletedReferrals, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.CompletedReferral])
	if err != nil {
		return fmt.Errorf("failed to scan completed referrals: %w", err)
	}
	return nil
}

// GetOrCreate retrieves a user by Telegram ID, creating one if it doesn't exist.
// The bool reports whether the record was created by this call.
func (r *PostgresUserRepository) GetOrCreate(ctx context.Context, telegramID int64, username string) (*model.User, bool, error) {
	fresh, err := model.NewUser(telegramID, username)
	if err != nil {
		return nil, false, err
	}

	const insert = `
		INSERT INTO users (telegram_id, username, balance, referrals, referral_code, created_at, updated_at)
		VALUES ($1, $2, 0, 0, $3, NOW(), NOW())
		ON CONFLICT (telegram_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, insert, fresh.ID, fresh.Username, fresh.ReferralCode)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	user, err := r.Get(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	return user, tag.RowsAffected() == 1, nil
}

// Save writes the full record, replacing both referral lists, in one transaction.
func (r *PostgresUserRepository) Save(ctx context.Context, user *model.User) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const upsert = `
			INSERT INTO users (telegram_id, username, balance, referrals, referral_code,
			                   wallet, referred_by, created_at, updated_at)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (telegram_id) DO UPDATE SET
				username = EXCLUDED.username,
				balance = EXCLUDED.balance,
				referrals = EXCLUDED.referrals,
				wallet = EXCLUDED.wallet,
				referred_by = EXCLUDED.referred_by,
				updated_at = NOW()
		`
		createdAt := user.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := tx.Exec(ctx, upsert,
			user.ID, user.Username, user.Balance.String(), user.Referrals,
			user.ReferralCode, user.Wallet, user.ReferredBy, createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM pending_referrals WHERE referrer_id = $1`, user.ID); err != nil {
			return fmt.Errorf("failed to clear pending referrals: %w", err)
		}
		for i, id := range user.PendingReferrals {
			_, err := tx.Exec(ctx, `
				INSERT INTO pending_referrals (referrer_id, referred_id, position)
				VALUES ($1, $2, $3)
			`, user.ID, id, i)
			if err != nil {
				return fmt.Errorf("failed to save pending referral: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM completed_referrals WHERE referrer_id = $1`, user.ID); err != nil {
			return fmt.Errorf("failed to clear completed referrals: %w", err)
		}
		for _, ref := range user.CompletedReferrals {
			_, err := tx.Exec(ctx, `
				INSERT INTO completed_referrals (referrer_id, referred_id, username, completed_at)
				VALUES ($1, $2, $3, $4)
			`, user.ID, ref.UserID, ref.Username, ref.CompletedAt)
			if err != nil {
				return fmt.Errorf("failed to save completed referral: %w", err)
			}
		}
		return nil
	})
}

// Exists checks if a user with the given Telegram ID exists.
func (r *PostgresUserRepository) Exists(ctx context.Context, telegramID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE telegram_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, telegramID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Count returns the number of stored users.
func (r *PostgresUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
