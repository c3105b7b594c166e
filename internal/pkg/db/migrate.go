package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order; each statement is idempotent.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "users table",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				telegram_id BIGINT PRIMARY KEY,
				username VARCHAR(255) NOT NULL DEFAULT '',
				balance NUMERIC(20, 8) NOT NULL DEFAULT 0 CHECK (balance >= 0),
				referrals INT NOT NULL DEFAULT 0,
				referral_code VARCHAR(32) NOT NULL UNIQUE,
				wallet TEXT,
				referred_by BIGINT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		name: "referral tables",
		sql: `
			CREATE TABLE IF NOT EXISTS pending_referrals (
				referrer_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				referred_id BIGINT NOT NULL,
				position INT NOT NULL,
				PRIMARY KEY (referrer_id, referred_id)
			);
			CREATE TABLE IF NOT EXISTS completed_referrals (
				referrer_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				referred_id BIGINT NOT NULL,
				username VARCHAR(255) NOT NULL DEFAULT '',
				completed_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (referrer_id, referred_id)
			);
		`,
	},
	{
		name: "settings table",
		sql: `
			CREATE TABLE IF NOT EXISTS settings (
				id SMALLINT PRIMARY KEY CHECK (id = 1),
				data JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		name: "withdrawals table",
		sql: `
			CREATE TABLE IF NOT EXISTS withdrawals (
				id UUID PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				username VARCHAR(255) NOT NULL DEFAULT '',
				amount NUMERIC(20, 8) NOT NULL,
				post_link TEXT NOT NULL DEFAULT '',
				status VARCHAR(20) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_withdrawals_user_time ON withdrawals(user_id, created_at DESC);
		`,
	},
}

// Migrate applies the schema to the database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")
	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("step", i+1).Str("name", m.name).Msg("Migration applied")
	}
	log.Info().Msg("All migrations completed successfully")
	return nil
}
