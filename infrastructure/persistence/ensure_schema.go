package persistence

import (
	"database/sql"
	"fmt"

	"pego/infrastructure/logger"
)

// EnsureSchema creates the core tables if they do not exist yet.
func EnsureSchema(db *sql.DB) error {
	ddls := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			google_id TEXT,
			avatar_url TEXT,
			bio TEXT NOT NULL DEFAULT '',
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			credit_balance BIGINT NOT NULL DEFAULT 0 CHECK (credit_balance >= 0),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			banned_at TIMESTAMPTZ,
			ban_reason TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			last_active_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS competition_rounds (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			entry_fee BIGINT NOT NULL,
			winner_count INT NOT NULL,
			total_revenue BIGINT NOT NULL DEFAULT 0,
			total_videos INT NOT NULL DEFAULT 0,
			prize_pool BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			ranking_snapshot JSONB,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			round_id TEXT NOT NULL REFERENCES competition_rounds(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			file_name TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			duration_secs DOUBLE PRECISION NOT NULL DEFAULT 0,
			view_count BIGINT NOT NULL DEFAULT 0,
			ledger_tx_id TEXT,
			upload_timestamp TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credit_transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			delta BIGINT NOT NULL,
			reason TEXT NOT NULL,
			reference_id TEXT,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payment_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL,
			method TEXT NOT NULL,
			status TEXT NOT NULL,
			purpose TEXT NOT NULL,
			reference_id TEXT,
			checkout_url TEXT,
			qr_payload TEXT,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_round ON competition_rounds((status)) WHERE status = 'active'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_refund_per_tx ON credit_transactions(reference_id) WHERE reason = 'refund'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_topup_per_session ON credit_transactions(reference_id) WHERE reason = 'topup'`,
		`CREATE INDEX IF NOT EXISTS idx_videos_round_status_views ON videos(round_id, status, view_count DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_status_created ON videos(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_tx_user_created ON credit_transactions(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_sessions_status_expires ON payment_sessions(status, expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_sessions_reference ON payment_sessions(reference_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_google_id ON users(google_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed creating index")
		}
	}
	return nil
}
