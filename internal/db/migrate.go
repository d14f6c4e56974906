package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentencias idempotentes; el índice único de conversaciones respalda el
// get-or-create por (chatbot_id, user_identifier, channel).
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chatbots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		use_case TEXT NOT NULL DEFAULT '',
		config JSONB NOT NULL DEFAULT '{}'::jsonb,
		theme TEXT NOT NULL DEFAULT 'modern-dark',
		status TEXT NOT NULL DEFAULT 'draft',
		deployment_url TEXT NOT NULL DEFAULT '',
		embed_code TEXT NOT NULL DEFAULT '',
		deployed_at TIMESTAMPTZ,
		total_conversations INTEGER NOT NULL DEFAULT 0,
		total_messages INTEGER NOT NULL DEFAULT 0,
		satisfaction_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		chatbot_id TEXT NOT NULL REFERENCES chatbots(id) ON DELETE CASCADE,
		session_id TEXT NOT NULL DEFAULT '',
		user_identifier TEXT NOT NULL DEFAULT '',
		channel TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		satisfaction_rating INTEGER,
		lead_captured BOOLEAN NOT NULL DEFAULT false,
		goal_achieved BOOLEAN NOT NULL DEFAULT false,
		message_count INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		last_activity TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS conversations_chatbot_user_channel_idx
		ON conversations (chatbot_id, user_identifier, channel)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		message_type TEXT NOT NULL DEFAULT 'text',
		intent TEXT,
		confidence DOUBLE PRECISION,
		response_time_ms INTEGER,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS messages_conversation_sender_idx
		ON messages (conversation_id, sender)`,
	`CREATE TABLE IF NOT EXISTS integrations (
		id TEXT PRIMARY KEY,
		chatbot_id TEXT NOT NULL REFERENCES chatbots(id) ON DELETE CASCADE,
		integration_type TEXT NOT NULL,
		name TEXT NOT NULL,
		config JSONB NOT NULL DEFAULT '{}'::jsonb,
		status TEXT NOT NULL DEFAULT 'inactive',
		last_sync TIMESTAMPTZ,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (chatbot_id, integration_type)
	)`,
}

// Migrate aplica el esquema al arrancar el proceso.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
