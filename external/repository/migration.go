package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE interview_status AS ENUM ('completed', 'abandoned'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS interview_records (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		interview_id TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL,
		status interview_status NOT NULL,
		end_reason TEXT NOT NULL,
		timezone TEXT NOT NULL,
		duration_seconds BIGINT NOT NULL,
		total_questions INTEGER NOT NULL DEFAULT 0,
		answered_questions INTEGER NOT NULL DEFAULT 0,
		recording_path TEXT NOT NULL DEFAULT '',
		completion_message TEXT NOT NULL DEFAULT '',
		transcript_text TEXT NOT NULL DEFAULT '',
		webhook_payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interview_records_interview ON interview_records (interview_id, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS interview_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		record_id UUID NOT NULL REFERENCES interview_records(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		message_index INTEGER NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL,
		UNIQUE(record_id, message_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interview_messages_record ON interview_messages (record_id, message_index)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
