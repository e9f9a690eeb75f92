package repository

import (
	"context"
	"fmt"

	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const interviewColumns = `id, interview_id, started_at, ended_at, status, end_reason, timezone,
	duration_seconds, total_questions, answered_questions, recording_path, completion_message, created_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// SaveInterview stores the record and its chat messages in one transaction.
func (r *PostgresRepository) SaveInterview(ctx context.Context, input repository.SaveInterviewInput) (*repository.Interview, error) {
	var saved *repository.Interview
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var payload any
		if len(input.WebhookPayloadJSON) > 0 {
			payload = input.WebhookPayloadJSON
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO interview_records (interview_id, started_at, ended_at, status, end_reason, timezone,
				duration_seconds, total_questions, answered_questions, recording_path, completion_message,
				transcript_text, webhook_payload)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 RETURNING `+interviewColumns,
			input.InterviewID, input.StartedAt, input.EndedAt, string(input.Status), input.EndReason, input.Timezone,
			input.DurationSeconds, input.TotalQuestions, input.AnsweredQuestions, input.RecordingPath,
			input.CompletionMessage, input.TranscriptText, payload)
		rec, err := scanInterview(row)
		if err != nil {
			return fmt.Errorf("insert interview record: %w", err)
		}

		if len(input.Messages) > 0 {
			batch := &pgx.Batch{}
			for i, m := range input.Messages {
				batch.Queue(
					`INSERT INTO interview_messages (record_id, role, content, message_index, sent_at)
					 VALUES ($1, $2, $3, $4, $5)`,
					rec.ID, m.Role, m.Content, i, m.SentAt)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert interview messages: %w", err)
			}
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *PostgresRepository) ListInterviews(ctx context.Context, interviewID string) ([]repository.Interview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+interviewColumns+`
		 FROM interview_records WHERE interview_id = $1 ORDER BY started_at DESC`,
		interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Interview
	for rows.Next() {
		rec, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) ListMessages(ctx context.Context, recordID string) ([]repository.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, record_id, role, content, message_index, sent_at
		 FROM interview_messages WHERE record_id = $1 ORDER BY message_index ASC`,
		recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.ChatMessage
	for rows.Next() {
		var m repository.ChatMessage
		if err := rows.Scan(&m.ID, &m.RecordID, &m.Role, &m.Content, &m.MessageIndex, &m.SentAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanInterview(row pgx.Row) (*repository.Interview, error) {
	var rec repository.Interview
	var status string
	err := row.Scan(&rec.ID, &rec.InterviewID, &rec.StartedAt, &rec.EndedAt, &status, &rec.EndReason, &rec.Timezone,
		&rec.DurationSeconds, &rec.TotalQuestions, &rec.AnsweredQuestions, &rec.RecordingPath,
		&rec.CompletionMessage, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = repository.InterviewStatus(status)
	return &rec, nil
}
