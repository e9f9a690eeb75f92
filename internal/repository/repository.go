package repository

import (
	"context"
	"time"
)

type MessageInput struct {
	Role    string
	Content string
	SentAt  time.Time
}

type SaveInterviewInput struct {
	InterviewID        string
	StartedAt          time.Time
	EndedAt            time.Time
	Status             InterviewStatus
	EndReason          string
	Timezone           string
	DurationSeconds    int64
	TotalQuestions     int
	AnsweredQuestions  int
	RecordingPath      string
	CompletionMessage  string
	TranscriptText     string
	WebhookPayloadJSON []byte
	Messages           []MessageInput
}

type InterviewRepository interface {
	SaveInterview(ctx context.Context, input SaveInterviewInput) (*Interview, error)
	ListInterviews(ctx context.Context, interviewID string) ([]Interview, error)
}

type TranscriptRepository interface {
	ListMessages(ctx context.Context, recordID string) ([]ChatMessage, error)
}

type Repository interface {
	InterviewRepository
	TranscriptRepository
}

// NopRepository discards everything. Used when no database is configured.
type NopRepository struct{}

func (NopRepository) SaveInterview(_ context.Context, input SaveInterviewInput) (*Interview, error) {
	return &Interview{
		InterviewID:       input.InterviewID,
		StartedAt:         input.StartedAt,
		EndedAt:           input.EndedAt,
		Status:            input.Status,
		EndReason:         input.EndReason,
		Timezone:          input.Timezone,
		DurationSeconds:   input.DurationSeconds,
		TotalQuestions:    input.TotalQuestions,
		AnsweredQuestions: input.AnsweredQuestions,
		RecordingPath:     input.RecordingPath,
		CompletionMessage: input.CompletionMessage,
	}, nil
}

func (NopRepository) ListInterviews(context.Context, string) ([]Interview, error) {
	return nil, nil
}

func (NopRepository) ListMessages(context.Context, string) ([]ChatMessage, error) {
	return nil, nil
}
