package webhook

import "context"

const TranscriptWebhookSchemaVersion = "1"

type TranscriptWebhookMessage struct {
	Index          int    `json:"index"`
	Role           string `json:"role"`
	SentAt         string `json:"sent_at"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Text           string `json:"text"`
}

type TranscriptWebhookPayload struct {
	SchemaVersion     string                     `json:"schema_version"`
	InterviewID       string                     `json:"interview_id"`
	StartAt           string                     `json:"start_at"`
	EndAt             string                     `json:"end_at"`
	Timezone          string                     `json:"timezone"`
	DurationSeconds   int64                      `json:"duration_seconds"`
	EndReason         string                     `json:"end_reason"`
	TotalQuestions    int                        `json:"total_questions"`
	AnsweredQuestions int                        `json:"answered_questions"`
	CompletionMessage string                     `json:"completion_message,omitempty"`
	RedirectURL       string                     `json:"redirect_url,omitempty"`
	RecordingPath     string                     `json:"recording_path,omitempty"`
	MessageCount      int                        `json:"message_count"`
	Messages          []TranscriptWebhookMessage `json:"messages"`
	Transcript        string                     `json:"transcript"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptWebhookPayload) error
}
