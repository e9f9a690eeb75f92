package repository

import "time"

type InterviewStatus string

const (
	InterviewStatusCompleted InterviewStatus = "completed"
	InterviewStatusAbandoned InterviewStatus = "abandoned"
)

// Interview is one archived session of a server-side interview.
type Interview struct {
	ID                string
	InterviewID       string
	StartedAt         time.Time
	EndedAt           time.Time
	Status            InterviewStatus
	EndReason         string
	Timezone          string
	DurationSeconds   int64
	TotalQuestions    int
	AnsweredQuestions int
	RecordingPath     string
	CompletionMessage string
	CreatedAt         time.Time
}

type ChatMessage struct {
	ID           string
	RecordID     string
	Role         string
	Content      string
	MessageIndex int
	SentAt       time.Time
}
