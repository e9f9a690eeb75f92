package backend

import (
	"context"
	"errors"
	"fmt"
)

type Question struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Text     string `json:"question"`
	Answered bool   `json:"answered"`
}

func (q Question) Technical() bool {
	return q.Type == "technical"
}

type QuestionsResult struct {
	Ready     bool
	Questions []Question
	Message   string
}

type CompleteResult struct {
	Message     string
	RedirectURL string
}

type Status struct {
	Status            string `json:"status"`
	TotalQuestions    int    `json:"total_questions"`
	AnsweredQuestions int    `json:"answered_questions"`
	ReportAvailable   bool   `json:"report_available"`
}

type SnapshotRequest struct {
	InterviewID   string
	ImageDataURL  string
	EnableEmotion bool
	EnablePosture bool
}

// Analysis labels are server-defined, e.g. "Neutral" or "No Face".
type Analysis struct {
	Emotion string `json:"emotion,omitempty"`
	Posture string `json:"posture,omitempty"`
}

type Client interface {
	Start(ctx context.Context, interviewID string) error
	Questions(ctx context.Context, interviewID string) (QuestionsResult, error)
	SubmitAnswer(ctx context.Context, interviewID string, questionID int64, answer string) error
	Complete(ctx context.Context, interviewID string) (CompleteResult, error)
	Status(ctx context.Context, interviewID string) (Status, error)
	AnalyzeSnapshot(ctx context.Context, req SnapshotRequest) (Analysis, error)
}

type ErrorKind int

const (
	KindTransportFailure ErrorKind = iota
	KindServerRejected
	KindValidationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindServerRejected:
		return "server_rejected"
	case KindValidationFailed:
		return "validation_failed"
	default:
		return "transport_failure"
	}
}

type Error struct {
	Kind       ErrorKind
	Op         string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the server message when present, otherwise a generic text
// for the kind.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindValidationFailed:
		return "The server rejected the request as invalid."
	case KindServerRejected:
		return "The server declined the request."
	default:
		return "Could not reach the interview server."
	}
}

func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsTransport(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindTransportFailure
}
