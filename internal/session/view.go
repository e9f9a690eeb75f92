package session

import (
	"time"

	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/chatlog"
	"github.com/foxseedlab/mensetsu/internal/feed"
)

type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusActive
	StatusPaused
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

func (s Status) live() bool {
	return s == StatusActive || s == StatusPaused
}

type EndResult struct {
	Reason      EndReason
	Message     string
	RedirectURL string
	Err         error
}

// View receives every visible state change. Calls may come from any
// goroutine and must not call back into the Controller synchronously.
type View interface {
	SetStatus(status Status)
	SetStartEnabled(enabled bool)
	SetAnswerEnabled(enabled bool)
	SetListening(listening bool)
	SetMediaState(audioOn, videoOn bool)
	ShowMessage(msg chatlog.Message)
	ShowQuestion(q feed.Question, position, total int)
	ShowCompletionPrompt()
	ShowTimer(remaining time.Duration)
	ShowWarning(remaining time.Duration)
	ShowAnalysis(a backend.Analysis)
	ShowEnded(result EndResult)
}

// NopView discards every update.
type NopView struct{}

func (NopView) SetStatus(Status)                     {}
func (NopView) SetStartEnabled(bool)                 {}
func (NopView) SetAnswerEnabled(bool)                {}
func (NopView) SetListening(bool)                    {}
func (NopView) SetMediaState(bool, bool)             {}
func (NopView) ShowMessage(chatlog.Message)          {}
func (NopView) ShowQuestion(feed.Question, int, int) {}
func (NopView) ShowCompletionPrompt()                {}
func (NopView) ShowTimer(time.Duration)              {}
func (NopView) ShowWarning(time.Duration)            {}
func (NopView) ShowAnalysis(backend.Analysis)        {}
func (NopView) ShowEnded(EndResult)                  {}
