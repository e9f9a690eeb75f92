package chatlog

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleAI     Role = "ai"
)

func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAI:
		return "Interviewer"
	default:
		return "System"
	}
}

type Message struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// Log is an append-only transcript. Listeners run synchronously in append
// order.
type Log struct {
	mu        sync.Mutex
	messages  []Message
	listeners []func(Message)
	now       func() time.Time
}

func New() *Log {
	return &Log{now: time.Now}
}

func NewWithClock(now func() time.Time) *Log {
	return &Log{now: now}
}

func (l *Log) OnAppend(fn func(Message)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Log) Append(role Role, text string) Message {
	l.mu.Lock()
	msg := Message{Role: role, Text: text, Timestamp: l.now()}
	l.messages = append(l.messages, msg)
	listeners := slices.Clone(l.listeners)
	for _, fn := range listeners {
		fn(msg)
	}
	l.mu.Unlock()
	return msg
}

func (l *Log) System(format string, args ...any) Message {
	return l.Append(RoleSystem, fmt.Sprintf(format, args...))
}

func (l *Log) User(text string) Message {
	return l.Append(RoleUser, text)
}

func (l *Log) AI(text string) Message {
	return l.Append(RoleAI, text)
}

func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.messages...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Format renders one message as "[hh:mm:ss] Label: text" in loc.
func Format(m Message, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.In(loc).Format("15:04:05"), m.Role.Label(), m.Text)
}

func FormatAll(messages []Message, loc *time.Location) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(Format(m, loc))
		b.WriteString("\n")
	}
	return b.String()
}
