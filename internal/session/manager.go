package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInterviewOpen      = errors.New("interview already has a live session")
	ErrInterviewIDMissing = errors.New("interview id is required")
)

// Manager keeps at most one live Controller per interview id.
type Manager struct {
	opts Options
	deps Deps

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewManager(opts Options, deps Deps) *Manager {
	return &Manager{
		opts:        opts,
		deps:        deps,
		controllers: make(map[string]*Controller),
	}
}

// Open creates the controller for interviewID. A controller that has
// finished ending is replaced; a live one is an error.
func (m *Manager) Open(interviewID string, view View) (*Controller, error) {
	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, ErrInterviewIDMissing
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.controllers[interviewID]; ok {
		select {
		case <-existing.Done():
		default:
			return nil, fmt.Errorf("%w: %s", ErrInterviewOpen, interviewID)
		}
	}
	c := NewController(interviewID, m.opts, m.deps, view)
	m.controllers[interviewID] = c
	slog.Info("interview session opened", "interview_id", interviewID)
	return c, nil
}

func (m *Manager) Get(interviewID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.controllers[interviewID]
	return c, ok
}

// Status asks the server for the interview's progress.
func (m *Manager) Status(ctx context.Context, interviewID string) (backend.Status, error) {
	return m.deps.Client.Status(ctx, interviewID)
}

// History lists archived sessions for interviewID, newest first.
func (m *Manager) History(ctx context.Context, interviewID string) ([]repository.Interview, error) {
	if m.deps.Repository == nil {
		return nil, nil
	}
	return m.deps.Repository.ListInterviews(ctx, interviewID)
}

// Transcript returns the archived chat of one session record in send order.
func (m *Manager) Transcript(ctx context.Context, recordID string) ([]repository.ChatMessage, error) {
	if m.deps.Repository == nil {
		return nil, nil
	}
	return m.deps.Repository.ListMessages(ctx, recordID)
}

// Shutdown ends every session still tracked and waits for them to finish.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	list := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		list = append(list, c)
	}
	m.controllers = make(map[string]*Controller)
	m.mu.Unlock()

	slog.Info("shutting down interview sessions", "count", len(list))
	var g errgroup.Group
	for _, c := range list {
		g.Go(func() error {
			if err := c.End(ctx, EndReasonShutdown); err != nil {
				return fmt.Errorf("end interview %s: %w", c.InterviewID(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
