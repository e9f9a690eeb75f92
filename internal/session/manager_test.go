package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/backend/backendtest"
)

func newTestManager(client *backendtest.FakeClient) (*Manager, *mockRepository) {
	repo := &mockRepository{}
	return NewManager(testOptions(), Deps{
		Client:     client,
		Device:     &fakeDevice{},
		Repository: repo,
		NewTicker:  newFakeTicker,
	}), repo
}

func TestManagerOpen_RejectsSecondLiveSession(t *testing.T) {
	m, _ := newTestManager(backendtest.New())
	if _, err := m.Open("42", nil); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := m.Open("42", nil); !errors.Is(err, ErrInterviewOpen) {
		t.Fatalf("expected ErrInterviewOpen, got %v", err)
	}
	if _, err := m.Open("43", nil); err != nil {
		t.Fatalf("different interview should open: %v", err)
	}
	if _, err := m.Open("  ", nil); !errors.Is(err, ErrInterviewIDMissing) {
		t.Fatalf("expected ErrInterviewIDMissing, got %v", err)
	}
}

func TestManagerOpen_ReplacesEndedSession(t *testing.T) {
	m, _ := newTestManager(backendtest.New())
	c, err := m.Open("42", nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := c.End(context.Background(), EndReasonCandidate); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	next, err := m.Open("42", nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if next == c {
		t.Fatal("expected a fresh controller")
	}
	if got, ok := m.Get("42"); !ok || got != next {
		t.Fatal("Get should return the newest controller")
	}
}

func TestManagerShutdown_EndsLiveSessions(t *testing.T) {
	client := backendtest.New(backendtest.Ready(backend.Question{ID: 1, Text: "Why Go?"}))
	m, repo := newTestManager(client)
	c, err := m.Open("42", nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("controller should be done after shutdown")
	}
	if st := c.State(); st.Result.Reason != EndReasonShutdown {
		t.Fatalf("unexpected reason: %s", st.Result.Reason)
	}
	if client.CompleteCalls() != 1 {
		t.Fatalf("expected one complete call, got %d", client.CompleteCalls())
	}
	if len(repo.Saved()) != 1 {
		t.Fatal("expected archived interview")
	}
	if _, ok := m.Get("42"); ok {
		t.Fatal("shutdown should forget controllers")
	}
}

func TestManagerStatus_DelegatesToClient(t *testing.T) {
	client := backendtest.New()
	client.StatusResult = backend.Status{Status: "in_progress", TotalQuestions: 5, AnsweredQuestions: 2}
	m, _ := newTestManager(client)
	st, err := m.Status(context.Background(), "42")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if st.AnsweredQuestions != 2 || st.TotalQuestions != 5 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestManagerHistory_ListsArchivedSessions(t *testing.T) {
	client := backendtest.New(backendtest.Ready(backend.Question{ID: 1, Type: "technical", Text: "Q1"}))
	m, _ := newTestManager(client)
	c, err := m.Open("42", nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := c.End(ctx, EndReasonCandidate); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	history, err := m.History(context.Background(), "42")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 || history[0].EndReason != string(EndReasonCandidate) {
		t.Fatalf("unexpected history: %+v", history)
	}

	messages, err := m.Transcript(context.Background(), history[0].ID)
	if err != nil {
		t.Fatalf("transcript failed: %v", err)
	}
	if len(messages) == 0 {
		t.Fatal("expected archived chat messages")
	}
	for i, msg := range messages {
		if msg.MessageIndex != i {
			t.Fatalf("message %d has index %d", i, msg.MessageIndex)
		}
	}
}

func TestManagerHistory_NoRepository(t *testing.T) {
	m := NewManager(testOptions(), Deps{Client: backendtest.New()})
	history, err := m.History(context.Background(), "42")
	if err != nil || history != nil {
		t.Fatalf("expected empty history, got %v, %v", history, err)
	}
	messages, err := m.Transcript(context.Background(), "record-1")
	if err != nil || messages != nil {
		t.Fatalf("expected empty transcript, got %v, %v", messages, err)
	}
}
