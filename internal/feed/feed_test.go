package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/backend/backendtest"
)

var (
	q1 = backend.Question{ID: 1, Type: "technical", Text: "Explain channels."}
	q2 = backend.Question{ID: 2, Type: "non-technical", Text: "Describe a failure."}
)

func readyFeed(t *testing.T, client *backendtest.FakeClient) *Feed {
	t.Helper()
	f := New(client, "10")
	res, err := f.Poll(context.Background())
	if err != nil || !res.Ready {
		t.Fatalf("expected ready poll, got %+v %v", res, err)
	}
	return f
}

func TestPoll_NotReadyThenReady(t *testing.T) {
	client := backendtest.New(backendtest.NotReady(), backendtest.Ready(q1, q2))
	f := New(client, "10")

	res, err := f.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if res.Ready || f.Ready() || f.Total() != 0 {
		t.Fatalf("expected not ready, got %+v", res)
	}
	if _, ok := f.Current(); ok {
		t.Fatal("no current question before ready")
	}

	res, err = f.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !res.Ready || len(res.Questions) != 2 || f.Total() != 2 {
		t.Fatalf("expected 2 questions, got %+v", res)
	}
	cur, ok := f.Current()
	if !ok || cur.ID != 1 || !cur.Technical {
		t.Fatalf("unexpected current question %+v", cur)
	}
	if f.Position(2) != 2 || f.Position(99) != 0 {
		t.Fatal("unexpected positions")
	}
}

func TestPoll_TransportError(t *testing.T) {
	client := backendtest.New(backendtest.QuestionsResponse{Err: &backend.Error{Kind: backend.KindTransportFailure, Op: "questions"}})
	f := New(client, "10")
	_, err := f.Poll(context.Background())
	if !backend.IsTransport(err) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestSubmitAnswer_MarksAnsweredAfterAck(t *testing.T) {
	client := backendtest.New(backendtest.Ready(q1, q2))
	f := readyFeed(t, client)

	if err := f.SubmitAnswer(context.Background(), 1, "  Channels pass values.  "); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got, _ := client.Answer(1); got != "Channels pass values." {
		t.Fatalf("unexpected submitted answer %q", got)
	}
	cur, ok := f.Current()
	if !ok || cur.ID != 2 {
		t.Fatalf("expected question 2 current, got %+v", cur)
	}
	if f.Answered() != 1 {
		t.Fatalf("expected 1 answered, got %d", f.Answered())
	}
}

func TestSubmitAnswer_AlreadyAnsweredNoNetwork(t *testing.T) {
	client := backendtest.New(backendtest.Ready(q1))
	f := readyFeed(t, client)
	if err := f.SubmitAnswer(context.Background(), 1, "first"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.SubmitAnswer(context.Background(), 1, "again"); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if calls := client.AnswerCalls(); len(calls) != 1 {
		t.Fatalf("expected a single network call, got %v", calls)
	}
}

func TestSubmitAnswer_UnknownQuestion(t *testing.T) {
	f := readyFeed(t, backendtest.New(backendtest.Ready(q1)))
	if err := f.SubmitAnswer(context.Background(), 99, "x"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestSubmitAnswer_EmptyIsValidationFailure(t *testing.T) {
	client := backendtest.New(backendtest.Ready(q1))
	f := readyFeed(t, client)
	err := f.SubmitAnswer(context.Background(), 1, "   ")
	if kind, ok := backend.KindOf(err); !ok || kind != backend.KindValidationFailed {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if len(client.AnswerCalls()) != 0 {
		t.Fatal("empty answer must not reach the server")
	}
}

func TestSubmitAnswer_FailureLeavesUnanswered(t *testing.T) {
	client := backendtest.New(backendtest.Ready(q1))
	client.AnswerErr = func(int64) error {
		return &backend.Error{Kind: backend.KindTransportFailure, Op: "answer"}
	}
	f := readyFeed(t, client)
	if err := f.SubmitAnswer(context.Background(), 1, "x"); !backend.IsTransport(err) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if cur, ok := f.Current(); !ok || cur.ID != 1 || cur.Answered {
		t.Fatalf("question must stay unanswered, got %+v", cur)
	}
	client.AnswerErr = nil
	if err := f.SubmitAnswer(context.Background(), 1, "x"); err != nil {
		t.Fatalf("retry should succeed, got %v", err)
	}
}

func TestSubmitAnswer_InFlight(t *testing.T) {
	client := backendtest.New(backendtest.Ready(q1))
	gate := make(chan struct{})
	client.AnswerGate = gate
	f := readyFeed(t, client)

	done := make(chan error, 1)
	go func() { done <- f.SubmitAnswer(context.Background(), 1, "first") }()
	for len(client.AnswerCalls()) == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := f.SubmitAnswer(context.Background(), 1, "second"); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first submission: %v", err)
	}
}

func TestPoll_NeverUnanswers(t *testing.T) {
	client := backendtest.New(backendtest.Ready(q1, q2))
	f := readyFeed(t, client)
	if err := f.SubmitAnswer(context.Background(), 1, "done"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	client.ScriptedAnswered = true
	client.Script = []backendtest.QuestionsResponse{{Result: backend.QuestionsResult{
		Ready:     true,
		Questions: []backend.Question{q1, q2, {ID: 3, Text: "New question"}},
	}}}
	if _, err := f.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	qs := f.Questions()
	if len(qs) != 3 || !qs[0].Answered {
		t.Fatalf("expected answered flag kept and new question appended, got %+v", qs)
	}
}
