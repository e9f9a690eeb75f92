package feed

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/mensetsu/internal/backend"
	"golang.org/x/sync/singleflight"
)

var (
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrSubmissionInFlight = errors.New("an answer for this question is already being submitted")
)

type Question struct {
	ID        int64
	Text      string
	Technical bool
	Answered  bool
}

type PollResult struct {
	Ready     bool
	Questions []Question
	Message   string
}

// Feed is the local view of an interview's questions. Questions keep the
// order in which the server first returned them and are never removed.
type Feed struct {
	client      backend.Client
	interviewID string
	polls       singleflight.Group

	mu        sync.Mutex
	questions []Question
	index     map[int64]int
	inFlight  map[int64]bool
	ready     bool
}

func New(client backend.Client, interviewID string) *Feed {
	return &Feed{
		client:      client,
		interviewID: interviewID,
		index:       make(map[int64]int),
		inFlight:    make(map[int64]bool),
	}
}

func (f *Feed) InterviewID() string {
	return f.interviewID
}

// Start asks the server to begin generating questions.
func (f *Feed) Start(ctx context.Context) error {
	return f.client.Start(ctx, f.interviewID)
}

// Poll fetches the question list once. Concurrent calls share one request.
func (f *Feed) Poll(ctx context.Context) (PollResult, error) {
	v, err, _ := f.polls.Do(f.interviewID, func() (any, error) {
		res, err := f.client.Questions(ctx, f.interviewID)
		if err != nil {
			return PollResult{}, err
		}
		if !res.Ready {
			return PollResult{Ready: false, Message: res.Message}, nil
		}
		return PollResult{Ready: true, Questions: f.merge(res.Questions), Message: res.Message}, nil
	})
	if err != nil {
		return PollResult{}, err
	}
	return v.(PollResult), nil
}

func (f *Feed) merge(incoming []backend.Question) []Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range incoming {
		if i, ok := f.index[q.ID]; ok {
			existing := &f.questions[i]
			existing.Text = q.Text
			existing.Technical = q.Technical()
			// A locally acknowledged answer is never undone by a stale poll.
			existing.Answered = existing.Answered || q.Answered
			continue
		}
		f.index[q.ID] = len(f.questions)
		f.questions = append(f.questions, Question{
			ID:        q.ID,
			Text:      q.Text,
			Technical: q.Technical(),
			Answered:  q.Answered,
		})
	}
	if len(f.questions) > 0 {
		f.ready = true
	}
	return append([]Question(nil), f.questions...)
}

func (f *Feed) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// Current returns the first unanswered question in feed order.
func (f *Feed) Current() (Question, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if !q.Answered {
			return q, true
		}
	}
	return Question{}, false
}

// Position returns the 1-based position of id in the feed.
func (f *Feed) Position(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.index[id]; ok {
		return i + 1
	}
	return 0
}

func (f *Feed) Questions() []Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Question(nil), f.questions...)
}

func (f *Feed) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.questions)
}

func (f *Feed) Answered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.questions {
		if q.Answered {
			n++
		}
	}
	return n
}

// SubmitAnswer sends text for questionID and marks the question answered
// once the server acknowledges it. On failure the question stays unanswered.
func (f *Feed) SubmitAnswer(ctx context.Context, questionID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &backend.Error{Kind: backend.KindValidationFailed, Op: "answer", Message: "Answer cannot be empty."}
	}

	f.mu.Lock()
	i, ok := f.index[questionID]
	if !ok {
		f.mu.Unlock()
		return ErrQuestionNotFound
	}
	if f.questions[i].Answered {
		f.mu.Unlock()
		return ErrAlreadyAnswered
	}
	if f.inFlight[questionID] {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	f.inFlight[questionID] = true
	f.mu.Unlock()

	err := f.client.SubmitAnswer(ctx, f.interviewID, questionID, text)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, questionID)
	if err != nil {
		slog.Warn("answer submission failed", "interview_id", f.interviewID, "question_id", questionID, "error", err)
		return err
	}
	f.questions[i].Answered = true
	return nil
}

func (f *Feed) Complete(ctx context.Context) (backend.CompleteResult, error) {
	return f.client.Complete(ctx, f.interviewID)
}

func (f *Feed) Status(ctx context.Context) (backend.Status, error) {
	return f.client.Status(ctx, f.interviewID)
}
