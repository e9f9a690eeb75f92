// Package backendtest provides an in-memory backend.Client for tests.
package backendtest

import (
	"context"
	"sync"

	"github.com/foxseedlab/mensetsu/internal/backend"
)

type QuestionsResponse struct {
	Result backend.QuestionsResult
	Err    error
}

// FakeClient replays scripted responses. The last QuestionsResponse repeats
// once the script is exhausted.
type FakeClient struct {
	mu sync.Mutex

	StartErr       error
	Script         []QuestionsResponse
	AnswerErr      func(questionID int64) error
	AnswerGate     chan struct{}
	// QuestionsGate holds every Questions call until it is closed,
	// regardless of the caller's context, like a response already in flight.
	QuestionsGate  chan struct{}
	CompleteResult backend.CompleteResult
	CompleteErr    error
	StatusResult   backend.Status
	AnalyzeResult  backend.Analysis
	AnalyzeErr     error

	// ScriptedAnswered returns answered flags exactly as scripted, like a
	// response produced before the server stored a submission.
	ScriptedAnswered bool

	startCalls    int
	questionCalls int
	answers       map[int64]string
	answerCalls   []int64
	completeCalls int
	analyzeCalls  int
}

func New(script ...QuestionsResponse) *FakeClient {
	return &FakeClient{Script: script, answers: make(map[int64]string)}
}

func Ready(questions ...backend.Question) QuestionsResponse {
	return QuestionsResponse{Result: backend.QuestionsResult{Ready: true, Questions: questions}}
}

func NotReady() QuestionsResponse {
	return QuestionsResponse{Result: backend.QuestionsResult{Ready: false, Message: "Questions are still being generated."}}
}

func (c *FakeClient) Start(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startCalls++
	return c.StartErr
}

func (c *FakeClient) Questions(context.Context, string) (backend.QuestionsResult, error) {
	c.mu.Lock()
	c.questionCalls++
	gate := c.QuestionsGate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Script) == 0 {
		return backend.QuestionsResult{}, nil
	}
	resp := c.Script[0]
	if len(c.Script) > 1 {
		c.Script = c.Script[1:]
	}
	res := resp.Result
	// Return answered flags as the server would see them.
	qs := make([]backend.Question, len(res.Questions))
	for i, q := range res.Questions {
		if _, ok := c.answers[q.ID]; ok && !c.ScriptedAnswered {
			q.Answered = true
		}
		qs[i] = q
	}
	res.Questions = qs
	return res, resp.Err
}

func (c *FakeClient) SubmitAnswer(ctx context.Context, _ string, questionID int64, answer string) error {
	c.mu.Lock()
	c.answerCalls = append(c.answerCalls, questionID)
	gate := c.AnswerGate
	hook := c.AnswerErr
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if hook != nil {
		if err := hook(questionID); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.answers[questionID] = answer
	c.mu.Unlock()
	return nil
}

func (c *FakeClient) Complete(context.Context, string) (backend.CompleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completeCalls++
	return c.CompleteResult, c.CompleteErr
}

func (c *FakeClient) Status(context.Context, string) (backend.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.StatusResult, nil
}

func (c *FakeClient) AnalyzeSnapshot(context.Context, backend.SnapshotRequest) (backend.Analysis, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzeCalls++
	return c.AnalyzeResult, c.AnalyzeErr
}

func (c *FakeClient) StartCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startCalls
}

func (c *FakeClient) QuestionCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.questionCalls
}

func (c *FakeClient) AnswerCalls() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.answerCalls...)
}

func (c *FakeClient) Answer(questionID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.answers[questionID]
	return a, ok
}

func (c *FakeClient) CompleteCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completeCalls
}

func (c *FakeClient) AnalyzeCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyzeCalls
}

var _ backend.Client = (*FakeClient)(nil)
