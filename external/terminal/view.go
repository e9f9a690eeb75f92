package terminal

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/chatlog"
	"github.com/foxseedlab/mensetsu/internal/feed"
	"github.com/foxseedlab/mensetsu/internal/session"
)

type statusMsg session.Status
type startEnabledMsg bool
type answerEnabledMsg bool
type listeningMsg bool
type chatMsg chatlog.Message
type completionMsg struct{}
type timerMsg time.Duration
type warningMsg time.Duration
type analysisMsg backend.Analysis
type endedMsg session.EndResult

type mediaStateMsg struct {
	audioOn bool
	videoOn bool
}

type questionMsg struct {
	question feed.Question
	position int
	total    int
}

type actionErrMsg struct {
	action string
	err    error
}

// View turns controller callbacks into bubbletea messages. Every message
// goes through one queue and a single goroutine delivers it, so the program
// sees them in the order they were sent. Messages sent before Bind wait in
// the queue.
type View struct {
	mu      sync.Mutex
	wake    *sync.Cond
	bound   bool
	closed  bool
	pending []tea.Msg
}

type msgSender interface {
	Send(msg tea.Msg)
}

func NewView() *View {
	v := &View{}
	v.wake = sync.NewCond(&v.mu)
	return v
}

func (v *View) Bind(p *tea.Program) {
	v.bind(p)
}

func (v *View) bind(s msgSender) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bound || v.closed {
		return
	}
	v.bound = true
	go v.deliver(s)
}

// Close stops delivery and drops anything still queued.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.pending = nil
	v.wake.Broadcast()
}

func (v *View) deliver(s msgSender) {
	for {
		v.mu.Lock()
		for len(v.pending) == 0 && !v.closed {
			v.wake.Wait()
		}
		if v.closed {
			v.mu.Unlock()
			return
		}
		batch := v.pending
		v.pending = nil
		v.mu.Unlock()

		for _, msg := range batch {
			s.Send(msg)
		}
	}
}

func (v *View) send(msg tea.Msg) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.pending = append(v.pending, msg)
	v.wake.Signal()
}

func (v *View) SetStatus(s session.Status) { v.send(statusMsg(s)) }
func (v *View) SetStartEnabled(e bool)     { v.send(startEnabledMsg(e)) }
func (v *View) SetAnswerEnabled(e bool)    { v.send(answerEnabledMsg(e)) }
func (v *View) SetListening(l bool)        { v.send(listeningMsg(l)) }

func (v *View) SetMediaState(audioOn, videoOn bool) {
	v.send(mediaStateMsg{audioOn: audioOn, videoOn: videoOn})
}

func (v *View) ShowMessage(m chatlog.Message) { v.send(chatMsg(m)) }

func (v *View) ShowQuestion(q feed.Question, position, total int) {
	v.send(questionMsg{question: q, position: position, total: total})
}

func (v *View) ShowCompletionPrompt()               { v.send(completionMsg{}) }
func (v *View) ShowTimer(remaining time.Duration)   { v.send(timerMsg(remaining)) }
func (v *View) ShowWarning(remaining time.Duration) { v.send(warningMsg(remaining)) }
func (v *View) ShowAnalysis(a backend.Analysis)     { v.send(analysisMsg(a)) }
func (v *View) ShowEnded(r session.EndResult)       { v.send(endedMsg(r)) }

var _ session.View = (*View)(nil)
