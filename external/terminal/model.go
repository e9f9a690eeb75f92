// Package terminal renders an interview session in the terminal.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/chatlog"
	"github.com/foxseedlab/mensetsu/internal/feed"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/foxseedlab/mensetsu/internal/timer"
)

const (
	defaultWidth   = 80
	defaultHeight  = 24
	chromeHeight   = 11
	minChatHeight  = 3
	answerCharMax  = 4000
	helpLine       = "ctrl+s start · enter submit · ctrl+l speak · ctrl+p pause · ctrl+a mic · ctrl+v camera · ctrl+e end · ctrl+c quit"
	endedHelpLine  = "enter or ctrl+c to exit"
	analysisLayout = "emotion: %s · posture: %s"
)

// Controller is the part of session.Controller the terminal drives.
type Controller interface {
	Start(ctx context.Context) error
	End(ctx context.Context, reason session.EndReason) error
	SubmitAnswer(ctx context.Context, text string) error
	Listen(ctx context.Context) error
	StopListening()
	TogglePause() (session.Status, error)
	ToggleAudio() (bool, error)
	ToggleVideo() (bool, error)
}

type Model struct {
	ctx         context.Context
	ctrl        Controller
	interviewID string
	loc         *time.Location

	chat  viewport.Model
	input textinput.Model
	lines []string

	width  int
	height int

	status        session.Status
	startEnabled  bool
	answerEnabled bool
	listening     bool
	audioOn       bool
	videoOn       bool
	question      *feed.Question
	position      int
	total         int
	completion    bool
	remaining     time.Duration
	warned        bool
	analysis      backend.Analysis
	ended         *session.EndResult
	lastErr       string
}

func NewModel(ctx context.Context, ctrl Controller, interviewID string, budget time.Duration, loc *time.Location) *Model {
	in := textinput.New()
	in.Placeholder = "Type your answer and press enter"
	in.CharLimit = answerCharMax
	in.Prompt = "> "
	in.Focus()

	return &Model{
		ctx:          ctx,
		ctrl:         ctrl,
		interviewID:  interviewID,
		loc:          loc,
		chat:         viewport.New(defaultWidth, defaultHeight-chromeHeight),
		input:        in,
		width:        defaultWidth,
		height:       defaultHeight,
		startEnabled: true,
		remaining:    budget,
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case statusMsg:
		m.status = session.Status(msg)
		if m.status == session.StatusActive || m.status == session.StatusIdle {
			m.lastErr = ""
		}
	case startEnabledMsg:
		m.startEnabled = bool(msg)
	case answerEnabledMsg:
		m.answerEnabled = bool(msg)
	case listeningMsg:
		m.listening = bool(msg)
	case mediaStateMsg:
		m.audioOn, m.videoOn = msg.audioOn, msg.videoOn
	case chatMsg:
		m.appendLine(chatlog.Message(msg))
	case questionMsg:
		q := msg.question
		m.question = &q
		m.position, m.total = msg.position, msg.total
		m.completion = false
	case completionMsg:
		m.question = nil
		m.completion = true
	case timerMsg:
		m.remaining = time.Duration(msg)
	case warningMsg:
		m.warned = true
	case analysisMsg:
		m.analysis = backend.Analysis(msg)
	case endedMsg:
		r := session.EndResult(msg)
		m.ended = &r
		m.question = nil
		m.completion = false
	case actionErrMsg:
		m.lastErr = fmt.Sprintf("%s: %v", msg.action, msg.err)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyCtrlS:
		if m.startEnabled && m.ended == nil {
			m.startEnabled = false
			return m, m.run("start", m.ctrl.Start)
		}
		return m, nil
	case tea.KeyCtrlE:
		if m.ended == nil {
			return m, m.run("end", func(ctx context.Context) error {
				return m.ctrl.End(ctx, session.EndReasonCandidate)
			})
		}
		return m, nil
	case tea.KeyCtrlP:
		return m, m.call("pause", func() error {
			_, err := m.ctrl.TogglePause()
			return err
		})
	case tea.KeyCtrlA:
		return m, m.call("microphone", func() error {
			_, err := m.ctrl.ToggleAudio()
			return err
		})
	case tea.KeyCtrlV:
		return m, m.call("camera", func() error {
			_, err := m.ctrl.ToggleVideo()
			return err
		})
	case tea.KeyCtrlL:
		if m.listening {
			ctrl := m.ctrl
			return m, m.call("listen", func() error {
				ctrl.StopListening()
				return nil
			})
		}
		return m, m.run("listen", m.ctrl.Listen)
	case tea.KeyEnter:
		if m.ended != nil {
			return m, tea.Quit
		}
		text := strings.TrimSpace(m.input.Value())
		if !m.answerEnabled || text == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.run("answer", func(ctx context.Context) error {
			return m.ctrl.SubmitAnswer(ctx, text)
		})
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run executes a blocking controller call off the update loop.
func (m *Model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil && !ignorable(err) {
			return actionErrMsg{action: action, err: err}
		}
		return nil
	}
}

func (m *Model) call(action string, fn func() error) tea.Cmd {
	return m.run(action, func(context.Context) error { return fn() })
}

func ignorable(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, session.ErrSessionEnded)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.chat.Width = width
	m.chat.Height = max(height-chromeHeight, minChatHeight)
	m.input.Width = max(width-4, 10)
	m.refreshChat()
}

func (m *Model) appendLine(msg chatlog.Message) {
	style, ok := roleStyles[string(msg.Role)]
	line := chatlog.Format(msg, m.loc)
	if ok {
		line = style.Render(line)
	}
	m.lines = append(m.lines, line)
	m.refreshChat()
}

func (m *Model) refreshChat() {
	content := lipgloss.NewStyle().Width(m.chat.Width).Render(strings.Join(m.lines, "\n"))
	m.chat.SetContent(content)
	m.chat.GotoBottom()
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.questionPanel())
	b.WriteString("\n")
	b.WriteString(m.chat.View())
	b.WriteString("\n")
	if m.ended == nil {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(helpLine))
	} else {
		b.WriteString(mutedStyle.Render(endedHelpLine))
	}
	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.lastErr))
	}
	return b.String()
}

func (m *Model) header() string {
	status := m.status.String()
	st, ok := statusStyles[status]
	if !ok {
		st = mutedStyle
	}
	clock := timer.Format(m.remaining)
	if m.warned {
		clock = warnStyle.Render(clock)
	}
	parts := []string{
		titleStyle.Render("mensetsu"),
		mutedStyle.Render("interview " + m.interviewID),
		st.Render(strings.ToUpper(status)),
		clock,
		mediaLabel("mic", m.audioOn) + " " + mediaLabel("cam", m.videoOn),
	}
	if m.listening {
		parts = append(parts, warnStyle.Render("● listening"))
	}
	if m.analysis.Emotion != "" || m.analysis.Posture != "" {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf(analysisLayout, orDash(m.analysis.Emotion), orDash(m.analysis.Posture))))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) questionPanel() string {
	width := max(m.width-4, 20)
	switch {
	case m.ended != nil:
		text := m.ended.Message
		if m.ended.Err != nil {
			text = "The interview ended, but the server could not complete it."
		}
		if m.ended.RedirectURL != "" {
			text += "\nReport: " + m.ended.RedirectURL
		}
		return questionBox.Width(width).Render(text)
	case m.completion:
		return questionBox.Width(width).Render("All questions answered. Press ctrl+e to finish.")
	case m.question != nil:
		label := fmt.Sprintf("Question %d/%d", m.position, m.total)
		if m.question.Technical {
			label += " · technical"
		}
		return questionBox.Width(width).Render(titleStyle.Render(label) + "\n" + m.question.Text)
	case m.status == session.StatusIdle:
		return questionBox.Width(width).Render("Press ctrl+s to start the interview.")
	default:
		return questionBox.Width(width).Render(mutedStyle.Render("Waiting for questions..."))
	}
}

func mediaLabel(name string, on bool) string {
	if on {
		return name + " on"
	}
	return mutedStyle.Render(name + " off")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Run drives the program until the user quits or ctx is cancelled.
func Run(ctx context.Context, model *Model, view *View) error {
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	view.Bind(p)
	defer view.Close()
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
