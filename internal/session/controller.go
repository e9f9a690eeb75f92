package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/chatlog"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/feed"
	"github.com/foxseedlab/mensetsu/internal/media"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/speech"
	"github.com/foxseedlab/mensetsu/internal/timer"
	"github.com/foxseedlab/mensetsu/internal/webhook"
	"golang.org/x/sync/errgroup"
)

const finalizeTimeout = 15 * time.Second

var (
	ErrNotIdle           = errors.New("interview has already been started")
	ErrNotActive         = errors.New("interview is not in progress")
	ErrSessionEnded      = errors.New("interview has ended")
	ErrNoCurrentQuestion = errors.New("no question is waiting for an answer")
	ErrNoMicrophone      = errors.New("no active microphone")
)

type Options struct {
	Budget           time.Duration
	Thresholds       []time.Duration
	PollInterval     time.Duration
	PollErrorBackoff time.Duration
	SnapshotInterval time.Duration
	EnableEmotion    bool
	EnablePosture    bool
	Constraints      media.Constraints
	Speech           speech.BridgeConfig
	Timezone         string
	Location         *time.Location
}

func OptionsFromConfig(cfg *config.Config) Options {
	loc, err := time.LoadLocation(cfg.TranscriptTimezone)
	if err != nil {
		loc = time.UTC
	}
	thresholds := make([]time.Duration, 0, len(cfg.InterviewWarningThresholdsSec))
	for _, sec := range cfg.InterviewWarningThresholdsSec {
		thresholds = append(thresholds, time.Duration(sec)*time.Second)
	}
	return Options{
		Budget:           cfg.InterviewDuration(),
		Thresholds:       thresholds,
		PollInterval:     cfg.QuestionPollInterval,
		PollErrorBackoff: cfg.QuestionPollErrorBackoff,
		SnapshotInterval: cfg.SnapshotInterval,
		EnableEmotion:    cfg.SnapshotEnableEmotion,
		EnablePosture:    cfg.SnapshotEnablePosture,
		Constraints: media.Constraints{
			Audio:            true,
			Video:            true,
			Width:            cfg.MediaVideoWidth,
			Height:           cfg.MediaVideoHeight,
			EchoCancellation: cfg.MediaEchoCancellation,
			NoiseSuppression: true,
		},
		Speech: speech.BridgeConfig{
			Language:        cfg.SpeechLanguage,
			PreferredVoices: cfg.TTSPreferredVoices,
			Phrase:          speech.DefaultPhraseConfig(cfg.SpeechMaxPhrase),
		},
		Timezone: cfg.TranscriptTimezone,
		Location: loc,
	}
}

// Deps are the collaborators a Controller drives. Recognizer, Synthesizer
// and Webhook may be nil.
type Deps struct {
	Client      backend.Client
	Device      media.Device
	Recorder    media.Recorder
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Repository  repository.Repository
	Webhook     webhook.Sender
	NewTicker   timer.TickerFunc
	Now         func() time.Time
}

type State struct {
	InterviewID       string
	Status            Status
	Remaining         time.Duration
	TotalQuestions    int
	AnsweredQuestions int
	Result            EndResult
}

// Controller runs one interview through Idle, Connecting, Active, Paused
// and Ended. Every view update happens under mu after a status check, so
// nothing reaches the view once the session has ended except the end
// result itself.
type Controller struct {
	interviewID string
	opts        Options
	deps        Deps
	view        View
	log         *chatlog.Log
	feed        *feed.Feed
	timer       *timer.Service
	speech      *speech.Bridge

	mu              sync.Mutex
	status          Status
	media           *media.Session
	recording       media.Recording
	cancelLoops     context.CancelFunc
	shown           map[int64]bool
	submitting      bool
	completionShown bool
	pollFailing     bool
	startedAt       time.Time
	endedAt         time.Time
	endReason       EndReason
	result          EndResult

	firstQuestion chan struct{}
	firstOnce     sync.Once
	ended         chan struct{}
	done          chan struct{}
	loops         sync.WaitGroup
	speechWarned  atomic.Bool
}

func NewController(interviewID string, opts Options, deps Deps, view View) *Controller {
	if view == nil {
		view = NopView{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Recorder == nil {
		deps.Recorder = media.NopRecorder{}
	}
	if deps.Repository == nil {
		deps.Repository = repository.NopRepository{}
	}
	c := &Controller{
		interviewID:   interviewID,
		opts:          opts,
		deps:          deps,
		view:          view,
		log:           chatlog.NewWithClock(deps.Now),
		feed:          feed.New(deps.Client, interviewID),
		media:         media.NewSession(deps.Device, opts.Constraints),
		shown:         make(map[int64]bool),
		firstQuestion: make(chan struct{}),
		ended:         make(chan struct{}),
		done:          make(chan struct{}),
	}
	c.log.OnAppend(view.ShowMessage)
	c.timer = timer.New(opts.Budget, opts.Thresholds, deps.NewTicker, timer.Hooks{
		OnTick:      c.onTick,
		OnThreshold: c.onThreshold,
		OnExpire:    c.onExpire,
	})
	c.speech = speech.NewBridge(deps.Recognizer, deps.Synthesizer, opts.Speech, speech.Hooks{
		OnStateChange:    c.onSpeechState,
		OnSynthesisError: c.onSynthesisError,
	})
	return c
}

func (c *Controller) InterviewID() string {
	return c.interviewID
}

// Done is closed once End has finished, including archiving.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) Messages() []chatlog.Message {
	return c.log.Messages()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		InterviewID:       c.interviewID,
		Status:            c.status,
		Remaining:         c.timer.Remaining(),
		TotalQuestions:    c.feed.Total(),
		AnsweredQuestions: c.feed.Answered(),
		Result:            c.result,
	}
}

// Start acquires media, starts the interview on the server and blocks until
// the first question is shown, the session ends or ctx is done. Background
// loops keep running when ctx is cancelled after activation.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case StatusIdle:
	case StatusEnded:
		c.mu.Unlock()
		return ErrSessionEnded
	default:
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.status = StatusConnecting
	c.view.SetStartEnabled(false)
	c.view.SetStatus(StatusConnecting)
	c.system(messageConnecting)
	session := c.media
	c.mu.Unlock()

	slog.Info("acquiring media", "interview_id", c.interviewID)
	stream, err := session.Acquire(ctx)
	if err != nil {
		return c.failAcquire(err)
	}
	if err := c.activate(stream); err != nil {
		return err
	}

	if err := c.feed.Start(ctx); err != nil {
		slog.Error("failed to start interview on server", "error", err, "interview_id", c.interviewID)
		c.rollback(err)
		return err
	}
	c.startLoops(stream)

	select {
	case <-c.firstQuestion:
		return nil
	case <-c.ended:
		return ErrSessionEnded
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) failAcquire(err error) error {
	msg := err.Error()
	var acqErr *media.AcquireError
	if errors.As(err, &acqErr) {
		msg = acqErr.Message()
	}
	slog.Warn("media acquisition failed", "error", err, "interview_id", c.interviewID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusConnecting {
		return ErrSessionEnded
	}
	c.status = StatusIdle
	c.view.SetStatus(StatusIdle)
	c.view.SetStartEnabled(true)
	c.system(fmt.Sprintf(messageStartFailedFormat, msg))
	return err
}

func (c *Controller) activate(stream *media.Stream) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusConnecting {
		return ErrSessionEnded
	}
	c.status = StatusActive
	c.startedAt = c.deps.Now()

	if stream.Audio != nil {
		rec, err := c.deps.Recorder.Start(c.interviewID, stream.Audio)
		if err != nil {
			slog.Warn("failed to start recorder", "error", err, "interview_id", c.interviewID)
			c.system(fmt.Sprintf(messageRecordingFailedFormat, err))
		} else {
			c.recording = rec
		}
	}

	c.timer.Start()
	c.view.SetStatus(StatusActive)
	c.view.SetAnswerEnabled(true)
	c.view.ShowTimer(c.opts.Budget)
	c.view.SetMediaState(c.mediaStateLocked())
	c.system(startedMessage(c.opts.Budget))
	if stream.Video == nil {
		c.system(messageAudioOnly)
	}
	if !c.speech.SynthesisAvailable() && c.speechWarned.CompareAndSwap(false, true) {
		c.system(messageSpeechUnavailable)
	}
	slog.Info("interview active", "interview_id", c.interviewID, "budget", c.opts.Budget)
	return nil
}

// rollback returns a session whose start acknowledgment failed to Idle. The
// completion endpoint is never called for it.
func (c *Controller) rollback(cause error) {
	c.mu.Lock()
	if !c.status.live() {
		c.mu.Unlock()
		return
	}
	c.status = StatusIdle
	rec := c.recording
	c.recording = nil
	old := c.media
	c.media = media.NewSession(c.deps.Device, c.opts.Constraints)
	c.timer.Reset()
	c.view.SetAnswerEnabled(false)
	c.view.SetStatus(StatusIdle)
	c.view.ShowTimer(c.opts.Budget)
	c.view.SetStartEnabled(true)
	c.system(fmt.Sprintf(messageStartFailedFormat, userMessage(cause)))
	c.mu.Unlock()

	if rec != nil {
		if err := rec.Discard(); err != nil {
			slog.Warn("failed to discard recording", "error", err, "interview_id", c.interviewID)
		}
	}
	old.Release()
}

func (c *Controller) startLoops(stream *media.Stream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.status.live() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelLoops = cancel
	c.loops.Add(2)
	go c.pollQuestions(ctx)
	go c.captureSnapshots(ctx, stream)
}

func (c *Controller) pollQuestions(ctx context.Context) {
	defer c.loops.Done()
	waitingNoted := false
	for {
		res, err := c.feed.Poll(ctx)
		if ctx.Err() != nil {
			return
		}
		wait := c.opts.PollInterval
		switch {
		case err != nil:
			if backend.IsTransport(err) {
				wait = c.opts.PollErrorBackoff
			}
			slog.Warn("question poll failed", "error", err, "interview_id", c.interviewID, "retry_in", wait)
			c.notePollFailure(true)
		case !res.Ready:
			c.notePollFailure(false)
			if !waitingNoted {
				waitingNoted = true
				c.systemIfLive(messageWaitingQuestions)
			}
		default:
			c.notePollFailure(false)
			slog.Info("questions ready", "interview_id", c.interviewID, "total", len(res.Questions))
			c.mu.Lock()
			c.advanceLocked()
			c.mu.Unlock()
			return
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (c *Controller) notePollFailure(failing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.status.live() || c.pollFailing == failing {
		return
	}
	c.pollFailing = failing
	if failing {
		c.system(messagePollFailed)
	} else {
		c.system(messagePollRecovered)
	}
}

// advanceLocked shows the current question once, or the completion prompt
// when every question is answered.
func (c *Controller) advanceLocked() {
	if !c.status.live() {
		return
	}
	q, ok := c.feed.Current()
	if !ok {
		if !c.completionShown && c.feed.Ready() {
			c.completionShown = true
			c.view.SetAnswerEnabled(false)
			c.view.ShowCompletionPrompt()
			c.system(messageAllAnswered)
		}
		return
	}
	if c.shown[q.ID] {
		return
	}
	c.shown[q.ID] = true
	c.view.ShowQuestion(q, c.feed.Position(q.ID), c.feed.Total())
	c.log.AI(q.Text)
	c.firstOnce.Do(func() { close(c.firstQuestion) })
	c.speak(q.Text)
}

func (c *Controller) speak(text string) {
	if !c.speech.SynthesisAvailable() {
		return
	}
	if err := c.speech.Speak(text); err != nil && !errors.Is(err, speech.ErrBridgeClosed) {
		slog.Warn("failed to queue speech", "error", err, "interview_id", c.interviewID)
	}
}

func (c *Controller) captureSnapshots(ctx context.Context, stream *media.Stream) {
	defer c.loops.Done()
	if stream.Video == nil || (!c.opts.EnableEmotion && !c.opts.EnablePosture) {
		return
	}
	ticker := time.NewTicker(c.opts.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.analyzeSnapshot(ctx, stream)
		}
	}
}

// analyzeSnapshot is fire-and-forget: every failure is dropped.
func (c *Controller) analyzeSnapshot(ctx context.Context, stream *media.Stream) {
	img, err := stream.Snapshot()
	if err != nil {
		if !errors.Is(err, media.ErrVideoDisabled) {
			slog.Debug("snapshot skipped", "error", err, "interview_id", c.interviewID)
		}
		return
	}
	dataURL, err := media.EncodeDataURL(img)
	if err != nil {
		slog.Debug("failed to encode snapshot", "error", err, "interview_id", c.interviewID)
		return
	}
	analysis, err := c.deps.Client.AnalyzeSnapshot(ctx, backend.SnapshotRequest{
		InterviewID:   c.interviewID,
		ImageDataURL:  dataURL,
		EnableEmotion: c.opts.EnableEmotion,
		EnablePosture: c.opts.EnablePosture,
	})
	if err != nil {
		if ctx.Err() == nil {
			slog.Debug("snapshot analysis failed", "error", err, "interview_id", c.interviewID)
		}
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.live() {
		c.view.ShowAnalysis(analysis)
	}
}

// anyQuestion lets submitFor answer whichever question is current.
const anyQuestion int64 = -1

// SubmitAnswer sends text as the answer to the current question and moves
// on to the next one after the server acknowledges it.
func (c *Controller) SubmitAnswer(ctx context.Context, text string) error {
	return c.submitFor(ctx, anyQuestion, text)
}

// submitFor answers questionID, or the current question for anyQuestion.
// It fails with ErrNoCurrentQuestion once questionID is no longer current.
func (c *Controller) submitFor(ctx context.Context, questionID int64, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if err := c.liveErrLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.submitting {
		c.mu.Unlock()
		return feed.ErrSubmissionInFlight
	}
	q, ok := c.feed.Current()
	if !ok || !c.shown[q.ID] || (questionID != anyQuestion && q.ID != questionID) {
		c.mu.Unlock()
		return ErrNoCurrentQuestion
	}
	if text == "" {
		c.system(messageEmptyAnswer)
		c.mu.Unlock()
		return &backend.Error{Kind: backend.KindValidationFailed, Op: "answer", Message: messageEmptyAnswer}
	}
	c.submitting = true
	c.view.SetAnswerEnabled(false)
	c.log.User(text)
	c.mu.Unlock()

	err := c.feed.SubmitAnswer(ctx, q.ID, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if !c.status.live() {
		return err
	}
	c.view.SetAnswerEnabled(true)
	if err != nil {
		c.system(fmt.Sprintf(messageAnswerFailedFormat, userMessage(err)))
		return err
	}
	slog.Info("answer accepted", "interview_id", c.interviewID, "question_id", q.ID)
	c.advanceLocked()
	return nil
}

// Listen records one spoken phrase and submits its transcript as the answer.
func (c *Controller) Listen(ctx context.Context) error {
	c.mu.Lock()
	if err := c.liveErrLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.submitting {
		c.mu.Unlock()
		return feed.ErrSubmissionInFlight
	}
	q, ok := c.feed.Current()
	if !ok || !c.shown[q.ID] {
		c.mu.Unlock()
		return ErrNoCurrentQuestion
	}
	stream := c.media.Stream()
	c.mu.Unlock()

	if !c.speech.RecognitionAvailable() {
		c.systemIfLive(messageRecognitionOff)
		return speech.ErrRecognitionUnavailable
	}
	if stream == nil || stream.Audio == nil || !stream.Audio.Enabled() {
		c.systemIfLive(messageNoMicrophone)
		return ErrNoMicrophone
	}

	c.speech.CancelSpeech()
	text, err := c.speech.Listen(ctx, stream.Audio)
	if err != nil {
		switch {
		case errors.Is(err, speech.ErrNoSpeech):
			c.systemIfLive(messageNoSpeech)
		case errors.Is(err, speech.ErrAlreadyListening),
			errors.Is(err, speech.ErrBridgeClosed),
			errors.Is(err, context.Canceled):
		default:
			c.systemIfLive(messageRecognitionFailed)
		}
		return err
	}
	if err := c.submitFor(ctx, q.ID, text); err != nil {
		if errors.Is(err, ErrNoCurrentQuestion) {
			slog.Info("discarding spoken answer for a question that is no longer current",
				"interview_id", c.interviewID, "question_id", q.ID)
			c.systemIfLive(messageSpokenAnswerStale)
		}
		return err
	}
	return nil
}

func (c *Controller) StopListening() {
	c.speech.StopListening()
}

// Pause stops the countdown. Media stays live and answers are still accepted.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.status {
	case StatusPaused:
		return nil
	case StatusActive:
	default:
		return c.liveErrLocked()
	}
	c.status = StatusPaused
	c.timer.Pause()
	c.view.SetStatus(StatusPaused)
	c.system(messagePaused)
	return nil
}

func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.status {
	case StatusActive:
		return nil
	case StatusPaused:
	default:
		return c.liveErrLocked()
	}
	c.status = StatusActive
	c.timer.Resume()
	c.view.SetStatus(StatusActive)
	c.system(messageResumed)
	return nil
}

func (c *Controller) TogglePause() (Status, error) {
	c.mu.Lock()
	paused := c.status == StatusPaused
	c.mu.Unlock()
	var err error
	if paused {
		err = c.Resume()
	} else {
		err = c.Pause()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, err
}

func (c *Controller) ToggleAudio() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.liveErrLocked(); err != nil {
		return false, err
	}
	on, err := c.media.ToggleAudio()
	if err != nil {
		return false, err
	}
	if !on {
		c.speech.StopListening()
		c.system(messageMicMuted)
	} else {
		c.system(messageMicUnmuted)
	}
	c.view.SetMediaState(c.mediaStateLocked())
	return on, nil
}

func (c *Controller) ToggleVideo() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.liveErrLocked(); err != nil {
		return false, err
	}
	on, err := c.media.ToggleVideo()
	if err != nil {
		return false, err
	}
	if on {
		c.system(messageCameraOn)
	} else {
		c.system(messageCameraOff)
	}
	c.view.SetMediaState(c.mediaStateLocked())
	return on, nil
}

// End finishes the interview. Only the first call does the work; later calls
// wait for it. Ending a session that never became active releases its media
// without contacting the server.
func (c *Controller) End(ctx context.Context, reason EndReason) error {
	c.mu.Lock()
	if c.status == StatusEnded {
		c.mu.Unlock()
		select {
		case <-c.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	wasLive := c.status.live()
	c.status = StatusEnded
	c.endReason = reason
	c.endedAt = c.deps.Now()
	close(c.ended)
	if c.cancelLoops != nil {
		c.cancelLoops()
	}
	c.timer.Stop()
	rec := c.recording
	c.recording = nil
	session := c.media
	c.view.SetAnswerEnabled(false)
	c.view.SetStartEnabled(false)
	c.view.SetStatus(StatusEnded)
	if wasLive {
		c.system(fmt.Sprintf(messageEndingFormat, endReasonDetail(reason)))
	}
	c.mu.Unlock()

	slog.Info("ending interview", "interview_id", c.interviewID, "reason", reason, "was_live", wasLive)
	c.speech.Close()
	c.loops.Wait()

	recordingPath := ""
	if rec != nil {
		if err := rec.Stop(); err != nil {
			slog.Warn("failed to stop recorder", "error", err, "interview_id", c.interviewID)
		} else {
			recordingPath = rec.Path()
		}
	}
	session.Release()

	if !wasLive {
		close(c.done)
		return nil
	}

	result := EndResult{Reason: reason}
	res, err := c.feed.Complete(ctx)
	if err != nil {
		slog.Error("failed to complete interview", "error", err, "interview_id", c.interviewID)
		result.Err = err
		c.system(fmt.Sprintf(messageCompleteFailedFormat, userMessage(err)))
	} else {
		result.Message = res.Message
		if result.Message == "" {
			result.Message = messageCompleteDefault
		}
		result.RedirectURL = res.RedirectURL
		c.system(result.Message)
	}
	if recordingPath != "" {
		c.system(fmt.Sprintf(messageRecordingSavedFormat, recordingPath))
	}

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()
	c.view.ShowEnded(result)

	c.finalize(result, recordingPath)
	close(c.done)
	return err
}

// finalize archives the interview and posts the transcript webhook. Both are
// best effort and run concurrently.
func (c *Controller) finalize(result EndResult, recordingPath string) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	c.mu.Lock()
	meta := transcriptMeta{
		InterviewID:       c.interviewID,
		StartedAt:         c.startedAt,
		EndedAt:           c.endedAt,
		Timezone:          c.opts.Timezone,
		EndReason:         c.endReason,
		TotalQuestions:    c.feed.Total(),
		AnsweredQuestions: c.feed.Answered(),
		Completion:        result,
		RecordingPath:     recordingPath,
	}
	c.mu.Unlock()
	messages := c.log.Messages()
	payload := buildTranscriptWebhookPayload(meta, c.opts.Location, messages)

	var g errgroup.Group
	g.Go(func() error {
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			slog.Warn("failed to marshal transcript payload", "error", err, "interview_id", c.interviewID)
		}
		status := repository.InterviewStatusCompleted
		if result.Err != nil {
			status = repository.InterviewStatusAbandoned
		}
		rec, err := c.deps.Repository.SaveInterview(ctx, repository.SaveInterviewInput{
			InterviewID:        meta.InterviewID,
			StartedAt:          meta.StartedAt,
			EndedAt:            meta.EndedAt,
			Status:             status,
			EndReason:          string(meta.EndReason),
			Timezone:           meta.Timezone,
			DurationSeconds:    meta.durationSeconds(),
			TotalQuestions:     meta.TotalQuestions,
			AnsweredQuestions:  meta.AnsweredQuestions,
			RecordingPath:      recordingPath,
			CompletionMessage:  result.Message,
			TranscriptText:     payload.Transcript,
			WebhookPayloadJSON: payloadJSON,
			Messages:           buildArchiveMessages(messages),
		})
		if err != nil {
			slog.Error("failed to archive interview", "error", err, "interview_id", c.interviewID)
			return err
		}
		slog.Info("interview archived", "interview_id", c.interviewID, "record_id", rec.ID, "messages", len(messages))
		return nil
	})
	if c.deps.Webhook != nil {
		g.Go(func() error {
			if err := c.deps.Webhook.SendTranscript(ctx, payload); err != nil {
				slog.Error("failed to send webhook transcript", "error", err, "interview_id", c.interviewID)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("interview finalized with errors", "interview_id", c.interviewID)
	}
}

func (c *Controller) onTick(remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.live() {
		c.view.ShowTimer(remaining)
	}
}

func (c *Controller) onThreshold(remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.status.live() {
		return
	}
	c.view.ShowWarning(remaining)
	c.system(timeWarningMessage(remaining))
}

func (c *Controller) onExpire() {
	slog.Info("interview time expired", "interview_id", c.interviewID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
		defer cancel()
		_ = c.End(ctx, EndReasonTimeUp)
	}()
}

func (c *Controller) onSpeechState(state speech.State) {
	c.view.SetListening(state == speech.StateListening)
}

func (c *Controller) onSynthesisError(err error) {
	if c.speechWarned.CompareAndSwap(false, true) {
		c.systemIfLive(messageSpeechUnavailable)
	}
}

func (c *Controller) liveErrLocked() error {
	switch c.status {
	case StatusActive, StatusPaused:
		return nil
	case StatusEnded:
		return ErrSessionEnded
	default:
		return ErrNotActive
	}
}

func (c *Controller) mediaStateLocked() (audioOn, videoOn bool) {
	stream := c.media.Stream()
	if stream == nil {
		return false, false
	}
	audioOn = stream.Audio != nil && stream.Audio.Enabled()
	videoOn = stream.Video != nil && stream.Video.Enabled()
	return audioOn, videoOn
}

func (c *Controller) system(text string) {
	c.log.Append(chatlog.RoleSystem, text)
}

func (c *Controller) systemIfLive(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.live() {
		c.system(text)
	}
}

func userMessage(err error) string {
	var be *backend.Error
	if errors.As(err, &be) {
		return be.UserMessage()
	}
	return err.Error()
}
