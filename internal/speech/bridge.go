package speech

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/mensetsu/internal/audio"
)

type State int

const (
	StateIdle State = iota
	StateListening
)

func (s State) String() string {
	if s == StateListening {
		return "listening"
	}
	return "idle"
}

type Hooks struct {
	OnStateChange    func(State)
	OnSynthesisError func(error)
}

type BridgeConfig struct {
	Language        string
	PreferredVoices []string
	Phrase          PhraseConfig
}

// Bridge runs single-shot recognition and serialised speech output.
// Recognizer and synthesizer may be nil when the platform lacks them.
type Bridge struct {
	recognizer Recognizer
	synth      Synthesizer
	cfg        BridgeConfig
	hooks      Hooks

	mu           sync.Mutex
	state        State
	cancelListen context.CancelFunc
	speakCancel  context.CancelFunc
	speakDone    chan struct{}
	voice        *Voice
	closed       bool
}

func NewBridge(recognizer Recognizer, synth Synthesizer, cfg BridgeConfig, hooks Hooks) *Bridge {
	return &Bridge{recognizer: recognizer, synth: synth, cfg: cfg, hooks: hooks}
}

func (b *Bridge) RecognitionAvailable() bool {
	return b.recognizer != nil
}

func (b *Bridge) SynthesisAvailable() bool {
	return b.synth != nil
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Listen captures one phrase from src and returns its transcript. The bridge
// returns to idle on completion, error or cancellation.
func (b *Bridge) Listen(ctx context.Context, src audio.Source) (string, error) {
	if b.recognizer == nil {
		return "", ErrRecognitionUnavailable
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return "", ErrBridgeClosed
	}
	if b.state == StateListening {
		b.mu.Unlock()
		return "", ErrAlreadyListening
	}
	lctx, cancel := context.WithCancel(ctx)
	b.state = StateListening
	b.cancelListen = cancel
	b.mu.Unlock()
	b.notifyState(StateListening)

	defer func() {
		cancel()
		b.mu.Lock()
		b.state = StateIdle
		b.cancelListen = nil
		b.mu.Unlock()
		b.notifyState(StateIdle)
	}()

	pcm, err := CapturePhrase(lctx, src, b.cfg.Phrase)
	if err != nil {
		if errors.Is(err, ErrNoSpeech) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", &RecognitionError{Err: err}
	}
	text, err := b.recognizer.Recognize(lctx, pcm, b.cfg.Language)
	if err != nil {
		if lctx.Err() != nil {
			return "", lctx.Err()
		}
		return "", &RecognitionError{Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

func (b *Bridge) StopListening() {
	b.mu.Lock()
	cancel := b.cancelListen
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Speak queues text for playback, cancelling any utterance in progress. The
// new utterance starts only after the previous one has stopped.
func (b *Bridge) Speak(text string) error {
	if b.synth == nil {
		return &SynthesisError{Err: ErrSynthesisUnavailable}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBridgeClosed
	}
	prevCancel, prevDone := b.speakCancel, b.speakDone
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	b.speakCancel, b.speakDone = cancel, done
	b.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	go func() {
		defer close(done)
		defer cancel()
		if prevDone != nil {
			<-prevDone
		}
		if ctx.Err() != nil {
			return
		}
		voice, err := b.selectVoice(ctx)
		if err == nil {
			err = b.synth.Speak(ctx, text, voice)
		}
		if err != nil && ctx.Err() == nil {
			slog.Warn("speech synthesis failed", "error", err)
			if b.hooks.OnSynthesisError != nil {
				b.hooks.OnSynthesisError(&SynthesisError{Err: err})
			}
		}
	}()
	return nil
}

// CancelSpeech stops the current utterance without starting another.
func (b *Bridge) CancelSpeech() {
	b.mu.Lock()
	cancel := b.speakCancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// WaitSpeech blocks until the most recently queued utterance has finished.
func (b *Bridge) WaitSpeech() {
	b.mu.Lock()
	done := b.speakDone
	b.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.StopListening()
	b.CancelSpeech()
	b.WaitSpeech()
}

func (b *Bridge) selectVoice(ctx context.Context) (Voice, error) {
	b.mu.Lock()
	if b.voice != nil {
		v := *b.voice
		b.mu.Unlock()
		return v, nil
	}
	b.mu.Unlock()

	voices, err := b.synth.Voices(ctx)
	if err != nil {
		return Voice{}, err
	}
	voice, ok := SelectVoice(voices, b.cfg.PreferredVoices)
	if !ok {
		return Voice{}, ErrSynthesisUnavailable
	}
	b.mu.Lock()
	b.voice = &voice
	b.mu.Unlock()
	slog.Debug("speech voice selected", "voice", voice.Name)
	return voice, nil
}

func (b *Bridge) notifyState(s State) {
	if b.hooks.OnStateChange != nil {
		b.hooks.OnStateChange(s)
	}
}
