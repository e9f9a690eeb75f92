package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Recognizer interface {
	// Recognize returns the transcript of one utterance of 16 kHz mono PCM.
	Recognize(ctx context.Context, pcm []byte, language string) (string, error)
}

type Voice struct {
	Name     string
	Language string
}

type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	// Speak blocks until the utterance has played or ctx is cancelled.
	Speak(ctx context.Context, text string, voice Voice) error
}

var (
	ErrAlreadyListening       = errors.New("speech recognition already in progress")
	ErrNoSpeech               = errors.New("no speech detected")
	ErrRecognitionUnavailable = errors.New("speech recognition is not available")
	ErrSynthesisUnavailable   = errors.New("speech unavailable")
	ErrBridgeClosed           = errors.New("speech bridge closed")
)

type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech recognition failed: %v", e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech unavailable: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// SelectVoice returns the first available voice named in preferred, or the
// first available voice. ok is false when no voice is available.
func SelectVoice(voices []Voice, preferred []string) (voice Voice, ok bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	for _, name := range preferred {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		for _, v := range voices {
			if strings.EqualFold(v.Name, name) {
				return v, true
			}
		}
	}
	return voices[0], true
}
