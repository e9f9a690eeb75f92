package speech

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxseedlab/mensetsu/internal/audio"
)

const phraseChunkBuffer = 256

type PhraseConfig struct {
	SpeechThreshold float64
	TrailingSilence time.Duration
	NoSpeechTimeout time.Duration
	MaxLength       time.Duration
}

func DefaultPhraseConfig(maxLength time.Duration) PhraseConfig {
	return PhraseConfig{
		SpeechThreshold: 0.02,
		TrailingSilence: 1500 * time.Millisecond,
		NoSpeechTimeout: 8 * time.Second,
		MaxLength:       maxLength,
	}
}

// CapturePhrase collects PCM from src until speech is followed by
// TrailingSilence, MaxLength of audio has been captured, or nothing was said
// within NoSpeechTimeout. Timing follows audio time, with a wall-clock
// deadline for sources that stop delivering.
func CapturePhrase(ctx context.Context, src audio.Source, cfg PhraseConfig) ([]byte, error) {
	chunks := make(chan []byte, phraseChunkBuffer)
	unsubscribe := src.Subscribe(func(pcm []byte) {
		select {
		case chunks <- pcm:
		default:
			slog.Warn("dropping audio chunk; phrase capture is behind")
		}
	})
	defer unsubscribe()

	deadline := time.NewTimer(cfg.MaxLength + cfg.TrailingSilence)
	defer deadline.Stop()

	var (
		buf     []byte
		elapsed time.Duration
		silence time.Duration
		heard   bool
	)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			if heard {
				return buf, nil
			}
			return nil, ErrNoSpeech
		case chunk := <-chunks:
			buf = append(buf, chunk...)
			d := audio.Duration(chunk)
			elapsed += d
			if audio.Level(chunk) >= cfg.SpeechThreshold {
				heard = true
				silence = 0
			} else if heard {
				silence += d
			}

			switch {
			case heard && silence >= cfg.TrailingSilence:
				return buf, nil
			case elapsed >= cfg.MaxLength:
				if heard {
					return buf, nil
				}
				return nil, ErrNoSpeech
			case !heard && elapsed >= cfg.NoSpeechTimeout:
				return nil, ErrNoSpeech
			}
		}
	}
}
