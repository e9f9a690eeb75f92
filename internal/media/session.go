package media

import (
	"context"
	"log/slog"
	"sync"
)

type Constraints struct {
	Audio            bool
	Video            bool
	Width            int
	Height           int
	EchoCancellation bool
	NoiseSuppression bool
}

func DefaultConstraints() Constraints {
	return Constraints{
		Audio:            true,
		Video:            true,
		Width:            1280,
		Height:           720,
		EchoCancellation: true,
		NoiseSuppression: true,
	}
}

type Device interface {
	Open(ctx context.Context, c Constraints) (*Stream, error)
}

// Session owns at most one Stream from acquisition until Release.
type Session struct {
	mu          sync.Mutex
	device      Device
	constraints Constraints
	stream      *Stream
	released    bool
}

func NewSession(device Device, constraints Constraints) *Session {
	return &Session{device: device, constraints: constraints}
}

func (s *Session) Acquire(ctx context.Context) (*Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, ErrSessionReleased
	}
	if s.stream != nil {
		return s.stream, nil
	}
	if !s.constraints.Audio && !s.constraints.Video {
		return nil, &AcquireError{Kind: KindConstraintsUnsatisfiable}
	}
	stream, err := s.device.Open(ctx, s.constraints)
	if err != nil {
		acqErr := Classify("", err)
		slog.Warn("media acquisition failed", "kind", acqErr.Kind.String(), "error", err)
		return nil, acqErr
	}
	s.stream = stream
	slog.Info("media acquired", "audio", stream.Audio != nil, "video", stream.Video != nil)
	return stream, nil
}

func (s *Session) Stream() *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// ToggleAudio flips the audio track and reports the new state.
func (s *Session) ToggleAudio() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil || s.stream.Audio == nil {
		return false, ErrNotAcquired
	}
	enabled := !s.stream.Audio.Enabled()
	s.stream.Audio.SetEnabled(enabled)
	return enabled, nil
}

func (s *Session) ToggleVideo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil || s.stream.Video == nil {
		return false, ErrNotAcquired
	}
	enabled := !s.stream.Video.Enabled()
	s.stream.Video.SetEnabled(enabled)
	return enabled, nil
}

// Release stops every track. Safe to call more than once.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	if s.stream != nil {
		s.stream.Stop()
		slog.Info("media released")
	}
	s.stream = nil
}

func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
