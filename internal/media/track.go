package media

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/foxseedlab/mensetsu/internal/audio"
)

type AudioTrack struct {
	capture audio.Capture
	out     *audio.Fanout
	enabled atomic.Bool
	unsub   func()
	stop    sync.Once
}

// NewAudioTrack forwards capture PCM to its own subscribers while enabled.
func NewAudioTrack(capture audio.Capture) *AudioTrack {
	t := &AudioTrack{capture: capture, out: audio.NewFanout()}
	t.enabled.Store(true)
	t.unsub = capture.Subscribe(func(pcm []byte) {
		if t.enabled.Load() {
			t.out.Publish(pcm)
		}
	})
	return t
}

func (t *AudioTrack) Subscribe(fn func(pcm []byte)) func() {
	return t.out.Subscribe(fn)
}

func (t *AudioTrack) Enabled() bool {
	return t.enabled.Load()
}

func (t *AudioTrack) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

func (t *AudioTrack) Stop() {
	t.stop.Do(func() {
		t.unsub()
		t.capture.Stop()
		t.capture.Close()
	})
}

type Camera interface {
	Frame() (image.Image, error)
	Close()
}

type VideoTrack struct {
	camera  Camera
	enabled atomic.Bool
	stopped atomic.Bool
	stop    sync.Once
}

func NewVideoTrack(camera Camera) *VideoTrack {
	t := &VideoTrack{camera: camera}
	t.enabled.Store(true)
	return t
}

func (t *VideoTrack) Enabled() bool {
	return t.enabled.Load()
}

func (t *VideoTrack) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

func (t *VideoTrack) Snapshot() (image.Image, error) {
	if t.stopped.Load() {
		return nil, ErrSessionReleased
	}
	if !t.enabled.Load() {
		return nil, ErrVideoDisabled
	}
	return t.camera.Frame()
}

func (t *VideoTrack) Stop() {
	t.stop.Do(func() {
		t.stopped.Store(true)
		t.camera.Close()
	})
}

// Stream holds the tracks of one acquisition. Either track may be nil.
type Stream struct {
	Audio *AudioTrack
	Video *VideoTrack
}

func (s *Stream) Stop() {
	if s.Audio != nil {
		s.Audio.Stop()
	}
	if s.Video != nil {
		s.Video.Stop()
	}
}

func (s *Stream) Snapshot() (image.Image, error) {
	if s.Video == nil {
		return nil, ErrNoVideoTrack
	}
	return s.Video.Snapshot()
}
