package media

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/foxseedlab/mensetsu/internal/audio"
)

type fakeCapture struct {
	*audio.Fanout
	stops  int
	closes int
}

func newFakeCapture() *fakeCapture {
	return &fakeCapture{Fanout: audio.NewFanout()}
}

func (c *fakeCapture) Start() error { return nil }
func (c *fakeCapture) Stop()        { c.stops++ }
func (c *fakeCapture) Close()       { c.closes++ }

type fakeCamera struct {
	closed bool
}

func (c *fakeCamera) Frame() (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	return img, nil
}

func (c *fakeCamera) Close() { c.closed = true }

type fakeDevice struct {
	capture *fakeCapture
	camera  *fakeCamera
	err     error
	opens   int
}

func (d *fakeDevice) Open(_ context.Context, _ Constraints) (*Stream, error) {
	d.opens++
	if d.err != nil {
		return nil, d.err
	}
	return &Stream{Audio: NewAudioTrack(d.capture), Video: NewVideoTrack(d.camera)}, nil
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{capture: newFakeCapture(), camera: &fakeCamera{}}
}

func TestAcquire_ReturnsSameStream(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev, DefaultConstraints())
	first, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	second, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if first != second || dev.opens != 1 {
		t.Fatalf("expected single open, got %d", dev.opens)
	}
}

func TestAcquire_ClassifiesDeviceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{errors.New("microphone permission denied"), KindPermissionDenied},
		{errors.New("capture device \"usb\": device not found"), KindDeviceNotFound},
		{errors.New("device busy"), KindDeviceBusy},
		{errors.New("unsupported format"), KindConstraintsUnsatisfiable},
		{errors.New("boom"), KindUnknown},
		{&AcquireError{Kind: KindSecurityError}, KindSecurityError},
	}
	for _, tc := range cases {
		dev := newFakeDevice()
		dev.err = tc.err
		s := NewSession(dev, DefaultConstraints())
		_, err := s.Acquire(context.Background())
		var acqErr *AcquireError
		if !errors.As(err, &acqErr) {
			t.Fatalf("expected AcquireError for %v, got %v", tc.err, err)
		}
		if acqErr.Kind != tc.want {
			t.Errorf("%v: expected %s, got %s", tc.err, tc.want, acqErr.Kind)
		}
		if acqErr.Message() == "" {
			t.Errorf("%v: empty message", tc.err)
		}
		if s.Stream() != nil {
			t.Errorf("%v: stream kept after failure", tc.err)
		}
	}
}

func TestAcquire_NoTracksRequested(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev, Constraints{})
	_, err := s.Acquire(context.Background())
	var acqErr *AcquireError
	if !errors.As(err, &acqErr) || acqErr.Kind != KindConstraintsUnsatisfiable {
		t.Fatalf("expected constraints error, got %v", err)
	}
	if dev.opens != 0 {
		t.Fatal("device must not be opened")
	}
}

func TestToggleAudio_MutesSubscribers(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev, DefaultConstraints())
	stream, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	received := 0
	stream.Audio.Subscribe(func(pcm []byte) { received++ })

	dev.capture.Publish([]byte{0, 1})
	enabled, err := s.ToggleAudio()
	if err != nil || enabled {
		t.Fatalf("expected audio disabled, got enabled=%v err=%v", enabled, err)
	}
	dev.capture.Publish([]byte{0, 1})
	if received != 1 {
		t.Fatalf("expected 1 delivery, got %d", received)
	}
	enabled, _ = s.ToggleAudio()
	if !enabled {
		t.Fatal("expected audio re-enabled")
	}
	dev.capture.Publish([]byte{0, 1})
	if received != 2 {
		t.Fatalf("expected 2 deliveries, got %d", received)
	}
	if dev.opens != 1 {
		t.Fatal("toggle must not reacquire")
	}
}

func TestToggleVideo_RefusesSnapshot(t *testing.T) {
	s := NewSession(newFakeDevice(), DefaultConstraints())
	stream, _ := s.Acquire(context.Background())
	if _, err := stream.Snapshot(); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := s.ToggleVideo(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := stream.Snapshot(); !errors.Is(err, ErrVideoDisabled) {
		t.Fatalf("expected ErrVideoDisabled, got %v", err)
	}
}

func TestToggle_BeforeAcquire(t *testing.T) {
	s := NewSession(newFakeDevice(), DefaultConstraints())
	if _, err := s.ToggleAudio(); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev, DefaultConstraints())
	stream, _ := s.Acquire(context.Background())
	s.Release()
	s.Release()
	if dev.capture.stops != 1 || dev.capture.closes != 1 {
		t.Fatalf("expected capture stopped once, got stops=%d closes=%d", dev.capture.stops, dev.capture.closes)
	}
	if !dev.camera.closed {
		t.Fatal("camera not closed")
	}
	if dev.capture.Subscribers() != 0 {
		t.Fatal("audio track still subscribed to capture")
	}
	if _, err := stream.Snapshot(); !errors.Is(err, ErrSessionReleased) {
		t.Fatalf("expected ErrSessionReleased, got %v", err)
	}
	if _, err := s.Acquire(context.Background()); !errors.Is(err, ErrSessionReleased) {
		t.Fatalf("expected ErrSessionReleased, got %v", err)
	}
}

func TestEncodeDataURL(t *testing.T) {
	img, _ := (&fakeCamera{}).Frame()
	url, err := EncodeDataURL(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected data url: %q", url)
	}
}
