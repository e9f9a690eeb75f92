package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/foxseedlab/mensetsu/internal/media"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	blockSize     = 4096
	bitsPerSample = 16
)

type FlacRecorder struct {
	dir string
	now func() time.Time
}

func NewFlacRecorder(dir string) *FlacRecorder {
	return &FlacRecorder{dir: dir, now: time.Now}
}

func (r *FlacRecorder) Start(interviewID string, src audio.Source) (media.Recording, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}
	name := fmt.Sprintf("interview-%s-%s.flac", interviewID, r.now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(r.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}
	info := &meta.StreamInfo{
		BlockSizeMin:  blockSize,
		BlockSizeMax:  blockSize,
		SampleRate:    audio.SampleRate,
		NChannels:     audio.Channels,
		BitsPerSample: bitsPerSample,
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("create flac encoder: %w", err)
	}

	rec := &flacRecording{path: path, file: f, enc: enc}
	rec.unsub = src.Subscribe(rec.write)
	slog.Info("recording started", "interview_id", interviewID, "path", path)
	return rec, nil
}

type flacRecording struct {
	path  string
	file  *os.File
	enc   *flac.Encoder
	unsub func()

	mu      sync.Mutex
	pending []int16
	err     error
	closed  bool
}

func (r *flacRecording) Path() string {
	return r.path
}

func (r *flacRecording) write(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}
	for i := 0; i+1 < len(pcm); i += audio.BytesPerSample {
		r.pending = append(r.pending, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	for len(r.pending) >= blockSize {
		if err := r.encodeBlock(r.pending[:blockSize]); err != nil {
			r.err = err
			slog.Error("recording write failed", "path", r.path, "error", err)
			return
		}
		r.pending = r.pending[blockSize:]
	}
}

func (r *flacRecording) encodeBlock(block []int16) error {
	samples := make([]int32, len(block))
	for i, s := range block {
		samples[i] = int32(s)
	}
	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    audio.SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: bitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  len(block),
		}},
	}
	if err := r.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("write flac frame: %w", err)
	}
	return nil
}

// Stop flushes buffered samples and closes the file.
func (r *flacRecording) Stop() error {
	r.unsub()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.err == nil && len(r.pending) > 0 {
		r.err = r.encodeBlock(r.pending)
		r.pending = nil
	}
	if err := r.enc.Close(); err != nil && r.err == nil {
		r.err = fmt.Errorf("close flac encoder: %w", err)
	}
	// The encoder closes the file itself.
	if err := r.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) && r.err == nil {
		r.err = fmt.Errorf("close recording file: %w", err)
	}
	return r.err
}

func (r *flacRecording) Discard() error {
	_ = r.Stop()
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove recording: %w", err)
	}
	return nil
}
