package recorder

import (
	"os"
	"testing"
	"time"

	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/mewkiz/flac"
)

func TestFlacRecorder_WritesDecodableFile(t *testing.T) {
	dir := t.TempDir()
	r := NewFlacRecorder(dir)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	src := audio.NewFanout()
	rec, err := r.Start("42", src)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// 1.5 blocks of samples so the final partial block is flushed on Stop.
	src.Publish(make([]byte, blockSize*3))
	if err := rec.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if src.Subscribers() != 0 {
		t.Fatal("recording still subscribed")
	}

	stream, err := flac.ParseFile(rec.Path())
	if err != nil {
		t.Fatalf("parse flac: %v", err)
	}
	defer stream.Close()
	if stream.Info.SampleRate != audio.SampleRate || stream.Info.NChannels != 1 {
		t.Fatalf("unexpected stream info: %+v", stream.Info)
	}
}

func TestFlacRecorder_Discard(t *testing.T) {
	r := NewFlacRecorder(t.TempDir())
	rec, err := r.Start("7", audio.NewFanout())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rec.Discard(); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, err := os.Stat(rec.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
}
