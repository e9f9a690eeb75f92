package audio

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// Capture PCM is signed 16-bit little-endian mono at 16 kHz.
const (
	SampleRate     = 16000
	Channels       = 1
	BytesPerSample = 2
)

type Source interface {
	Subscribe(fn func(pcm []byte)) (unsubscribe func())
}

type Capture interface {
	Source
	Start() error
	Stop()
	Close()
}

type CaptureFactory func(deviceName string) (Capture, error)

type Player interface {
	Play(ctx context.Context, pcm []byte, sampleRate uint32) error
	Close()
}

// Level returns the normalised RMS of a PCM chunk in [0,1].
func Level(pcm []byte) float64 {
	if len(pcm) < BytesPerSample {
		return 0
	}
	var sumSquares float64
	n := 0
	for i := 0; i+1 < len(pcm); i += BytesPerSample {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
		n++
	}
	return math.Sqrt(sumSquares / float64(n))
}

func Duration(pcm []byte) time.Duration {
	samples := len(pcm) / (BytesPerSample * Channels)
	return time.Duration(samples) * time.Second / SampleRate
}

// Fanout delivers every published chunk to all current subscribers in
// subscription order. Subscribers get their own copy.
type Fanout struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func([]byte)
	order  []int
}

func NewFanout() *Fanout {
	return &Fanout{subs: make(map[int]func([]byte))}
}

func (f *Fanout) Subscribe(fn func(pcm []byte)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.order = append(f.order, id)
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			for i, v := range f.order {
				if v == id {
					f.order = append(f.order[:i], f.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (f *Fanout) Publish(pcm []byte) {
	f.mu.RLock()
	fns := make([]func([]byte), 0, len(f.order))
	for _, id := range f.order {
		fns = append(fns, f.subs[id])
	}
	f.mu.RUnlock()
	for _, fn := range fns {
		chunk := make([]byte, len(pcm))
		copy(chunk, pcm)
		fn(chunk)
	}
}

func (f *Fanout) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}
