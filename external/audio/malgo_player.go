package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/gen2brain/malgo"
)

type MalgoPlayer struct {
	mu  sync.Mutex
	ctx *malgo.AllocatedContext
}

func NewMalgoPlayer() audio.Player {
	return &MalgoPlayer{}
}

func (p *MalgoPlayer) context() (*malgo.AllocatedContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return p.ctx, nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	p.ctx = ctx
	return ctx, nil
}

// Play blocks until the mono S16 buffer has been played or ctx is done.
func (p *MalgoPlayer) Play(ctx context.Context, pcm []byte, sampleRate uint32) error {
	if len(pcm) == 0 {
		return nil
	}
	actx, err := p.context()
	if err != nil {
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = sampleRate

	var (
		offset   int
		done     = make(chan struct{})
		doneOnce sync.Once
	)
	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			n := copy(out, pcm[offset:])
			offset += n
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			if offset >= len(pcm) {
				doneOnce.Do(func() { close(done) })
			}
		},
	}
	dev, err := malgo.InitDevice(actx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("init playback device: %w", err)
	}
	defer dev.Uninit()

	if err := dev.Start(); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	_ = dev.Stop()
	return ctx.Err()
}

func (p *MalgoPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx == nil {
		return
	}
	freeContext(p.ctx)
	p.ctx = nil
}
