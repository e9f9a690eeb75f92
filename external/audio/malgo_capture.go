package audio

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/gen2brain/malgo"
)

type MalgoCapture struct {
	*audio.Fanout

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	started bool
	closed  bool
}

// NewMalgoCapture opens the capture device whose name contains deviceName,
// or the system default when deviceName is empty.
func NewMalgoCapture(deviceName string) (audio.Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = audio.Channels
	deviceConfig.SampleRate = audio.SampleRate

	if name := strings.TrimSpace(deviceName); name != "" {
		devices, err := ctx.Devices(malgo.Capture)
		if err != nil {
			freeContext(ctx)
			return nil, fmt.Errorf("list capture devices: %w", err)
		}
		found := false
		for _, d := range devices {
			if strings.Contains(strings.ToLower(d.Name()), strings.ToLower(name)) {
				deviceConfig.Capture.DeviceID = d.ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			freeContext(ctx)
			return nil, fmt.Errorf("capture device %q: %w", name, malgo.ErrNoDevice)
		}
	}

	c := &MalgoCapture{Fanout: audio.NewFanout(), ctx: ctx}
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, _ uint32) {
			if len(data) == 0 {
				return
			}
			c.Publish(data)
		},
	}
	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		freeContext(ctx)
		return nil, fmt.Errorf("init capture device: %w", err)
	}
	c.device = dev
	return c, nil
}

func (c *MalgoCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("capture device is closed")
	}
	if c.started {
		return nil
	}
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("start capture device: %w", err)
	}
	c.started = true
	return nil
}

func (c *MalgoCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.closed {
		return
	}
	if err := c.device.Stop(); err != nil {
		slog.Warn("failed to stop capture device", "error", err)
	}
	c.started = false
}

func (c *MalgoCapture) Close() {
	c.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.device.Uninit()
	freeContext(c.ctx)
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}
