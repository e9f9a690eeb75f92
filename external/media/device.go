package media

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/foxseedlab/mensetsu/internal/media"
)

type DeviceConfig struct {
	APIBaseURL      string
	AudioDevice     string
	CameraFramePath string
	RequireVideo    bool
}

type LocalDevice struct {
	cfg        DeviceConfig
	newCapture audio.CaptureFactory
	openCamera func(path string, width, height int) (media.Camera, error)
}

func NewLocalDevice(cfg DeviceConfig, newCapture audio.CaptureFactory) *LocalDevice {
	return &LocalDevice{
		cfg:        cfg,
		newCapture: newCapture,
		openCamera: func(path string, width, height int) (media.Camera, error) {
			return OpenImageCamera(path, width, height)
		},
	}
}

func (d *LocalDevice) Open(ctx context.Context, c media.Constraints) (*media.Stream, error) {
	if !isSecureOrigin(d.cfg.APIBaseURL) {
		return nil, &media.AcquireError{
			Kind: media.KindSecurityError,
			Err:  fmt.Errorf("origin %q is neither https nor loopback", d.cfg.APIBaseURL),
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stream := &media.Stream{}
	if c.Video {
		video, err := d.openVideo(c)
		if err != nil {
			return nil, err
		}
		stream.Video = video
	}
	if c.Audio {
		capture, err := d.newCapture(d.cfg.AudioDevice)
		if err != nil {
			stream.Stop()
			return nil, classifyDeviceError("microphone", err)
		}
		if err := capture.Start(); err != nil {
			capture.Close()
			stream.Stop()
			return nil, classifyDeviceError("microphone", err)
		}
		stream.Audio = media.NewAudioTrack(capture)
	}
	if stream.Audio == nil && stream.Video == nil {
		return nil, &media.AcquireError{Kind: media.KindConstraintsUnsatisfiable}
	}
	return stream, nil
}

func (d *LocalDevice) openVideo(c media.Constraints) (*media.VideoTrack, error) {
	if strings.TrimSpace(d.cfg.CameraFramePath) == "" {
		if d.cfg.RequireVideo {
			return nil, &media.AcquireError{Kind: media.KindDeviceNotFound, Device: "camera"}
		}
		slog.Info("no camera configured; continuing audio-only")
		return nil, nil
	}
	camera, err := d.openCamera(d.cfg.CameraFramePath, c.Width, c.Height)
	if err != nil {
		if !d.cfg.RequireVideo {
			slog.Warn("camera unavailable; continuing audio-only", "error", err)
			return nil, nil
		}
		return nil, media.Classify("camera", err)
	}
	return media.NewVideoTrack(camera), nil
}

func isSecureOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
