package media

import (
	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/media"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (media.Device, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewLocalDevice(DeviceConfig{
			APIBaseURL:      c.APIBaseURL,
			AudioDevice:     c.MediaAudioDevice,
			CameraFramePath: c.MediaCameraFramePath,
			RequireVideo:    c.MediaRequireVideo,
		}, do.MustInvoke[audio.CaptureFactory](i)), nil
	})
}
