package recorder

import (
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/media"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (media.Recorder, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.RecordingDir == "" {
			return media.NopRecorder{}, nil
		}
		return NewFlacRecorder(c.RecordingDir), nil
	})
}
