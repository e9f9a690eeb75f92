package session

import (
	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/media"
	"github.com/foxseedlab/mensetsu/internal/repository"
	"github.com/foxseedlab/mensetsu/internal/speech"
	"github.com/foxseedlab/mensetsu/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		deps := Deps{
			Client:      do.MustInvoke[backend.Client](i),
			Device:      do.MustInvoke[media.Device](i),
			Recorder:    do.MustInvoke[media.Recorder](i),
			Recognizer:  do.MustInvoke[speech.Recognizer](i),
			Synthesizer: do.MustInvoke[speech.Synthesizer](i),
			Repository:  do.MustInvoke[repository.Repository](i),
			Webhook:     do.MustInvoke[webhook.Sender](i),
		}
		return NewManager(OptionsFromConfig(cfg), deps), nil
	})
}
