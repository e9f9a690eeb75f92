package audio

import (
	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Player, error) {
		return NewMalgoPlayer(), nil
	})
	do.ProvideValue(injector, audio.CaptureFactory(NewMalgoCapture))
}
