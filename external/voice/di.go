package voice

import (
	"net/http"

	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/speech"
	"github.com/samber/do/v2"
)

// RegisterDI provides a nil Synthesizer when no TTS key is configured.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (speech.Synthesizer, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.SpeechSynthesisEnabled() {
			return nil, nil
		}
		return NewOpenAISynthesizer(OpenAIConfig{
			APIKey:   c.TTSAPIKey,
			BaseURL:  c.TTSBaseURL,
			Model:    c.TTSModel,
			Language: c.SpeechLanguage,
		}, do.MustInvoke[audio.Player](i), &http.Client{Timeout: c.HTTPTimeout}), nil
	})
}
