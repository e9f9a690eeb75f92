package transcriber

import (
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/speech"
	"github.com/samber/do/v2"
)

// RegisterDI provides a nil Recognizer when recognition is not configured.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (speech.Recognizer, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.SpeechRecognitionEnabled() {
			return nil, nil
		}
		return NewCloudSpeechRecognizer(CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Language:        c.SpeechLanguage,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		}), nil
	})
}
