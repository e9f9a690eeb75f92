package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/mensetsu/internal/config"
)

type envConfig struct {
	Env string `env:"ENV" envDefault:"production"`

	APIBaseURL       string        `env:"API_BASE_URL,required"`
	APISessionCookie string        `env:"API_SESSION_COOKIE"`
	APICSRFToken     string        `env:"API_CSRF_TOKEN"`
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	InterviewDurationSec          int           `env:"INTERVIEW_DURATION_SEC" envDefault:"1200"`
	InterviewWarningThresholdsSec []int         `env:"INTERVIEW_WARNING_THRESHOLDS_SEC" envDefault:"300,60" envSeparator:","`
	QuestionPollInterval          time.Duration `env:"QUESTION_POLL_INTERVAL" envDefault:"3s"`
	QuestionPollErrorBackoff      time.Duration `env:"QUESTION_POLL_ERROR_BACKOFF" envDefault:"5s"`
	SnapshotInterval              time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"2s"`
	SnapshotEnableEmotion         bool          `env:"SNAPSHOT_ENABLE_EMOTION" envDefault:"true"`
	SnapshotEnablePosture         bool          `env:"SNAPSHOT_ENABLE_POSTURE" envDefault:"true"`

	SpeechLanguage             string        `env:"SPEECH_LANGUAGE" envDefault:"en-US"`
	SpeechMaxPhrase            time.Duration `env:"SPEECH_MAX_PHRASE" envDefault:"45s"`
	GoogleCloudProjectID       string        `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string        `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string        `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`
	TTSAPIKey                  string        `env:"TTS_API_KEY"`
	TTSBaseURL                 string        `env:"TTS_BASE_URL" envDefault:"https://api.openai.com/v1"`
	TTSModel                   string        `env:"TTS_MODEL" envDefault:"tts-1"`
	TTSPreferredVoices         []string      `env:"TTS_PREFERRED_VOICES" envDefault:"nova,shimmer,alloy" envSeparator:","`

	MediaAudioDevice      string `env:"MEDIA_AUDIO_DEVICE"`
	MediaCameraFramePath  string `env:"MEDIA_CAMERA_FRAME_PATH"`
	MediaVideoWidth       int    `env:"MEDIA_VIDEO_WIDTH" envDefault:"1280"`
	MediaVideoHeight      int    `env:"MEDIA_VIDEO_HEIGHT" envDefault:"720"`
	MediaEchoCancellation bool   `env:"MEDIA_ECHO_CANCELLATION" envDefault:"true"`
	MediaRequireVideo     bool   `env:"MEDIA_REQUIRE_VIDEO" envDefault:"false"`
	RecordingDir          string `env:"RECORDING_DIR"`
	DatabaseURL           string `env:"DATABASE_URL"`
	TranscriptWebhookURL  string `env:"TRANSCRIPT_WEBHOOK_URL"`
	TranscriptTimezone    string `env:"TRANSCRIPT_TIMEZONE" envDefault:"UTC"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                           raw.Env,
		APIBaseURL:                    raw.APIBaseURL,
		APISessionCookie:              raw.APISessionCookie,
		APICSRFToken:                  raw.APICSRFToken,
		HTTPTimeout:                   raw.HTTPTimeout,
		InterviewDurationSec:          raw.InterviewDurationSec,
		InterviewWarningThresholdsSec: raw.InterviewWarningThresholdsSec,
		QuestionPollInterval:          raw.QuestionPollInterval,
		QuestionPollErrorBackoff:      raw.QuestionPollErrorBackoff,
		SnapshotInterval:              raw.SnapshotInterval,
		SnapshotEnableEmotion:         raw.SnapshotEnableEmotion,
		SnapshotEnablePosture:         raw.SnapshotEnablePosture,
		SpeechLanguage:                raw.SpeechLanguage,
		SpeechMaxPhrase:               raw.SpeechMaxPhrase,
		GoogleCloudProjectID:          raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON:    raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:     raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:        raw.GoogleCloudSpeechModel,
		TTSAPIKey:                     raw.TTSAPIKey,
		TTSBaseURL:                    raw.TTSBaseURL,
		TTSModel:                      raw.TTSModel,
		TTSPreferredVoices:            raw.TTSPreferredVoices,
		MediaAudioDevice:              raw.MediaAudioDevice,
		MediaCameraFramePath:          raw.MediaCameraFramePath,
		MediaVideoWidth:               raw.MediaVideoWidth,
		MediaVideoHeight:              raw.MediaVideoHeight,
		MediaEchoCancellation:         raw.MediaEchoCancellation,
		MediaRequireVideo:             raw.MediaRequireVideo,
		RecordingDir:                  raw.RecordingDir,
		DatabaseURL:                   raw.DatabaseURL,
		TranscriptWebhookURL:          raw.TranscriptWebhookURL,
		TranscriptTimezone:            raw.TranscriptTimezone,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
