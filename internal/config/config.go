package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Env string

	APIBaseURL       string
	APISessionCookie string
	APICSRFToken     string
	HTTPTimeout      time.Duration

	InterviewDurationSec          int
	InterviewWarningThresholdsSec []int
	QuestionPollInterval          time.Duration
	QuestionPollErrorBackoff      time.Duration
	SnapshotInterval              time.Duration
	SnapshotEnableEmotion         bool
	SnapshotEnablePosture         bool

	SpeechLanguage             string
	SpeechMaxPhrase            time.Duration
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	TTSAPIKey                  string
	TTSBaseURL                 string
	TTSModel                   string
	TTSPreferredVoices         []string

	MediaAudioDevice      string
	MediaCameraFramePath  string
	MediaVideoWidth       int
	MediaVideoHeight      int
	MediaEchoCancellation bool
	MediaRequireVideo     bool
	RecordingDir          string
	DatabaseURL           string
	TranscriptWebhookURL  string
	TranscriptTimezone    string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.InterviewDurationSec <= 0 {
		return fmt.Errorf("INTERVIEW_DURATION_SEC must be positive, got %d", c.InterviewDurationSec)
	}
	for _, th := range c.InterviewWarningThresholdsSec {
		if th <= 0 || th >= c.InterviewDurationSec {
			return fmt.Errorf("INTERVIEW_WARNING_THRESHOLDS_SEC entries must be within (0, %d), got %d", c.InterviewDurationSec, th)
		}
	}
	for _, d := range c.durationChecks() {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	if c.GoogleCloudProjectID != "" && c.GoogleCloudCredentialsJSON == "" {
		return fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON is required when GOOGLE_CLOUD_PROJECT_ID is set")
	}
	if c.MediaRequireVideo && c.MediaCameraFramePath == "" {
		return fmt.Errorf("MEDIA_CAMERA_FRAME_PATH is required when MEDIA_REQUIRE_VIDEO=true")
	}
	if _, err := time.LoadLocation(c.TranscriptTimezone); err != nil {
		return fmt.Errorf("TRANSCRIPT_TIMEZONE is invalid: %w", err)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "API_BASE_URL", value: c.APIBaseURL},
		{name: "SPEECH_LANGUAGE", value: c.SpeechLanguage},
		{name: "TRANSCRIPT_TIMEZONE", value: c.TranscriptTimezone},
	}
}

type positiveDurationField struct {
	name  string
	value time.Duration
}

func (c *Config) durationChecks() []positiveDurationField {
	return []positiveDurationField{
		{name: "HTTP_TIMEOUT", value: c.HTTPTimeout},
		{name: "QUESTION_POLL_INTERVAL", value: c.QuestionPollInterval},
		{name: "QUESTION_POLL_ERROR_BACKOFF", value: c.QuestionPollErrorBackoff},
		{name: "SNAPSHOT_INTERVAL", value: c.SnapshotInterval},
		{name: "SPEECH_MAX_PHRASE", value: c.SpeechMaxPhrase},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) SpeechRecognitionEnabled() bool {
	return c.GoogleCloudProjectID != ""
}

func (c *Config) SpeechSynthesisEnabled() bool {
	return c.TTSAPIKey != ""
}

func (c *Config) InterviewDuration() time.Duration {
	return time.Duration(c.InterviewDurationSec) * time.Second
}
