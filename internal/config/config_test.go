package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                           "development",
		APIBaseURL:                    "http://localhost:8000",
		HTTPTimeout:                   15 * time.Second,
		InterviewDurationSec:          1200,
		InterviewWarningThresholdsSec: []int{300, 60},
		QuestionPollInterval:          3 * time.Second,
		QuestionPollErrorBackoff:      5 * time.Second,
		SnapshotInterval:              2 * time.Second,
		SpeechLanguage:                "en-US",
		SpeechMaxPhrase:               30 * time.Second,
		TranscriptTimezone:            "UTC",
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when required fields are missing")
	}
}

func TestValidate_RelativeBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.APIBaseURL = "/api"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for relative API base url")
	}
}

func TestValidate_InvalidDuration(t *testing.T) {
	cfg := validConfig()
	cfg.InterviewDurationSec = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive interview duration")
	}
}

func TestValidate_ThresholdOutsideBudget(t *testing.T) {
	cfg := validConfig()
	cfg.InterviewWarningThresholdsSec = []int{1200}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold equal to the budget")
	}
}

func TestValidate_NonPositivePollInterval(t *testing.T) {
	cfg := validConfig()
	cfg.QuestionPollInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero poll interval")
	}
}

func TestValidate_SpeechProjectRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.GoogleCloudProjectID = "project-id"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when credentials are missing")
	}
	cfg.GoogleCloudCredentialsJSON = `{"type":"service_account"}`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.SpeechRecognitionEnabled() {
		t.Fatal("expected speech recognition to be enabled")
	}
}

func TestValidate_RequireVideoNeedsCamera(t *testing.T) {
	cfg := validConfig()
	cfg.MediaRequireVideo = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when camera frame path is missing")
	}
}

func TestValidate_InvalidTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriptTimezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}

func TestInterviewDuration(t *testing.T) {
	cfg := validConfig()
	if got := cfg.InterviewDuration(); got != 20*time.Minute {
		t.Fatalf("unexpected duration: %s", got)
	}
}
