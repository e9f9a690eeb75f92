package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foxseedlab/mensetsu/internal/audio"
	"github.com/foxseedlab/mensetsu/internal/speech"
)

const (
	speechEndpoint   = "/audio/speech"
	pcmSampleRate    = 24000
	maxErrorBodySize = 4096
	defaultTimeout   = 30 * time.Second
)

var builtinVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

type OpenAISynthesizer struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	client   *http.Client
	player   audio.Player
}

func NewOpenAISynthesizer(cfg OpenAIConfig, player audio.Player, client *http.Client) *OpenAISynthesizer {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &OpenAISynthesizer{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		model:    cfg.Model,
		language: cfg.Language,
		client:   client,
		player:   player,
	}
}

func (s *OpenAISynthesizer) Voices(context.Context) ([]speech.Voice, error) {
	voices := make([]speech.Voice, 0, len(builtinVoices))
	for _, name := range builtinVoices {
		voices = append(voices, speech.Voice{Name: name, Language: s.language})
	}
	return voices, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func (s *OpenAISynthesizer) Speak(ctx context.Context, text string, voice speech.Voice) error {
	pcm, err := s.synthesize(ctx, text, voice)
	if err != nil {
		return err
	}
	return s.player.Play(ctx, pcm, pcmSampleRate)
}

func (s *OpenAISynthesizer) synthesize(ctx context.Context, text string, voice speech.Voice) ([]byte, error) {
	body, err := json.Marshal(speechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          voice.Name,
		ResponseFormat: "pcm",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+speechEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build speech request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("speech request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	return pcm, nil
}
