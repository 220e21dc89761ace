// Package elevenlabs wraps the ElevenLabs text-to-speech and voice APIs.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelcast/internal/services"
)

const (
	providerName       = "elevenlabs"
	defaultBaseURL     = "https://api.elevenlabs.io/v1"
	defaultModelID     = "eleven_multilingual_v2"
	defaultFormat      = "mp3_44100_128"
	defaultHTTPTimeout = 120 * time.Second
)

// VoiceSettings are the rendering parameters sent with every synthesis request.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings returns the settings used when none are configured.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75, Style: 0, UseSpeakerBoost: true}
}

// Config captures the runtime settings required to talk to the API.
type Config struct {
	APIKey         string
	BaseURL        string
	ModelID        string
	OutputFormat   string
	TimeoutSeconds int
}

// Client talks to ElevenLabs.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg: Config{
			APIKey:       strings.TrimSpace(cfg.APIKey),
			BaseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			ModelID:      strings.TrimSpace(cfg.ModelID),
			OutputFormat: strings.TrimSpace(cfg.OutputFormat),
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = defaultBaseURL
	}
	if c.cfg.ModelID == "" {
		c.cfg.ModelID = defaultModelID
	}
	if c.cfg.OutputFormat == "" {
		c.cfg.OutputFormat = defaultFormat
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// OutputFormat returns the requested audio encoding, e.g. mp3_44100_128.
func (c *Client) OutputFormat() string {
	return c.cfg.OutputFormat
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize renders text with voiceID and returns the full audio body.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string, settings VoiceSettings) ([]byte, error) {
	body, err := c.openSynthesis(ctx, voiceID, text, settings, false)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	audio, err := io.ReadAll(body)
	if err != nil {
		return nil, services.TransportError(providerName, "read audio", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: elevenlabs: empty audio response", services.ErrUpstream)
	}
	return audio, nil
}

// Stream renders text with voiceID and returns the live response body. The
// caller must close it.
func (c *Client) Stream(ctx context.Context, voiceID, text string, settings VoiceSettings) (io.ReadCloser, error) {
	return c.openSynthesis(ctx, voiceID, text, settings, true)
}

func (c *Client) openSynthesis(ctx context.Context, voiceID, text string, settings VoiceSettings, stream bool) (io.ReadCloser, error) {
	if !c.Configured() {
		return nil, services.MissingCredential(providerName, "ELEVENLABS_API_KEY")
	}
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" {
		return nil, services.MissingCredential(providerName, "ELEVENLABS_VOICE_ID")
	}
	operation := "text-to-speech"
	path := "/text-to-speech/" + url.PathEscape(voiceID)
	if stream {
		operation = "text-to-speech stream"
		path += "/stream"
	}
	endpoint := c.cfg.BaseURL + path + "?output_format=" + url.QueryEscape(c.cfg.OutputFormat)

	encoded, err := json.Marshal(synthesisRequest{Text: text, ModelID: c.cfg.ModelID, VoiceSettings: settings})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.TransportError(providerName, operation, err)
	}
	if err := services.CheckResponse(resp, providerName, operation); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// Voice describes one voice identity available to the account.
type Voice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ListVoices enumerates the voices available to the account.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	var payload struct {
		Voices []Voice `json:"voices"`
	}
	if err := c.getJSON(ctx, "/voices", "list voices", &payload); err != nil {
		return nil, err
	}
	return payload.Voices, nil
}

// GetVoice fetches one voice by id.
func (c *Client) GetVoice(ctx context.Context, voiceID string) (Voice, error) {
	var voice Voice
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" {
		return voice, fmt.Errorf("%w: elevenlabs: voice id required", services.ErrValidation)
	}
	if err := c.getJSON(ctx, "/voices/"+url.PathEscape(voiceID), "get voice", &voice); err != nil {
		return voice, err
	}
	return voice, nil
}

// HealthCheck verifies the key by listing voices.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListVoices(ctx)
	return err
}

func (c *Client) getJSON(ctx context.Context, path, operation string, out any) error {
	if !c.Configured() {
		return services.MissingCredential(providerName, "ELEVENLABS_API_KEY")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("elevenlabs request: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.TransportError(providerName, operation, err)
	}
	defer resp.Body.Close()
	if err := services.CheckResponse(resp, providerName, operation); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: elevenlabs %s: decode response: %w", services.ErrUpstream, operation, err)
	}
	return nil
}
