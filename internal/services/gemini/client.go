package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"zenstudio/internal/services"
)

const (
	defaultBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultTTSModel     = "gemini-2.5-flash-preview-tts"
	defaultRewriteModel = "gemini-2.5-flash"
	defaultVoice        = "Kore"
	defaultHTTPTimeout  = 60 * time.Second
	maxErrorBody        = 4 << 10
)

// Config captures the endpoint and model settings.
type Config struct {
	BaseURL        string
	TTSModel       string
	RewriteModel   string
	TimeoutSeconds int
}

// Client wraps the Gemini generateContent API.
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

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TTSModel:       strings.TrimSpace(cfg.TTSModel),
			RewriteModel:   strings.TrimSpace(cfg.RewriteModel),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.TTSModel == "" {
		client.cfg.TTSModel = defaultTTSModel
	}
	if client.cfg.RewriteModel == "" {
		client.cfg.RewriteModel = defaultRewriteModel
	}
	return client
}

// Speech is a synthesized utterance as returned by the service.
type Speech struct {
	// Data is the base64-encoded raw PCM payload.
	Data string
	// MimeType is the declared payload type, e.g. "audio/L16;codec=pcm;rate=24000".
	MimeType string
}

// SampleRate extracts the rate parameter from the mime type, returning
// fallback when it is absent or malformed.
func (s Speech) SampleRate(fallback uint32) uint32 {
	for _, param := range strings.Split(s.MimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "rate") {
			continue
		}
		rate, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
		if err != nil || rate == 0 {
			return fallback
		}
		return uint32(rate)
	}
	return fallback
}

// Synthesize requests speech for text using the prebuilt voice.
func (c *Client) Synthesize(ctx context.Context, credential, text, voice string) (Speech, error) {
	if strings.TrimSpace(credential) == "" {
		return Speech{}, services.Wrap(services.ErrMissingCredential, "gemini", "synthesize", "api key required", nil)
	}
	if strings.TrimSpace(text) == "" {
		return Speech{}, services.Wrap(services.ErrValidation, "gemini", "synthesize", "text required", nil)
	}
	if strings.TrimSpace(voice) == "" {
		voice = defaultVoice
	}
	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	}
	resp, body, err := c.generate(ctx, c.cfg.TTSModel, credential, payload, "synthesize")
	if err != nil {
		return Speech{}, err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && strings.TrimSpace(p.InlineData.Data) != "" {
				return Speech{Data: p.InlineData.Data, MimeType: p.InlineData.MimeType}, nil
			}
		}
	}
	return Speech{}, services.Wrap(services.ErrEmptyResponse, "gemini", "synthesize",
		"no audio part (response_snippet="+summarizePayloadSnippet(string(body))+")", nil)
}

// GenerateText sends a single-turn prompt and returns the trimmed text reply.
func (c *Client) GenerateText(ctx context.Context, credential, prompt string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", services.Wrap(services.ErrMissingCredential, "gemini", "generate", "api key required", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrValidation, "gemini", "generate", "prompt required", nil)
	}
	payload := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	resp, body, err := c.generate(ctx, c.cfg.RewriteModel, credential, payload, "generate")
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", services.Wrap(services.ErrEmptyResponse, "gemini", "generate",
		"no text part (response_snippet="+summarizePayloadSnippet(string(body))+")", nil)
}

// Ping lists the configured TTS model to verify the credential and endpoint.
func (c *Client) Ping(ctx context.Context, credential string) error {
	if strings.TrimSpace(credential) == "" {
		return services.Wrap(services.ErrMissingCredential, "gemini", "ping", "api key required", nil)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models", c.cfg.TTSModel)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "gemini", "ping", "build url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "gemini", "ping", "new request", err)
	}
	req.Header.Set("x-goog-api-key", credential)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "gemini", "ping", fmt.Sprintf("http error (timeout=%s)", c.timeoutDuration()), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return services.Wrap(services.ErrNetwork, "gemini", "ping", "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	return nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, summarizePayloadSnippet(e.Body))
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func (c *Client) generate(ctx context.Context, model, credential string, payload generateRequest, op string) (generateResponse, []byte, error) {
	var out generateResponse
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models", model+":generateContent")
	if err != nil {
		return out, nil, services.Wrap(services.ErrConfiguration, "gemini", op, "build url", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return out, nil, services.Wrap(services.ErrValidation, "gemini", op, "encode body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return out, nil, services.Wrap(services.ErrConfiguration, "gemini", op, "new request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, nil, services.Wrap(services.ErrNetwork, "gemini", op, fmt.Sprintf("http error (timeout=%s)", c.timeoutDuration()), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, nil, services.Wrap(services.ErrNetwork, "gemini", op, "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return out, body, services.Wrap(services.ErrNetwork, "gemini", op, "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		})
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, body, services.Wrap(services.ErrEmptyResponse, "gemini", op, "empty body", nil)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, body, services.Wrap(services.ErrDecode, "gemini", op,
			"decode response (payload snippet: "+summarizePayloadSnippet(string(body))+")", err)
	}
	if out.Error != nil {
		return out, body, services.Wrap(services.ErrNetwork, "gemini", op, "api error: "+strings.TrimSpace(out.Error.Message), nil)
	}
	return out, body, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
