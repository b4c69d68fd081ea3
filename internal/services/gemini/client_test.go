package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"zenstudio/internal/services"
)

func TestSynthesizeSendsVoiceAndReturnsAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash-preview-tts:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("unexpected api key header %q", got)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig == nil || req.GenerationConfig.SpeechConfig == nil {
			t.Errorf("expected speech config, got %+v", req)
		} else if got := req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "Kore" {
			t.Errorf("unexpected voice %q", got)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "Once upon a time" {
			t.Errorf("unexpected contents %+v", req.Contents)
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/L16;codec=pcm;rate=24000","data":"AAECAw=="}}]}}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	speech, err := client.Synthesize(context.Background(), "secret", "Once upon a time", "")
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if speech.Data != "AAECAw==" {
		t.Fatalf("unexpected data %q", speech.Data)
	}
	if rate := speech.SampleRate(16000); rate != 24000 {
		t.Fatalf("unexpected sample rate %d", rate)
	}
}

func TestSynthesizeMissingCredentialSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), " ", "text", "Kore")
	if !errors.Is(err, services.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("expected no request without a credential")
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota"}}`)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).Synthesize(context.Background(), "k", "text", "Kore")
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", StatusCode(err))
	}
}

func TestSynthesizeWithoutAudioPart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]},"finishReason":"SAFETY"}]}`)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).Synthesize(context.Background(), "k", "text", "Kore")
	if !errors.Is(err, services.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestSynthesizeMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":`)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).Synthesize(context.Background(), "k", "text", "Kore")
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestSynthesizeTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(Config{BaseURL: url}).Synthesize(context.Background(), "k", "text", "Kore")
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestGenerateTextUsesRewriteModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig != nil {
			t.Errorf("text generation should not send a generation config")
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"  The woods grew darker.\n"}]}}]}`)
	}))
	defer server.Close()

	text, err := NewClient(Config{BaseURL: server.URL + "/"}).GenerateText(context.Background(), "k", "rewrite this")
	if err != nil {
		t.Fatalf("GenerateText returned error: %v", err)
	}
	if text != "The woods grew darker." {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).GenerateText(context.Background(), "k", "prompt")
	if !errors.Is(err, services.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "good" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if err := client.Ping(context.Background(), "good"); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if err := client.Ping(context.Background(), "bad"); StatusCode(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestSampleRateFallback(t *testing.T) {
	cases := map[string]uint32{
		"":                            24000,
		"audio/L16":                   24000,
		"audio/L16;rate=16000":        16000,
		"audio/L16; codec=pcm; RATE=8000": 8000,
		"audio/L16;rate=abc":          24000,
	}
	for mime, want := range cases {
		if got := (Speech{MimeType: mime}).SampleRate(24000); got != want {
			t.Fatalf("SampleRate(%q) = %d, want %d", mime, got, want)
		}
	}
}
