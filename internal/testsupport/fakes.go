package testsupport

import (
	"context"
	"encoding/base64"
	"sync"

	"zenstudio/internal/services/gemini"
)

// FakeSynth is an in-memory speech synthesizer.
type FakeSynth struct {
	mu sync.Mutex

	// PCM is base64 encoded into the reply unless Data is set.
	PCM []byte
	// Data overrides the encoded payload verbatim.
	Data     *string
	MimeType string
	Err      error
	// Block, when non-nil, is waited on before replying.
	Block chan struct{}

	calls     int
	lastText  string
	lastVoice string
}

// NewFakeSynth returns a synthesizer replying with n bytes of PCM at 24 kHz.
func NewFakeSynth(n int) *FakeSynth {
	pcm := make([]byte, n)
	for i := range pcm {
		pcm[i] = byte(i % 251)
	}
	return &FakeSynth{PCM: pcm, MimeType: "audio/L16;codec=pcm;rate=24000"}
}

// Synthesize implements the synthesizer contract.
func (f *FakeSynth) Synthesize(ctx context.Context, _ string, text, voice string) (gemini.Speech, error) {
	f.mu.Lock()
	f.calls++
	f.lastText = text
	f.lastVoice = voice
	block := f.Block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return gemini.Speech{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return gemini.Speech{}, f.Err
	}
	data := base64.StdEncoding.EncodeToString(f.PCM)
	if f.Data != nil {
		data = *f.Data
	}
	return gemini.Speech{Data: data, MimeType: f.MimeType}, nil
}

// Calls returns how many times Synthesize was invoked.
func (f *FakeSynth) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastText returns the text of the most recent request.
func (f *FakeSynth) LastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastText
}

// LastVoice returns the voice of the most recent request.
func (f *FakeSynth) LastVoice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastVoice
}

// FakeTextGen is an in-memory text generator.
type FakeTextGen struct {
	mu sync.Mutex

	Reply string
	Err   error
	Block chan struct{}

	calls      int
	lastPrompt string
}

// GenerateText implements the text generation contract.
func (f *FakeTextGen) GenerateText(ctx context.Context, _ string, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastPrompt = prompt
	block := f.Block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reply, f.Err
}

// Calls returns how many times GenerateText was invoked.
func (f *FakeTextGen) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastPrompt returns the most recent prompt.
func (f *FakeTextGen) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompt
}
