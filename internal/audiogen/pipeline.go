package audiogen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zenstudio/internal/lease"
	"zenstudio/internal/logging"
	"zenstudio/internal/media/wav"
	"zenstudio/internal/services"
	"zenstudio/internal/services/gemini"
	"zenstudio/internal/story"
)

// Outcome tags the result of an EnsureAudio call.
type Outcome string

const (
	// Cached means the segment already had valid audio; nothing was fetched.
	Cached Outcome = "cached"
	// Generated means new audio was synthesized, stored and attached.
	Generated Outcome = "generated"
	// FallbackRequired means no audio is available and the caller should
	// speak FallbackText locally.
	FallbackRequired Outcome = "fallback_required"
	// Busy means another operation holds the segment.
	Busy Outcome = "busy"
)

// Result is the tagged outcome of EnsureAudio.
type Result struct {
	Outcome      Outcome
	SegmentID    string
	URI          string
	FallbackText string
	Err          error
}

// OK reports whether audio is attached to the segment.
func (r Result) OK() bool {
	return r.Outcome == Cached || r.Outcome == Generated
}

// Synthesizer produces base64 PCM speech for text.
type Synthesizer interface {
	Synthesize(ctx context.Context, credential, text, voice string) (gemini.Speech, error)
}

// BlobStore persists WAV blobs and answers whether a URI still resolves.
type BlobStore interface {
	PutAudio(ctx context.Context, segmentID string, data []byte) (string, error)
	Valid(uri string) bool
}

// CredentialSource returns the credential to use for the next request.
type CredentialSource func() string

// Options tune a single EnsureAudio call.
type Options struct {
	// Refresh skips the cache check and always synthesizes.
	Refresh bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLeases shares a lease table with other orchestrators.
func WithLeases(t *lease.Table) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.leases = t
		}
	}
}

// WithCredential sets the credential source.
func WithCredential(src CredentialSource) Option {
	return func(p *Pipeline) {
		p.credential = src
	}
}

// WithVoice sets the prebuilt voice name.
func WithVoice(voice string) Option {
	return func(p *Pipeline) {
		p.voice = strings.TrimSpace(voice)
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline generates and caches narration audio.
type Pipeline struct {
	graph      *story.Graph
	synth      Synthesizer
	blobs      BlobStore
	leases     *lease.Table
	credential CredentialSource
	voice      string
	logger     *slog.Logger
}

// New constructs a pipeline over g.
func New(g *story.Graph, synth Synthesizer, blobs BlobStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		graph:  g,
		synth:  synth,
		blobs:  blobs,
		leases: lease.NewTable(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	p.logger = logging.NewComponentLogger(p.logger, "audiogen")
	return p
}

// EnsureAudio makes sure segmentID has playable audio.
func (p *Pipeline) EnsureAudio(ctx context.Context, segmentID string, opts Options) Result {
	ctx = services.WithSegmentID(ctx, segmentID)
	ctx = services.WithOperation(ctx, "audio")
	logger := logging.WithContext(ctx, p.logger)

	release, err := p.leases.Acquire(segmentID, "audio")
	if err != nil {
		logger.Info("audio request rejected", logging.Error(err))
		return Result{Outcome: Busy, SegmentID: segmentID, Err: err}
	}
	defer release()

	seg, ok := p.graph.Segment(segmentID)
	if !ok {
		return p.fallback(logger, segmentID, "", services.Wrap(services.ErrNotFound, "audiogen", "lookup", "segment "+segmentID, nil))
	}
	text := seg.Text
	if strings.TrimSpace(text) == "" {
		return p.fallback(logger, segmentID, text, services.Wrap(services.ErrValidation, "audiogen", "lookup", "segment has no text", nil))
	}
	credential := p.currentCredential()
	if credential == "" {
		return p.fallback(logger, segmentID, text, services.Wrap(services.ErrMissingCredential, "audiogen", "credential", "no api key configured", nil))
	}

	if !opts.Refresh && seg.Assets.Audio != "" && p.blobs.Valid(seg.Assets.Audio) {
		logger.Debug("audio cache hit", logging.String("uri", seg.Assets.Audio))
		return Result{Outcome: Cached, SegmentID: segmentID, URI: seg.Assets.Audio}
	}
	if p.synth == nil {
		return p.fallback(logger, segmentID, text, services.Wrap(services.ErrConfiguration, "audiogen", "synthesize", "no synthesizer configured", nil))
	}

	start := time.Now()
	speech, err := p.synth.Synthesize(ctx, credential, text, p.voice)
	if err != nil {
		return p.fallback(logger, segmentID, text, err)
	}
	pcm, err := decodePCM(speech.Data)
	if err != nil {
		return p.fallback(logger, segmentID, text, err)
	}

	format := wav.DefaultFormat
	format.SampleRate = speech.SampleRate(wav.DefaultFormat.SampleRate)
	blob := wav.Encode(pcm, format)
	uri, err := p.blobs.PutAudio(ctx, segmentID, blob)
	if err != nil {
		return p.fallback(logger, segmentID, text, err)
	}
	if !p.graph.Update(segmentID, story.Patch{Assets: &story.AssetsPatch{Audio: story.Ptr(uri)}}) {
		return p.fallback(logger, segmentID, text,
			services.Wrap(services.ErrNotFound, "audiogen", "attach", "segment removed during synthesis", nil))
	}

	logger.Info("generated audio",
		logging.String("uri", uri),
		logging.Int("pcm_bytes", len(pcm)),
		logging.Int("sample_rate", int(format.SampleRate)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return Result{Outcome: Generated, SegmentID: segmentID, URI: uri}
}

func (p *Pipeline) currentCredential() string {
	if p.credential == nil {
		return ""
	}
	return strings.TrimSpace(p.credential())
}

func (p *Pipeline) fallback(logger *slog.Logger, segmentID, text string, err error) Result {
	logger.Warn("audio unavailable; local fallback required",
		logging.Error(err),
		logging.ErrorKind(err),
	)
	return Result{Outcome: FallbackRequired, SegmentID: segmentID, FallbackText: text, Err: err}
}

func decodePCM(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, services.Wrap(services.ErrEmptyResponse, "audiogen", "decode", "no audio payload", nil)
	}
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		var rawErr error
		pcm, rawErr = base64.RawStdEncoding.DecodeString(data)
		if rawErr != nil {
			return nil, services.Wrap(services.ErrDecode, "audiogen", "decode", "invalid base64 payload", errors.Join(err, rawErr))
		}
	}
	if len(pcm) == 0 {
		return nil, services.Wrap(services.ErrEmptyResponse, "audiogen", "decode", "decoded payload is empty", nil)
	}
	if len(pcm)%2 != 0 {
		return nil, services.Wrap(services.ErrDecode, "audiogen", "decode",
			fmt.Sprintf("odd pcm length %d for 16-bit samples", len(pcm)), nil)
	}
	return pcm, nil
}
