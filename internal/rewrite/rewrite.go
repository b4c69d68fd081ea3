// Package rewrite regenerates segment text in a target mood through a text
// generation service.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zenstudio/internal/lease"
	"zenstudio/internal/logging"
	"zenstudio/internal/services"
	"zenstudio/internal/story"
)

// TextGenerator returns a completion for a single prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, credential, prompt string) (string, error)
}

// Options tune a single Rewrite call.
type Options struct {
	// Mood overrides the segment mood. On success the new mood is stored
	// together with the rewritten text.
	Mood string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLeases shares a lease table with other orchestrators.
func WithLeases(t *lease.Table) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.leases = t
		}
	}
}

// WithCredential sets the credential source.
func WithCredential(src func() string) Option {
	return func(o *Orchestrator) {
		o.credential = src
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator rewrites segment text.
type Orchestrator struct {
	graph      *story.Graph
	gen        TextGenerator
	leases     *lease.Table
	credential func() string
	logger     *slog.Logger
}

// New constructs an orchestrator over g.
func New(g *story.Graph, gen TextGenerator, opts ...Option) *Orchestrator {
	o := &Orchestrator{graph: g, gen: gen, leases: lease.NewTable()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	o.logger = logging.NewComponentLogger(o.logger, "rewrite")
	return o
}

// BuildPrompt renders the rewrite instruction for text in mood.
func BuildPrompt(text, mood string) string {
	return fmt.Sprintf("Rewrite the following story segment to strongly reflect a \"%s\" mood.\n"+
		"Keep it concise (approx same length).\n"+
		"Text: \"%s\"\n"+
		"Return only the rewritten text.", mood, text)
}

// Rewrite replaces the text of segmentID with a rewrite in the segment's
// mood. A nil error means the text was replaced; on error the segment is
// unchanged. There is no retry.
func (o *Orchestrator) Rewrite(ctx context.Context, segmentID string, opts Options) error {
	ctx = services.WithSegmentID(ctx, segmentID)
	ctx = services.WithOperation(ctx, "rewrite")
	logger := logging.WithContext(ctx, o.logger)

	release, err := o.leases.Acquire(segmentID, "rewrite")
	if err != nil {
		return err
	}
	defer release()

	seg, ok := o.graph.Segment(segmentID)
	if !ok {
		return services.Wrap(services.ErrNotFound, "rewrite", "lookup", "segment "+segmentID, nil)
	}
	credential := ""
	if o.credential != nil {
		credential = strings.TrimSpace(o.credential())
	}
	if credential == "" {
		return services.Wrap(services.ErrMissingCredential, "rewrite", "credential", "no api key configured", nil)
	}
	if o.gen == nil {
		return services.Wrap(services.ErrConfiguration, "rewrite", "generate", "no text generator configured", nil)
	}

	mood := seg.Source.Mood
	override := strings.TrimSpace(opts.Mood)
	if override != "" {
		mood = story.NormalizeMood(override, mood)
	}

	start := time.Now()
	reply, err := o.gen.GenerateText(ctx, credential, BuildPrompt(seg.Text, mood))
	if err != nil {
		logger.Warn("rewrite failed",
			logging.Error(err),
			logging.ErrorKind(err),
		)
		return err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return services.Wrap(services.ErrEmptyResponse, "rewrite", "generate", "empty rewrite", nil)
	}

	patch := story.Patch{Text: story.Ptr(reply)}
	if override != "" {
		patch.Source = &story.SourcePatch{Mood: story.Ptr(mood)}
	}
	if !o.graph.Update(segmentID, patch) {
		return services.Wrap(services.ErrNotFound, "rewrite", "apply", "segment removed during rewrite", nil)
	}
	logger.Info("rewrote segment",
		logging.String("mood", mood),
		logging.Int("chars", len(reply)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}
