package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"zenstudio/internal/assetcache"
	"zenstudio/internal/logging"
	"zenstudio/internal/services"
	"zenstudio/internal/story"
)

// Format selects a story interchange encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", value)
	}
}

// FormatForPath infers the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// document is the interchange layout: the story plus the selection.
type document struct {
	Story  story.Story `json:"story" yaml:"story"`
	Active string      `json:"active_segment,omitempty" yaml:"active_segment,omitempty"`
}

// ExportStory writes the story in format.
func (s *Session) ExportStory(w io.Writer, format Format) error {
	snap := s.graph.Snapshot()
	doc := document{Story: snap.Story, Active: snap.ActiveID}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// ImportStory replaces the story with the document read from r. The story
// is validated before anything changes.
func (s *Session) ImportStory(r io.Reader, format Format) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read story: %w", err)
	}
	var doc document
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return services.Wrap(services.ErrDecode, "studio", "import", "parse story", err)
	}
	if doc.Story.Segments == nil {
		doc.Story.Segments = map[string]story.Segment{}
	}
	if doc.Story.Order == nil {
		doc.Story.Order = []string{}
	}
	if doc.Story.Variables == nil {
		doc.Story.Variables = map[string]story.Value{}
	}
	if err := s.graph.Replace(doc.Story, doc.Active); err != nil {
		return services.Wrap(services.ErrValidation, "studio", "import", "invalid story", err)
	}
	return s.LastSaveError()
}

// ExportedAudio records one file written by ExportAudio.
type ExportedAudio struct {
	SegmentID string
	URI       string
	Path      string
}

// ExportAudio copies every segment's stored audio into dir, in display
// order, with names of the form 03-little-red-sets-out.wav. Segments whose
// audio does not resolve locally are skipped.
func (s *Session) ExportAudio(ctx context.Context, dir string) ([]ExportedAudio, error) {
	snap := s.graph.Snapshot()
	var out []ExportedAudio
	for idx, seg := range snap.Story.Ordered() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		uri := seg.Assets.Audio
		if uri == "" || !s.assets.Valid(uri) {
			continue
		}
		name := fmt.Sprintf("%02d-%s.wav", idx+1, audioSlug(seg))
		target := filepath.Join(dir, name)
		if err := s.assets.Export(uri, target); err != nil {
			return out, fmt.Errorf("export %s: %w", seg.ID, err)
		}
		out = append(out, ExportedAudio{SegmentID: seg.ID, URI: uri, Path: target})
	}
	s.logger.InfoContext(ctx, "exported audio",
		logging.String("dir", dir),
		logging.Int("files", len(out)),
	)
	return out, nil
}

func audioSlug(seg story.Segment) string {
	words := strings.Fields(seg.Text)
	if len(words) > 6 {
		words = words[:6]
	}
	if value := slug.Make(strings.Join(words, " ")); value != "" {
		return value
	}
	if value := slug.Make(seg.ID); value != "" {
		return value
	}
	return "segment"
}

// ReferencedAudio returns the set of audio URIs held by segments.
func (s *Session) ReferencedAudio() map[string]struct{} {
	snap := s.graph.Snapshot()
	keep := make(map[string]struct{}, len(snap.Story.Segments))
	for _, seg := range snap.Story.Segments {
		if assetcache.Owns(seg.Assets.Audio) {
			keep[seg.Assets.Audio] = struct{}{}
		}
	}
	return keep
}

// PruneAssets removes stored audio that no segment references.
func (s *Session) PruneAssets(ctx context.Context) (assetcache.PruneResult, error) {
	return s.assets.Prune(ctx, s.ReferencedAudio())
}
