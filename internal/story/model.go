package story

import (
	"fmt"
	"strings"
)

// CurrentVersion is the format tag written with every story.
const CurrentVersion = "4.2"

// Kind labels a segment's role in the narrative. It is informational and
// never constrains navigation.
type Kind string

const (
	KindBeginning Kind = "beginning"
	KindNarration Kind = "narration"
	KindChoice    Kind = "choice"
	KindEnding    Kind = "ending"
)

// Kinds lists the accepted segment kinds in display order.
var Kinds = []Kind{KindBeginning, KindNarration, KindChoice, KindEnding}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBeginning, KindNarration, KindChoice, KindEnding:
		return true
	}
	return false
}

// ParseKind converts user input into a Kind.
func ParseKind(value string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(value)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown segment kind %q", value)
	}
	return k, nil
}

// Branch is a directed edge to another segment, optionally guarded by a
// condition expression over the story variables.
type Branch struct {
	Target    string `json:"target" yaml:"target"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Assets references the media attached to a segment.
type Assets struct {
	Audio     string `json:"audio,omitempty" yaml:"audio,omitempty"`
	Image     string `json:"image" yaml:"image"`
	Subtitles string `json:"subs,omitempty" yaml:"subs,omitempty"`
}

// SourceMeta carries presentation metadata derived at creation time.
type SourceMeta struct {
	Mood              string `json:"mood" yaml:"mood"`
	ImagePrompt       string `json:"image_prompt,omitempty" yaml:"image_prompt,omitempty"`
	EstimatedDuration string `json:"estimated_duration" yaml:"estimated_duration"`
}

// Segment is one narrative unit.
type Segment struct {
	ID       string     `json:"id" yaml:"id"`
	Kind     Kind       `json:"type" yaml:"type"`
	Assets   Assets     `json:"assets" yaml:"assets"`
	Text     string     `json:"text_content" yaml:"text_content"`
	Source   SourceMeta `json:"source_data" yaml:"source_data"`
	Branches []Branch   `json:"next" yaml:"next"`
}

func (s Segment) clone() Segment {
	out := s
	if s.Branches != nil {
		out.Branches = append([]Branch(nil), s.Branches...)
	} else {
		out.Branches = []Branch{}
	}
	return out
}

// GlobalConfig holds passthrough playback settings.
type GlobalConfig struct {
	NormalizationLUFS  float64 `json:"normalization_lufs" yaml:"normalization_lufs"`
	IdleTimeoutSeconds int     `json:"idle_timeout_sec" yaml:"idle_timeout_sec"`
}

// Story is the aggregate persisted as a single record.
type Story struct {
	Version   string             `json:"engine_version" yaml:"engine_version"`
	Global    GlobalConfig       `json:"global_config" yaml:"global_config"`
	Variables map[string]Value   `json:"variables" yaml:"variables"`
	Segments  map[string]Segment `json:"segments" yaml:"segments"`
	Order     []string           `json:"ui_segment_order" yaml:"ui_segment_order"`
}

// Empty returns a story with no segments and the current version tag.
func Empty(global GlobalConfig) Story {
	return Story{
		Version:   CurrentVersion,
		Global:    global,
		Variables: map[string]Value{},
		Segments:  map[string]Segment{},
		Order:     []string{},
	}
}

// Clone returns a deep copy.
func (s Story) Clone() Story {
	out := Story{
		Version:   s.Version,
		Global:    s.Global,
		Variables: make(map[string]Value, len(s.Variables)),
		Segments:  make(map[string]Segment, len(s.Segments)),
		Order:     append([]string{}, s.Order...),
	}
	for k, v := range s.Variables {
		out.Variables[k] = v
	}
	for k, seg := range s.Segments {
		out.Segments[k] = seg.clone()
	}
	return out
}

// IndexOf returns the display position of id, or -1.
func (s Story) IndexOf(id string) int {
	for i, candidate := range s.Order {
		if candidate == id {
			return i
		}
	}
	return -1
}

// Ordered returns the segments in display order.
func (s Story) Ordered() []Segment {
	out := make([]Segment, 0, len(s.Order))
	for _, id := range s.Order {
		if seg, ok := s.Segments[id]; ok {
			out = append(out, seg)
		}
	}
	return out
}

// Ingested is the content tuple produced by page ingestion.
type Ingested struct {
	Text     string
	Mood     string
	ImageURI string
}

// Snapshot is the read model handed to listeners and callers.
type Snapshot struct {
	Story Story
	// ActiveID is empty when nothing is selected.
	ActiveID string
}
