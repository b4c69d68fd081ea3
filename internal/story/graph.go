package story

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrIndexOutOfRange is returned by Reorder when either index falls outside
// the display order.
var ErrIndexOutOfRange = errors.New("display index out of range")

// Defaults seeds fields of newly created segments.
type Defaults struct {
	Image    string
	Mood     string
	Duration string
	Global   GlobalConfig
}

// DefaultDefaults returns the stock segment defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Image:    "https://picsum.photos/400/300?grayscale",
		Mood:     "Neutral",
		Duration: "0s",
		Global:   GlobalConfig{NormalizationLUFS: -16, IdleTimeoutSeconds: 300},
	}
}

// Option configures a Graph.
type Option func(*Graph)

// WithDefaults overrides the defaults used by Create.
func WithDefaults(d Defaults) Option {
	return func(g *Graph) {
		g.defaults = d
	}
}

// WithIDGenerator replaces the uuid-based id allocator.
func WithIDGenerator(fn func() string) Option {
	return func(g *Graph) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// Graph is the mutable segment store.
type Graph struct {
	mu       sync.Mutex
	story    Story
	active   string
	defaults Defaults
	newID    func() string

	// pending is guarded by mu; notifyMu serializes delivery.
	pending   []Snapshot
	notifyMu  sync.Mutex
	listeners []func(Snapshot)
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		defaults: DefaultDefaults(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.story = Empty(g.defaults.Global)
	return g
}

// OnChange registers fn to receive a snapshot after every successful
// mutation. Snapshots are delivered in mutation order and the mutating call
// returns only after its snapshot was delivered. fn may read the graph but
// must not mutate it.
func (g *Graph) OnChange(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// commit queues a snapshot, releases g.mu and drains the queue. The caller
// must hold g.mu. g.mu is never held while waiting for notifyMu, so
// listeners can take g.mu.
func (g *Graph) commit() {
	g.pending = append(g.pending, g.snapshotLocked())
	g.mu.Unlock()

	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()
	for {
		g.mu.Lock()
		batch := g.pending
		g.pending = nil
		g.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, snap := range batch {
			for _, fn := range g.listeners {
				fn(snap)
			}
		}
	}
}

func (g *Graph) snapshotLocked() Snapshot {
	return Snapshot{Story: g.story.Clone(), ActiveID: g.active}
}

// Snapshot returns a deep copy of the story and the active selection.
func (g *Graph) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Restore replaces the graph contents with s without notifying listeners.
// It is used when loading persisted state.
func (g *Graph) Restore(s Story, active string) error {
	return g.replace(s, active, false)
}

// Replace swaps in a whole story, as an import does, and notifies listeners.
func (g *Graph) Replace(s Story, active string) error {
	return g.replace(s, active, true)
}

func (g *Graph) replace(s Story, active string, notify bool) error {
	s = s.Clone()
	if s.Version == "" {
		s.Version = CurrentVersion
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("restore story: %w", err)
	}
	g.mu.Lock()
	g.story = s
	if _, ok := s.Segments[active]; ok {
		g.active = active
	} else {
		g.active = firstOrNone(s.Order)
	}
	if !notify {
		g.mu.Unlock()
		return nil
	}
	g.commit()
	return nil
}

// Create inserts a new segment built from the defaults overlaid with p,
// appends it to the display order and selects it.
func (g *Graph) Create(p Patch) string {
	g.mu.Lock()
	seg := Segment{
		ID:       g.allocateIDLocked(),
		Kind:     KindNarration,
		Assets:   Assets{Image: g.defaults.Image},
		Source:   SourceMeta{Mood: g.defaults.Mood, EstimatedDuration: g.defaults.Duration},
		Branches: []Branch{},
	}
	seg = applyPatch(seg, p)
	g.story.Segments[seg.ID] = seg
	g.story.Order = append(g.story.Order, seg.ID)
	g.active = seg.ID
	g.commit()
	return seg.ID
}

func (g *Graph) allocateIDLocked() string {
	for {
		id := g.newID()
		if _, taken := g.story.Segments[id]; id != "" && !taken {
			return id
		}
	}
}

// CreateBlank adds a segment with default content.
func (g *Graph) CreateBlank() string {
	return g.Create(Patch{})
}

// CreateFromIngested adds a segment from ingested content. The estimated
// duration is derived from the text here and never recomputed.
func (g *Graph) CreateFromIngested(in Ingested) string {
	p := Patch{
		Text: Ptr(in.Text),
		Source: &SourcePatch{
			Mood:              Ptr(NormalizeMood(in.Mood, g.defaultMood())),
			EstimatedDuration: Ptr(EstimateDuration(in.Text)),
		},
	}
	if in.ImageURI != "" {
		p.Assets = &AssetsPatch{Image: Ptr(in.ImageURI)}
	}
	return g.Create(p)
}

func (g *Graph) defaultMood() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.defaults.Mood
}

// Update merges p into the segment. It returns false, changing nothing, when
// id is unknown.
func (g *Graph) Update(id string, p Patch) bool {
	g.mu.Lock()
	seg, ok := g.story.Segments[id]
	if !ok {
		g.mu.Unlock()
		return false
	}
	g.story.Segments[id] = applyPatch(seg, p)
	g.commit()
	return true
}

// Delete removes the segment and its display slot. When the removed segment
// was selected the selection moves to the first remaining segment, or to
// none when the story is empty.
func (g *Graph) Delete(id string) bool {
	g.mu.Lock()
	if _, ok := g.story.Segments[id]; !ok {
		g.mu.Unlock()
		return false
	}
	delete(g.story.Segments, id)
	order := make([]string, 0, len(g.story.Order))
	for _, candidate := range g.story.Order {
		if candidate != id {
			order = append(order, candidate)
		}
	}
	g.story.Order = order
	if g.active == id {
		g.active = firstOrNone(order)
	}
	g.commit()
	return true
}

// Reorder moves the id at from to position to. Both indices must address an
// existing slot; otherwise ErrIndexOutOfRange is returned and nothing moves.
func (g *Graph) Reorder(from, to int) error {
	g.mu.Lock()
	n := len(g.story.Order)
	if from < 0 || from >= n || to < 0 || to >= n {
		g.mu.Unlock()
		return fmt.Errorf("%w: move %d to %d with %d segments", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		g.mu.Unlock()
		return nil
	}
	order := append([]string{}, g.story.Order...)
	id := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order[:to], append([]string{id}, order[to:]...)...)
	g.story.Order = order
	g.commit()
	return nil
}

// Select makes id the active segment.
func (g *Graph) Select(id string) bool {
	g.mu.Lock()
	if _, ok := g.story.Segments[id]; !ok {
		g.mu.Unlock()
		return false
	}
	if g.active == id {
		g.mu.Unlock()
		return true
	}
	g.active = id
	g.commit()
	return true
}

// Active returns the selected segment id.
func (g *Graph) Active() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active, g.active != ""
}

// Segment returns a copy of the segment with the given id.
func (g *Graph) Segment(id string) (Segment, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	seg, ok := g.story.Segments[id]
	if !ok {
		return Segment{}, false
	}
	return seg.clone(), true
}

// Has reports whether id names a segment.
func (g *Graph) Has(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.story.Segments[id]
	return ok
}

// Order returns a copy of the display order.
func (g *Graph) Order() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.story.Order...)
}

// Len returns the number of segments.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.story.Order)
}

// Variables returns a copy of the story variables.
func (g *Graph) Variables() map[string]Value {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]Value, len(g.story.Variables))
	for k, v := range g.story.Variables {
		out[k] = v
	}
	return out
}

// SetVariable stores a named variable.
func (g *Graph) SetVariable(name string, v Value) error {
	if name == "" {
		return errors.New("variable name must not be empty")
	}
	if v.Type() == 0 {
		return fmt.Errorf("variable %q has no value", name)
	}
	g.mu.Lock()
	g.story.Variables[name] = v
	g.commit()
	return nil
}

// DeleteVariable removes a named variable.
func (g *Graph) DeleteVariable(name string) bool {
	g.mu.Lock()
	if _, ok := g.story.Variables[name]; !ok {
		g.mu.Unlock()
		return false
	}
	delete(g.story.Variables, name)
	g.commit()
	return true
}

// SetGlobalConfig replaces the passthrough playback settings.
func (g *Graph) SetGlobalConfig(cfg GlobalConfig) {
	g.mu.Lock()
	g.story.Global = cfg
	g.commit()
}

func firstOrNone(order []string) string {
	if len(order) == 0 {
		return ""
	}
	return order[0]
}
