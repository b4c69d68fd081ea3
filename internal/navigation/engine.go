package navigation

import (
	"log/slog"

	"zenstudio/internal/logging"
	"zenstudio/internal/story"
)

// Via records how a move was resolved.
type Via string

const (
	ViaBranch Via = "branch"
	ViaLinear Via = "linear"
	ViaNone   Via = "none"
)

// Move is the outcome of a navigation request. When Via is ViaNone, To equals
// From and nothing changed.
type Move struct {
	From string
	To   string
	Via  Via
	// BranchIndex is the position of the followed branch, or -1.
	BranchIndex int
}

// Moved reports whether the selection changed.
func (m Move) Moved() bool {
	return m.Via != ViaNone
}

// Position is the active segment's place in the display order. Index is -1
// when nothing is selected.
type Position struct {
	ActiveID string
	Index    int
	Total    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvaluator replaces the Lua condition evaluator.
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) {
		if ev != nil {
			e.eval = ev
		}
	}
}

// WithLogger attaches a logger for condition evaluation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "navigation")
	}
}

// Engine moves the active selection of a graph.
type Engine struct {
	graph  *story.Graph
	eval   Evaluator
	logger *slog.Logger
}

// NewEngine returns an engine bound to g.
func NewEngine(g *story.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:  g,
		eval:   LuaEvaluator{},
		logger: logging.NewComponentLogger(nil, "navigation"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Position reports the active index and the story length.
func (e *Engine) Position() Position {
	snap := e.graph.Snapshot()
	return Position{
		ActiveID: snap.ActiveID,
		Index:    snap.Story.IndexOf(snap.ActiveID),
		Total:    len(snap.Story.Order),
	}
}

// PeekNext resolves the forward move without changing the selection.
func (e *Engine) PeekNext() Move {
	return e.resolveNext(e.graph.Snapshot())
}

// PeekPrevious resolves the backward move without changing the selection.
func (e *Engine) PeekPrevious() Move {
	return resolvePrevious(e.graph.Snapshot())
}

// Next moves forward: first followable branch, else the next display slot,
// else nowhere.
func (e *Engine) Next() Move {
	return e.apply(e.PeekNext())
}

// Previous moves one display slot back, ignoring branches.
func (e *Engine) Previous() Move {
	return e.apply(e.PeekPrevious())
}

// CanNext reports whether Next would move. It is false only at the end of
// the display order when no branch can be followed.
func (e *Engine) CanNext() bool {
	return e.PeekNext().Moved()
}

// CanPrevious reports whether Previous would move.
func (e *Engine) CanPrevious() bool {
	return e.PeekPrevious().Moved()
}

func (e *Engine) apply(m Move) Move {
	if !m.Moved() {
		return m
	}
	if !e.graph.Select(m.To) {
		return Move{From: m.From, To: m.From, Via: ViaNone, BranchIndex: -1}
	}
	return m
}

func (e *Engine) resolveNext(snap story.Snapshot) Move {
	s := snap.Story
	from := snap.ActiveID
	if seg, ok := s.Segments[from]; ok {
		for i, b := range seg.Branches {
			ok, err := e.eval.Eval(b.Condition, s.Variables)
			if err != nil {
				e.logger.Warn("branch condition failed; treating as false",
					logging.SegmentID(from),
					logging.String("condition", b.Condition),
					logging.Error(err))
				continue
			}
			if !ok {
				continue
			}
			// The first eligible branch decides; a dangling target drops to
			// linear order rather than trying later branches.
			if _, exists := s.Segments[b.Target]; !exists {
				e.logger.Debug("eligible branch is dangling; using display order",
					logging.SegmentID(from),
					logging.String("target", b.Target))
				break
			}
			return Move{From: from, To: b.Target, Via: ViaBranch, BranchIndex: i}
		}
	}
	idx := s.IndexOf(from)
	if idx < len(s.Order)-1 {
		return Move{From: from, To: s.Order[idx+1], Via: ViaLinear, BranchIndex: -1}
	}
	return Move{From: from, To: from, Via: ViaNone, BranchIndex: -1}
}

func resolvePrevious(snap story.Snapshot) Move {
	from := snap.ActiveID
	idx := snap.Story.IndexOf(from)
	if idx > 0 {
		return Move{From: from, To: snap.Story.Order[idx-1], Via: ViaLinear, BranchIndex: -1}
	}
	return Move{From: from, To: from, Via: ViaNone, BranchIndex: -1}
}
