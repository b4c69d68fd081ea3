package navigation_test

import (
	"errors"
	"testing"

	"zenstudio/internal/navigation"
	"zenstudio/internal/story"
)

// threeSegments builds s1, s2, s3 in display order with s1 active.
func threeSegments(t *testing.T, s1Branches []story.Branch) *story.Graph {
	t.Helper()
	s := story.Empty(story.GlobalConfig{})
	for _, id := range []string{"s1", "s2", "s3"} {
		s.Segments[id] = story.Segment{ID: id, Kind: story.KindNarration, Branches: []story.Branch{}}
		s.Order = append(s.Order, id)
	}
	seg := s.Segments["s1"]
	seg.Branches = s1Branches
	s.Segments["s1"] = seg

	g := story.New()
	if err := g.Restore(s, "s1"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	return g
}

func active(t *testing.T, g *story.Graph) string {
	t.Helper()
	id, _ := g.Active()
	return id
}

func TestNextLinearWithoutBranches(t *testing.T) {
	g := threeSegments(t, nil)
	e := navigation.NewEngine(g)

	m := e.Next()
	if m.Via != navigation.ViaLinear || m.To != "s2" {
		t.Fatalf("unexpected move %+v", m)
	}
	if got := active(t, g); got != "s2" {
		t.Fatalf("expected s2 active, got %q", got)
	}
}

func TestNextPrefersBranchAndPreviousStaysLinear(t *testing.T) {
	g := threeSegments(t, []story.Branch{{Target: "s3"}})
	e := navigation.NewEngine(g)

	m := e.Next()
	if m.Via != navigation.ViaBranch || m.To != "s3" || m.BranchIndex != 0 {
		t.Fatalf("expected branch jump to s3, got %+v", m)
	}
	back := e.Previous()
	if back.Via != navigation.ViaLinear || back.To != "s2" {
		t.Fatalf("expected linear step back to s2, got %+v", back)
	}
	if got := active(t, g); got != "s2" {
		t.Fatalf("expected s2 active, got %q", got)
	}
}

func TestNextDanglingBranchFallsBackToLinear(t *testing.T) {
	g := threeSegments(t, []story.Branch{{Target: "ghost"}, {Target: "s3"}})
	m := navigation.NewEngine(g).Next()
	if m.Via != navigation.ViaLinear || m.To != "s2" || m.BranchIndex != -1 {
		t.Fatalf("expected linear fallback to s2, got %+v", m)
	}

	g2 := threeSegments(t, []story.Branch{{Target: "ghost"}})
	m = navigation.NewEngine(g2).Next()
	if m.Via != navigation.ViaLinear || m.To != "s2" {
		t.Fatalf("expected linear fallback, got %+v", m)
	}
}

func TestNextSkipsFalseConditionBeforeDanglingCheck(t *testing.T) {
	g := threeSegments(t, []story.Branch{
		{Target: "ghost", Condition: "false"},
		{Target: "s3"},
	})
	m := navigation.NewEngine(g).Next()
	if m.Via != navigation.ViaBranch || m.To != "s3" || m.BranchIndex != 1 {
		t.Fatalf("expected second branch to s3, got %+v", m)
	}
}

func TestNextAtEnd(t *testing.T) {
	g := threeSegments(t, nil)
	g.Select("s3")
	e := navigation.NewEngine(g)
	if e.CanNext() {
		t.Fatal("expected CanNext false at end without branches")
	}
	m := e.Next()
	if m.Moved() || m.To != "s3" {
		t.Fatalf("expected no-op at end, got %+v", m)
	}
}

func TestNextAtEndFollowsBranch(t *testing.T) {
	g := threeSegments(t, nil)
	g.Update("s3", story.Patch{Branches: &[]story.Branch{{Target: "s1"}}})
	g.Select("s3")
	e := navigation.NewEngine(g)
	if !e.CanNext() {
		t.Fatal("expected CanNext true when a branch exists at the end")
	}
	if m := e.Next(); m.To != "s1" {
		t.Fatalf("expected loop back to s1, got %+v", m)
	}
}

func TestPreviousAtStart(t *testing.T) {
	g := threeSegments(t, nil)
	e := navigation.NewEngine(g)
	if e.CanPrevious() {
		t.Fatal("expected CanPrevious false at start")
	}
	if m := e.Previous(); m.Moved() {
		t.Fatalf("expected no-op, got %+v", m)
	}
}

func TestPosition(t *testing.T) {
	g := threeSegments(t, nil)
	g.Select("s2")
	pos := navigation.NewEngine(g).Position()
	if pos.Index != 1 || pos.Total != 3 || pos.ActiveID != "s2" {
		t.Fatalf("unexpected position %+v", pos)
	}
}

func TestNextWithoutSelectionStartsAtFirst(t *testing.T) {
	g := threeSegments(t, nil)
	g.Delete("s1")
	g.Delete("s2")
	g.Delete("s3")
	e := navigation.NewEngine(g)
	if m := e.Next(); m.Moved() {
		t.Fatalf("expected no-op on empty story, got %+v", m)
	}
	if pos := e.Position(); pos.Index != -1 || pos.Total != 0 {
		t.Fatalf("unexpected empty position %+v", pos)
	}
}

func TestConditionsGateBranches(t *testing.T) {
	g := threeSegments(t, []story.Branch{
		{Target: "s3", Condition: "met_wolf"},
		{Target: "s2", Condition: "has_basket and not met_wolf"},
	})
	if err := g.SetVariable("met_wolf", story.BoolValue(false)); err != nil {
		t.Fatal(err)
	}
	if err := g.SetVariable("has_basket", story.BoolValue(true)); err != nil {
		t.Fatal(err)
	}
	e := navigation.NewEngine(g)
	m := e.PeekNext()
	if m.Via != navigation.ViaBranch || m.To != "s2" || m.BranchIndex != 1 {
		t.Fatalf("expected second branch, got %+v", m)
	}

	if err := g.SetVariable("met_wolf", story.BoolValue(true)); err != nil {
		t.Fatal(err)
	}
	if m := e.PeekNext(); m.To != "s3" || m.BranchIndex != 0 {
		t.Fatalf("expected first branch once met_wolf is set, got %+v", m)
	}
	if got := active(t, g); got != "s1" {
		t.Fatalf("PeekNext must not move the selection, active=%q", got)
	}
}

type failingEvaluator struct{}

func (failingEvaluator) Eval(string, map[string]story.Value) (bool, error) {
	return false, errors.New("boom")
}

func TestEvaluatorErrorFallsBackToLinear(t *testing.T) {
	g := threeSegments(t, []story.Branch{{Target: "s3", Condition: "anything"}})
	e := navigation.NewEngine(g, navigation.WithEvaluator(failingEvaluator{}))
	if m := e.Next(); m.Via != navigation.ViaLinear || m.To != "s2" {
		t.Fatalf("expected linear fallback, got %+v", m)
	}
}
