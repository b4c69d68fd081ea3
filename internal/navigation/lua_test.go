package navigation_test

import (
	"errors"
	"testing"

	"zenstudio/internal/navigation"
	"zenstudio/internal/story"
)

func TestLuaEvaluator(t *testing.T) {
	vars := map[string]story.Value{
		"has_basket": story.BoolValue(true),
		"met_wolf":   story.BoolValue(false),
		"score":      story.NumberValue(4),
		"path":       story.StringValue("forest"),
		"bad-name":   story.BoolValue(true),
	}
	cases := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"has_basket", true},
		{"met_wolf", false},
		{"not met_wolf", true},
		{"score >= 3 and score < 5", true},
		{"score > 10", false},
		{`path == "forest"`, true},
		{"undefined_flag", false},
		{"undefined_flag == nil", true},
	}
	var ev navigation.LuaEvaluator
	for _, c := range cases {
		got, err := ev.Eval(c.expr, vars)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", c.expr, err)
		}
		if got != c.want {
			t.Fatalf("Eval(%q) = %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestLuaEvaluatorRejectsStatements(t *testing.T) {
	var ev navigation.LuaEvaluator
	for _, expr := range []string{"while true do end", "function() return 1 end", "x; return 1"} {
		if _, err := ev.Eval(expr, nil); err == nil {
			t.Fatalf("expected error for %q", expr)
		}
	}
	if _, err := ev.Eval("for i=1,2 do end", nil); !errors.Is(err, navigation.ErrUnsupportedCondition) {
		t.Fatalf("expected ErrUnsupportedCondition, got %v", err)
	}
}

func TestLuaEvaluatorAllowsKeywordsInStrings(t *testing.T) {
	vars := map[string]story.Value{"mood": story.StringValue("do")}
	var ev navigation.LuaEvaluator
	for expr, want := range map[string]bool{
		`mood == "do"`:         true,
		`mood == 'end'`:        false,
		`mood ~= [[while]]`:    true,
		`mood == "say \"do\""`: false,
	} {
		got, err := ev.Eval(expr, vars)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", expr, err)
		}
		if got != want {
			t.Fatalf("Eval(%q) = %v, want %v", expr, got, want)
		}
	}
	if _, err := ev.Eval(`mood == "x" or (function() end)()`, vars); !errors.Is(err, navigation.ErrUnsupportedCondition) {
		t.Fatalf("expected ErrUnsupportedCondition outside literals, got %v", err)
	}
}

func TestLuaEvaluatorSyntaxError(t *testing.T) {
	var ev navigation.LuaEvaluator
	if _, err := ev.Eval("score >", map[string]story.Value{"score": story.NumberValue(1)}); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestLuaEvaluatorRuntimeError(t *testing.T) {
	var ev navigation.LuaEvaluator
	if _, err := ev.Eval("path > 3", map[string]story.Value{"path": story.StringValue("x")}); err == nil {
		t.Fatal("expected runtime comparison error")
	}
}
