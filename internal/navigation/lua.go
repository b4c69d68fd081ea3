package navigation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Shopify/go-lua"

	"zenstudio/internal/story"
)

// Evaluator decides whether a branch condition holds for the given variables.
type Evaluator interface {
	Eval(condition string, vars map[string]story.Value) (bool, error)
}

// ErrUnsupportedCondition marks conditions that use statements rather than a
// single expression.
var ErrUnsupportedCondition = errors.New("unsupported branch condition")

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	statementPattern  = regexp.MustCompile(`\b(while|repeat|until|for|function|goto|do|end|local|return)\b`)

	// Quoted and long-bracket string literals; keywords inside them are data.
	literalPattern = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|\[=*\[[\s\S]*?\]=*\]`)
)

// LuaEvaluator evaluates conditions as Lua expressions in a fresh state with
// no standard libraries loaded. Story variables are bound as globals, so a
// condition reads like `has_basket and not met_wolf` or `score >= 3`.
type LuaEvaluator struct{}

func (LuaEvaluator) Eval(condition string, vars map[string]story.Value) (bool, error) {
	expr := strings.TrimSpace(condition)
	if expr == "" {
		return true, nil
	}
	if statementPattern.MatchString(literalPattern.ReplaceAllString(expr, `""`)) {
		return false, fmt.Errorf("%w: %q", ErrUnsupportedCondition, condition)
	}

	state := lua.NewState()
	for name, v := range vars {
		if !identifierPattern.MatchString(name) {
			continue
		}
		switch v.Type() {
		case story.TypeBool:
			b, _ := v.Bool()
			state.PushBoolean(b)
		case story.TypeNumber:
			n, _ := v.Number()
			state.PushNumber(n)
		case story.TypeString:
			s, _ := v.Text()
			state.PushString(s)
		default:
			continue
		}
		state.SetGlobal(name)
	}

	if err := lua.LoadString(state, "return ("+expr+")"); err != nil {
		return false, fmt.Errorf("parse condition %q: %w", condition, err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", condition, err)
	}
	result := state.ToBoolean(-1)
	state.Pop(1)
	return result, nil
}
