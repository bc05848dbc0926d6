// Package victory parses and evaluates per-player victory predicates of the
// form "x >= 10", "y <= -5", "z == 3" over the declared variable set.
package victory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluewin4/infinite-contract/internal/engine/lang"
)

type Condition struct {
	Var    string
	Op     string // ">=", "<=", "=="
	Target int64
	raw    string
}

// Parse compiles a predicate expression at configuration time. A failure here
// is fatal to the game; predicates are never re-parsed mid-game.
func Parse(expr string, vars lang.Bindings) (Condition, error) {
	for _, op := range []string{">=", "<=", "=="} {
		left, right, ok := strings.Cut(expr, op)
		if !ok {
			continue
		}
		name := strings.TrimSpace(left)
		if _, declared := vars[name]; !declared {
			return Condition{}, fmt.Errorf("victory condition %q: unknown variable %q", expr, name)
		}
		target, err := strconv.ParseInt(strings.TrimSpace(right), 10, 64)
		if err != nil {
			return Condition{}, fmt.Errorf("victory condition %q: bad target: %w", expr, err)
		}
		return Condition{Var: name, Op: op, Target: target, raw: strings.TrimSpace(expr)}, nil
	}
	return Condition{}, fmt.Errorf("victory condition %q: expected <var> >=|<=|== <int>", expr)
}

// Met evaluates the predicate against the given bindings.
func (c Condition) Met(b lang.Bindings) bool {
	v := b[c.Var]
	switch c.Op {
	case ">=":
		return v >= c.Target
	case "<=":
		return v <= c.Target
	case "==":
		return v == c.Target
	}
	return false
}

func (c Condition) String() string { return c.raw }
