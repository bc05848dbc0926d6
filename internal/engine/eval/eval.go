// Package eval interprets one parsed statement over a scratch copy of the
// variable bindings. Step and wall-time budgets are enforced inside the
// interpreter loop itself, so cancellation is deterministic and a failed run
// can never leave partial state behind.
package eval

import (
	"fmt"
	"time"

	"github.com/bluewin4/infinite-contract/internal/engine/lang"
	"github.com/bluewin4/infinite-contract/internal/protocol"
)

type Budget struct {
	MaxSteps int
	Timeout  time.Duration
}

// Outcome is the result of one sandboxed run. Code is empty on success and
// one of E_EXECUTION_TIMEOUT / E_RESOURCE_EXCEEDED / E_RUNTIME otherwise.
type Outcome struct {
	Bindings lang.Bindings
	Steps    int
	Elapsed  time.Duration
	Code     string
	Msg      string
}

func (o Outcome) OK() bool { return o.Code == "" }

// Run executes st against a copy of before. The input bindings are never
// mutated; committing the result is the caller's job.
func Run(st *lang.Statement, before lang.Bindings, b Budget) Outcome {
	start := time.Now()
	r := &runner{
		vars:     before.Clone(),
		maxSteps: b.MaxSteps,
		deadline: start.Add(b.Timeout),
	}

	val, code, msg := r.eval(st.Expr)
	if code == "" {
		cur := r.vars[st.Target]
		var next int64
		switch st.Op {
		case lang.OpSet:
			next = val
		case lang.OpAdd:
			next, code, msg = apply('+', cur, val)
		case lang.OpSub:
			next, code, msg = apply('-', cur, val)
		case lang.OpMul:
			next, code, msg = apply('*', cur, val)
		case lang.OpDiv:
			next, code, msg = apply('/', cur, val)
		default:
			code, msg = protocol.ErrRuntime, fmt.Sprintf("unknown operator %q", st.Op)
		}
		if code == "" {
			r.vars[st.Target] = next
		}
	}

	out := Outcome{Steps: r.steps, Elapsed: time.Since(start), Code: code, Msg: msg}
	if code == "" {
		out.Bindings = r.vars
	}
	return out
}

type runner struct {
	vars     lang.Bindings
	steps    int
	maxSteps int
	deadline time.Time
}

// step charges one unit of work and checks both budgets.
func (r *runner) step() (string, string) {
	r.steps++
	if r.maxSteps > 0 && r.steps > r.maxSteps {
		return protocol.ErrResourceExceeded, fmt.Sprintf("step budget %d exceeded", r.maxSteps)
	}
	if !time.Now().Before(r.deadline) {
		return protocol.ErrExecutionTimeout, "time budget exceeded"
	}
	return "", ""
}

func (r *runner) eval(e lang.Expr) (int64, string, string) {
	if code, msg := r.step(); code != "" {
		return 0, code, msg
	}
	switch v := e.(type) {
	case lang.NumLit:
		return v.Value, "", ""
	case lang.VarRef:
		return r.vars[v.Name], "", ""
	case lang.Neg:
		inner, code, msg := r.eval(v.Expr)
		if code != "" {
			return 0, code, msg
		}
		return apply('-', 0, inner)
	case lang.Binary:
		left, code, msg := r.eval(v.Left)
		if code != "" {
			return 0, code, msg
		}
		right, code, msg := r.eval(v.Right)
		if code != "" {
			return 0, code, msg
		}
		return apply(v.Op, left, right)
	default:
		return 0, protocol.ErrRuntime, fmt.Sprintf("unknown expression node %T", e)
	}
}

// apply computes a op b with overflow and zero-division checks. Division
// truncates toward zero.
func apply(op byte, a, b int64) (int64, string, string) {
	switch op {
	case '+':
		s := a + b
		if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
			return 0, protocol.ErrRuntime, "integer overflow"
		}
		return s, "", ""
	case '-':
		s := a - b
		if (a >= 0 && b < 0 && s < 0) || (a < 0 && b > 0 && s >= 0) {
			return 0, protocol.ErrRuntime, "integer overflow"
		}
		return s, "", ""
	case '*':
		if a == 0 || b == 0 {
			return 0, "", ""
		}
		p := a * b
		if p/b != a {
			return 0, protocol.ErrRuntime, "integer overflow"
		}
		return p, "", ""
	case '/':
		if b == 0 {
			return 0, protocol.ErrRuntime, "division by zero"
		}
		if a == minInt64 && b == -1 {
			return 0, protocol.ErrRuntime, "integer overflow"
		}
		return a / b, "", ""
	default:
		return 0, protocol.ErrRuntime, fmt.Sprintf("unknown operator %q", string(op))
	}
}

const minInt64 = -1 << 63
