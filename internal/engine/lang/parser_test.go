package lang

import (
	"testing"

	"github.com/bluewin4/infinite-contract/internal/protocol"
)

func vars() Bindings { return Bindings{"x": 1, "y": 1, "z": 1} }

func TestParseAccepted(t *testing.T) {
	for _, src := range []string{
		"x += 1",
		"x *= 2",
		"y -= 1",
		"z = 0",
		"x += y",
		"x = -y",
		"z = x * (y + 2)",
		"y /= 2",
		"x = ((y))",
	} {
		st, code, msg := Parse(src, vars())
		if code != "" {
			t.Fatalf("Parse(%q) rejected: %s %s", src, code, msg)
		}
		if st == nil || st.Target == "" {
			t.Fatalf("Parse(%q) returned empty statement", src)
		}
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"x +=",
		"= 1",
		"x 1",
		"x += (y",
		"x += 1 2",
		"x += y +",
		"2 += x",
	} {
		_, code, _ := Parse(src, vars())
		if code != protocol.ErrSyntax {
			t.Fatalf("Parse(%q) code = %q, want %q", src, code, protocol.ErrSyntax)
		}
	}
}

func TestParseDisallowedConstructs(t *testing.T) {
	for _, src := range []string{
		"w += 1",         // undeclared variable
		"x = abs(y)",     // unknown name used as a call
		"x = y(z)",       // call on a declared variable
		"x == 1",         // comparison
		"x = y; z = x",   // statement separator
		"x = y if z",     // foreign keyword
		"x = [1]",        // brackets
		"import os",      // anything import-shaped
	} {
		_, code, _ := Parse(src, vars())
		if code != protocol.ErrDisallowedConstruct {
			t.Fatalf("Parse(%q) code = %q, want %q", src, code, protocol.ErrDisallowedConstruct)
		}
	}
}

func TestParseShape(t *testing.T) {
	st, code, _ := Parse("x += y * 2", vars())
	if code != "" {
		t.Fatalf("unexpected rejection: %s", code)
	}
	if st.Target != "x" || st.Op != OpAdd {
		t.Fatalf("got target=%s op=%s, want x +=", st.Target, st.Op)
	}
	bin, ok := st.Expr.(Binary)
	if !ok || bin.Op != '*' {
		t.Fatalf("expected '*' binary expr, got %#v", st.Expr)
	}
}

func TestParseDeterministic(t *testing.T) {
	// Same invalid input from the same state yields the same error kind.
	for i := 0; i < 3; i++ {
		_, code, _ := Parse("x = abs(y)", vars())
		if code != protocol.ErrDisallowedConstruct {
			t.Fatalf("run %d: code = %q, want %q", i, code, protocol.ErrDisallowedConstruct)
		}
	}
}
