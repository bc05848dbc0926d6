// Package lang defines the restricted statement grammar proposals are written
// in: a single arithmetic assignment over a fixed set of declared variables.
// No calls, no branches, no loops.
package lang

// MoveKind tags the three contract mutations a proposal may request.
type MoveKind string

const (
	MoveAddLine    MoveKind = "ADD_LINE"
	MoveModifyLine MoveKind = "MODIFY_LINE"
	MoveRemoveLine MoveKind = "REMOVE_LINE"
)

// KnownMoveKind reports whether k is one of the three move kinds.
func KnownMoveKind(k MoveKind) bool {
	switch k {
	case MoveAddLine, MoveModifyLine, MoveRemoveLine:
		return true
	}
	return false
}

// MoveProposal is the typed form of one submitted move. Immutable once built;
// everything downstream of the syntax checker works from this, never from raw
// agent text.
type MoveProposal struct {
	Kind MoveKind `json:"kind"`
	Line int      `json:"line"`           // target index for MODIFY_LINE / REMOVE_LINE
	Code string   `json:"code,omitempty"` // raw statement text, empty for REMOVE_LINE
}

// Bindings maps declared variable names to their committed values.
type Bindings map[string]int64

func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// AssignOp is the statement-level assignment operator.
type AssignOp string

const (
	OpSet AssignOp = "="
	OpAdd AssignOp = "+="
	OpSub AssignOp = "-="
	OpMul AssignOp = "*="
	OpDiv AssignOp = "/="
)

// Statement is one parsed assignment: Target Op Expr.
type Statement struct {
	Target string
	Op     AssignOp
	Expr   Expr
}

type Expr interface{ isExpr() }

type NumLit struct{ Value int64 }

type VarRef struct{ Name string }

// Neg is unary minus.
type Neg struct{ Expr Expr }

// Binary is one of '+', '-', '*', '/'.
type Binary struct {
	Op          byte
	Left, Right Expr
}

func (NumLit) isExpr() {}
func (VarRef) isExpr() {}
func (Neg) isExpr()    {}
func (Binary) isExpr() {}
