package lang

// Cost scores one parsed statement: 1 for the assignment itself, plus one per
// binary operator and unary minus, plus branch nesting depth (always zero
// under this grammar, kept in the formula for the reserved extension).
func Cost(st *Statement) int {
	return 1 + exprOps(st.Expr) + branchDepth(st)
}

func exprOps(e Expr) int {
	switch v := e.(type) {
	case Binary:
		return 1 + exprOps(v.Left) + exprOps(v.Right)
	case Neg:
		return 1 + exprOps(v.Expr)
	default:
		return 0
	}
}

func branchDepth(*Statement) int { return 0 }
