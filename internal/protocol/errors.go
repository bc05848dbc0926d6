package protocol

const (
	// Proposal validation.
	ErrSyntax              = "E_SYNTAX"
	ErrDisallowedConstruct = "E_DISALLOWED_CONSTRUCT"
	ErrComplexityExceeded  = "E_COMPLEXITY_EXCEEDED"

	// Sandboxed execution.
	ErrExecutionTimeout = "E_EXECUTION_TIMEOUT"
	ErrResourceExceeded = "E_RESOURCE_EXCEEDED"
	ErrRuntime          = "E_RUNTIME"
)

var knownCodes = map[string]struct{}{
	ErrSyntax:              {},
	ErrDisallowedConstruct: {},
	ErrComplexityExceeded:  {},
	ErrExecutionTimeout:    {},
	ErrResourceExceeded:    {},
	ErrRuntime:             {},
}

// IsKnownCode reports whether code is one of the six rejection kinds.
// The empty code means "accepted" and is always known.
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
