package pattern

import "github.com/ipmes-go/ipmes/pkg/ipmeserr"

// InvalidPatternError is returned by Compile when the pattern graph fails a
// structural invariant: a cyclic temporal DAG, a dangling parent reference, a
// sparse event-id range, or a malformed Frequency/Flow declaration.
type InvalidPatternError struct {
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return "invalid pattern: " + e.Reason
}

// Unwrap lets callers test with errors.Is(err, ipmeserr.ErrInvalidPattern).
func (e *InvalidPatternError) Unwrap() error {
	return ipmeserr.ErrInvalidPattern
}
