// Package ipmeserr collects the sentinel error kinds of §7: every fatal or
// warned condition the engine can report is one of these five, wrapped with
// call-site context via fmt.Errorf("...: %w", ...) so errors.Is keeps
// working up the stack.
package ipmeserr

import "errors"

var (
	// ErrInvalidPattern is fatal; reported and the run aborted before
	// ingestion begins. Source: C1, C2.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidEvent covers a malformed data-graph line (bad CSV shape,
	// missing column). The offending line is skipped, a warning logged,
	// ingestion continues. Source: C4.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrOutOfOrderTimestamp marks an event whose start time regresses
	// behind already-released state. The event is skipped; state is never
	// rewound. Source: C4.
	ErrOutOfOrderTimestamp = errors.New("out-of-order timestamp")

	// ErrWindowViolation marks a partial strictly older than the window on
	// entry. This is not an error in the CLI sense — it never reaches the
	// exit code — but it shares the sentinel shape for uniform logging.
	// Source: C5, C6.
	ErrWindowViolation = errors.New("window violation")

	// ErrResourceExhaustion is fatal and propagates to the CLI as a
	// non-zero exit. Source: any.
	ErrResourceExhaustion = errors.New("resource exhaustion")
)
