// Package ingest implements the Event Ingestor (C4): grouping input events
// into same-timestamp batches and reordering each batch so that signatures
// appear in the chain-required total order before handoff to composition.
package ingest

import "github.com/ipmes-go/ipmes/pkg/match"

// Event is the immutable input-event record of §3: a (start, end) interval,
// an input event id, a signature, and subject/object endpoints each carrying
// their own input-entity id and signature.
type Event struct {
	StartTime float64
	EndTime   float64
	ID        match.InputEventID
	Signature string

	SubjectID  match.InputEntityID
	SubjectSig string
	ObjectID   match.InputEntityID
	ObjectSig  string
}
