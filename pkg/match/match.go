// Package match defines the Match Edge and Partial Match value types shared
// between the Composition Matcher (C5) and the Join Engine (C6), plus the
// compatibility checks both components apply before combining bindings.
//
// Partials are value-like and copy-on-extend, per §9 Design Notes: no
// interior mutation is shared between a partial and its extensions, so a
// buffer can safely hold many partials that once shared a prefix.
package match

import (
	"time"

	"github.com/ipmes-go/ipmes/pkg/pattern"
)

// InputEventID identifies a concrete event from the data graph.
type InputEventID string

// InputEntityID identifies a concrete entity from the data graph.
type InputEntityID string

// Edge binds one pattern event to the input event that realized it.
type Edge struct {
	Pattern   pattern.EventID
	InputID   InputEventID
	Subject   InputEntityID
	Object    InputEntityID
	StartTime float64
	EndTime   float64

	// Frequency bindings accumulate more than one input event id under a
	// single pattern event; Extra holds ids beyond InputID. Flow bindings
	// carry no InputID at all — FlowSubject/FlowObject describe the
	// reachability path's endpoints instead.
	Extra       []InputEventID
	IsFlow      bool
	FlowSubject InputEntityID
	FlowObject  InputEntityID
}

// Partial is a consistent binding of some subset of pattern events to input
// events: the core value type flowing through both C5 and C6.
type Partial struct {
	// Edges is keyed by pattern event id for O(1) lookup during extension
	// and merge; a nil entry means that pattern event is not yet bound.
	Edges []*Edge

	// entities maps a bound pattern entity to the input entity currently
	// bound to it, enforcing shared-entity consistency (§3).
	entities map[pattern.EntityID]InputEntityID

	// inputEvents is the set of input event ids already consumed by this
	// partial, enforcing non-overlap (§3).
	inputEvents map[InputEventID]bool

	EarliestTime float64
	LatestTime   float64
	hasTime      bool
}

// NewPartial returns the empty partial for a pattern with numEvents events.
func NewPartial(numEvents int) *Partial {
	return &Partial{
		Edges:       make([]*Edge, numEvents),
		entities:    make(map[pattern.EntityID]InputEntityID),
		inputEvents: make(map[InputEventID]bool),
	}
}

// clone returns a shallow value copy suitable for copy-on-extend: the Edges
// slice and both maps are duplicated so the receiver is left untouched.
func (p *Partial) clone() *Partial {
	edges := make([]*Edge, len(p.Edges))
	copy(edges, p.Edges)
	entities := make(map[pattern.EntityID]InputEntityID, len(p.entities))
	for k, v := range p.entities {
		entities[k] = v
	}
	inputEvents := make(map[InputEventID]bool, len(p.inputEvents))
	for k, v := range p.inputEvents {
		inputEvents[k] = v
	}
	return &Partial{
		Edges:        edges,
		entities:     entities,
		inputEvents:  inputEvents,
		EarliestTime: p.EarliestTime,
		LatestTime:   p.LatestTime,
		hasTime:      p.hasTime,
	}
}

// BoundInputEntity returns the input entity currently bound to a pattern
// entity, if any.
func (p *Partial) BoundInputEntity(eid pattern.EntityID) (InputEntityID, bool) {
	v, ok := p.entities[eid]
	return v, ok
}

// HasInputEvent reports whether an input event id is already consumed.
func (p *Partial) HasInputEvent(id InputEventID) bool { return p.inputEvents[id] }

// IsEmpty reports whether no pattern event is bound yet.
func (p *Partial) IsEmpty() bool { return len(p.entities) == 0 && len(p.inputEvents) == 0 }

// BoundEntities returns a copy of every pattern-entity -> input-entity
// binding currently held by this partial, used by the join engine's
// sibling-sharing index (§4.6).
func (p *Partial) BoundEntities() map[pattern.EntityID]InputEntityID {
	out := make(map[pattern.EntityID]InputEntityID, len(p.entities))
	for k, v := range p.entities {
		out[k] = v
	}
	return out
}

// Bound reports every pattern event id currently bound in this partial.
func (p *Partial) Bound() []pattern.EventID {
	var out []pattern.EventID
	for pid, e := range p.Edges {
		if e != nil {
			out = append(out, pattern.EventID(pid))
		}
	}
	return out
}

// Extend returns a fresh partial with a new match edge bound at pid, or
// false if binding e would violate shared-entity consistency or non-overlap
// (§3, §4.5 steps 3a/3b). p is left unmodified.
func Extend(p *Partial, pat *pattern.Pattern, pid pattern.EventID, e Edge) (*Partial, bool) {
	if !e.IsFlow {
		if p.HasInputEvent(e.InputID) {
			return nil, false
		}
		for _, extra := range e.Extra {
			if p.HasInputEvent(extra) {
				return nil, false
			}
		}
	}

	ev := pat.Event(pid)
	if !e.IsFlow {
		if bound, ok := p.BoundInputEntity(ev.Subject); ok && bound != e.Subject {
			return nil, false
		}
		if bound, ok := p.BoundInputEntity(ev.Object); ok && bound != e.Object {
			return nil, false
		}
		if !checkReverseEntityBinding(p, ev.Subject, e.Subject) || !checkReverseEntityBinding(p, ev.Object, e.Object) {
			return nil, false
		}
	}

	// Temporal consistency against every already-bound pattern event:
	// parents of pid must end at or before e starts, children must start
	// at or after e ends (§4.5 step 3, "temporal consistency").
	for bpid, be := range p.Edges {
		if be == nil {
			continue
		}
		related, beforeB := pat.Related(pattern.EventID(bpid), pid)
		if !related {
			continue
		}
		if beforeB {
			if be.EndTime > e.StartTime {
				return nil, false
			}
		} else {
			if be.StartTime < e.EndTime {
				return nil, false
			}
		}
	}

	next := p.clone()
	next.Edges[pid] = &e
	if !e.IsFlow {
		next.entities[ev.Subject] = e.Subject
		next.entities[ev.Object] = e.Object
		next.inputEvents[e.InputID] = true
		for _, extra := range e.Extra {
			next.inputEvents[extra] = true
		}
	} else {
		next.entities[ev.Subject] = e.FlowSubject
		next.entities[ev.Object] = e.FlowObject
	}

	if !next.hasTime {
		next.EarliestTime, next.LatestTime = e.StartTime, e.EndTime
		next.hasTime = true
	} else {
		if e.StartTime < next.EarliestTime {
			next.EarliestTime = e.StartTime
		}
		if e.EndTime > next.LatestTime {
			next.LatestTime = e.EndTime
		}
	}

	return next, true
}

// checkReverseEntityBinding rejects binding an input entity to eid when that
// input entity is already bound to some *other* pattern entity (the
// unshared-entity aliasing rule from §12.3 of SPEC_FULL.md).
func checkReverseEntityBinding(p *Partial, eid pattern.EntityID, input InputEntityID) bool {
	for boundEid, boundInput := range p.entities {
		if boundInput == input && boundEid != eid {
			return false
		}
	}
	return true
}

// Compatible checks whether two partials may be merged, per §4.6.
func Compatible(pat *pattern.Pattern, w time.Duration, l, r *Partial) bool {
	for id := range l.inputEvents {
		if r.inputEvents[id] {
			return false
		}
	}
	for eid, li := range l.entities {
		if ri, ok := r.entities[eid]; ok && ri != li {
			return false
		}
	}
	for lEid, li := range l.entities {
		for rEid, ri := range r.entities {
			if lEid != rEid && li == ri {
				return false
			}
		}
	}

	for lpid, le := range l.Edges {
		if le == nil {
			continue
		}
		for rpid, re := range r.Edges {
			if re == nil {
				continue
			}
			related, aBeforeB := pat.Related(pattern.EventID(lpid), pattern.EventID(rpid))
			if !related {
				continue
			}
			var a, b *Edge
			if aBeforeB {
				a, b = le, re
			} else {
				a, b = re, le
			}
			if a.EndTime > b.StartTime {
				return false
			}
		}
	}

	earliest := l.EarliestTime
	if r.EarliestTime < earliest {
		earliest = r.EarliestTime
	}
	latest := l.LatestTime
	if r.LatestTime > latest {
		latest = r.LatestTime
	}
	return latest-earliest <= w.Seconds()
}

// Merge combines two compatible partials into one. Callers must have
// already verified Compatible(l, r).
func Merge(l, r *Partial) *Partial {
	out := l.clone()
	for pid, e := range r.Edges {
		if e != nil {
			out.Edges[pid] = e
		}
	}
	for eid, v := range r.entities {
		out.entities[eid] = v
	}
	for id := range r.inputEvents {
		out.inputEvents[id] = true
	}
	if !out.hasTime {
		out.EarliestTime, out.LatestTime, out.hasTime = r.EarliestTime, r.LatestTime, r.hasTime
	} else if r.hasTime {
		if r.EarliestTime < out.EarliestTime {
			out.EarliestTime = r.EarliestTime
		}
		if r.LatestTime > out.LatestTime {
			out.LatestTime = r.LatestTime
		}
	}
	return out
}

// IsFull reports whether every pattern event has a bound edge.
func (p *Partial) IsFull() bool {
	for _, e := range p.Edges {
		if e == nil {
			return false
		}
	}
	return true
}
