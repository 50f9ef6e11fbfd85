package pattern

import "fmt"

// Spec is the decoded-but-uncompiled form of a pattern, the shape
// internal/patternfile parses a pattern file into. Compile turns it into an
// immutable Pattern, validating every invariant in §3.
type Spec struct {
	UseRegex bool
	Entities []EntitySpec
	Events   []EventSpec
}

type EntitySpec struct {
	ID        EntityID
	Signature string
}

type EventSpec struct {
	ID        EventID
	Signature string
	Kind      Kind
	Freq      int
	Subject   EntityID
	Object    EntityID
	Parents   []EventID
}

// Compile validates and compiles a Spec into an immutable Pattern.
//
// Validation performed here covers the whole of §3's Pattern Event invariant
// (dense zero-based ids, acyclic parents, Frequency≥2, Flow has no
// signature) and is the sole source of ErrInvalidPattern for C1/C2 (§7).
func Compile(s Spec) (*Pattern, error) {
	if len(s.Events) == 0 {
		return nil, &InvalidPatternError{Reason: "pattern has no events"}
	}

	entityByID := make(map[EntityID]*Entity, len(s.Entities))
	entities := make([]Entity, len(s.Entities))
	for i, es := range s.Entities {
		// An entity with no declared signature imposes no constraint
		// beyond shared-entity identity (§3) — leave matcher nil rather
		// than compiling an empty-literal matcher, which would only
		// accept the empty string.
		var m Matcher
		if es.Signature != "" {
			var err error
			m, err = CompileSignature(es.Signature, s.UseRegex)
			if err != nil {
				return nil, err
			}
		}
		entities[i] = Entity{ID: es.ID, Signature: es.Signature, matcher: m}
		entityByID[es.ID] = &entities[i]
	}

	np := len(s.Events)
	byID := make(map[EventID]*EventSpec, np)
	for i := range s.Events {
		ev := &s.Events[i]
		if int(ev.ID) < 0 || int(ev.ID) >= np {
			return nil, &InvalidPatternError{Reason: fmt.Sprintf("event id %d is not in [0, %d)", ev.ID, np)}
		}
		if _, dup := byID[ev.ID]; dup {
			return nil, &InvalidPatternError{Reason: fmt.Sprintf("duplicate event id %d", ev.ID)}
		}
		byID[ev.ID] = ev
	}
	if len(byID) != np {
		return nil, &InvalidPatternError{Reason: "event ids do not densely cover [0, Np)"}
	}

	events := make([]Event, np)
	for i := range s.Events {
		es := &s.Events[i]
		if es.Kind == Frequency && es.Freq < 2 {
			return nil, &InvalidPatternError{Reason: fmt.Sprintf("event %d: Frequency requires freq>=2", es.ID)}
		}
		if es.Kind == Flow && es.Signature != "" {
			return nil, &InvalidPatternError{Reason: fmt.Sprintf("event %d: Flow must not declare a signature", es.ID)}
		}
		for _, parent := range es.Parents {
			if _, ok := byID[parent]; !ok {
				return nil, &InvalidPatternError{Reason: fmt.Sprintf("event %d: unknown parent %d", es.ID, parent)}
			}
		}
		m, err := CompileSignature(es.Signature, s.UseRegex)
		if err != nil {
			return nil, err
		}
		events[es.ID] = Event{
			ID:        es.ID,
			Signature: es.Signature,
			Subject:   es.Subject,
			Object:    es.Object,
			Parents:   append([]EventID(nil), es.Parents...),
			Kind:      es.Kind,
			Freq:      es.Freq,
			matcher:   m,
		}
	}

	children := make(map[EventID][]EventID)
	for i := range events {
		for _, parent := range events[i].Parents {
			children[parent] = append(children[parent], events[i].ID)
		}
	}

	ancestors, err := computeAncestors(events)
	if err != nil {
		return nil, err
	}
	descendants := make(map[EventID]map[EventID]bool, np)
	for pid, anc := range ancestors {
		for a := range anc {
			if descendants[a] == nil {
				descendants[a] = make(map[EventID]bool)
			}
			descendants[a][pid] = true
		}
	}

	return &Pattern{
		UseRegex:    s.UseRegex,
		Entities:    entities,
		Events:      events,
		entityByID:  entityByID,
		children:    children,
		ancestors:   ancestors,
		descendants: descendants,
	}, nil
}

// computeAncestors computes the full transitive parent closure of every
// event, detecting cycles along the way (spec §4.1 failure mode: a cyclic
// temporal DAG is reported as ErrInvalidPattern).
func computeAncestors(events []Event) (map[EventID]map[EventID]bool, error) {
	result := make(map[EventID]map[EventID]bool, len(events))
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[EventID]int, len(events))

	var visit func(id EventID) error
	visit = func(id EventID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return &InvalidPatternError{Reason: fmt.Sprintf("temporal DAG contains a cycle through event %d", id)}
		}
		state[id] = visiting
		set := make(map[EventID]bool)
		for _, parent := range events[id].Parents {
			if err := visit(parent); err != nil {
				return err
			}
			set[parent] = true
			for a := range result[parent] {
				set[a] = true
			}
		}
		result[id] = set
		state[id] = done
		return nil
	}

	for i := range events {
		if err := visit(events[i].ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}
