// Package pattern implements the Pattern Store: an immutable, in-memory
// representation of a behavioral pattern — its entities, its events, the
// temporal DAG relating them, and the compiled signature matcher each event
// carries. Everything here is built once at startup and read concurrently by
// every other component; there is no interior mutation after Compile returns.
package pattern

// EntityID identifies a pattern entity, eid ∈ [0, Ne).
type EntityID int

// EventID identifies a pattern event, pid ∈ [0, Np).
type EventID int

// Kind discriminates the three pattern-event variants.
type Kind int

const (
	Default Kind = iota
	Frequency
	Flow
)

func (k Kind) String() string {
	switch k {
	case Frequency:
		return "Frequency"
	case Flow:
		return "Flow"
	default:
		return "Default"
	}
}

// Entity is a pattern entity: an optional signature constraining which input
// entities may bind to it. An empty signature imposes no constraint beyond
// the shared-entity identity rule (same eid across the pattern forces the
// same input-entity id across all of its bindings).
type Entity struct {
	ID        EntityID
	Signature string
	matcher   Matcher
}

// Matches reports whether the entity's own signature (if any) accepts s.
func (e *Entity) Matches(s string) bool {
	if e.matcher == nil {
		return true
	}
	return e.matcher.Matches(s)
}

// Event is a pattern event: a signature, its subject/object entities, its
// declared parents in the partial temporal order, and its kind.
type Event struct {
	ID        EventID
	Signature string
	Subject   EntityID
	Object    EntityID
	Parents   []EventID
	Kind      Kind

	// Freq is the required distinct-input-event count for Kind == Frequency.
	Freq int

	matcher Matcher
}

// SigMatches reports whether s satisfies this event's compiled signature.
func (e *Event) SigMatches(s string) bool {
	return e.matcher.Matches(s)
}

// Pattern is the immutable compiled pattern: entities, events, and the
// precomputed temporal DAG (forward = parents, reverse = children) needed for
// O(1) order-relation queries by the decomposer and the join engine.
type Pattern struct {
	UseRegex bool
	Entities []Entity
	Events   []Event

	entityByID map[EntityID]*Entity

	// children[pid] lists every event that declares pid as a parent — the
	// reverse edge of Event.Parents, precomputed once (§9 Design Notes:
	// "precompute forward and reverse adjacency as index tables").
	children map[EventID][]EventID

	// ancestors[pid] is the full transitive parent closure of pid, and
	// descendants[pid] the full transitive child closure — both precomputed
	// so IsAncestor, IsDescendant and Related are O(1) set-membership
	// checks rather than a walk.
	ancestors   map[EventID]map[EventID]bool
	descendants map[EventID]map[EventID]bool
}

// unconstrainedEntity is returned by Entity for an id that subject/object
// fields reference but that never appeared in the pattern file's Entities
// list — legal per §3 (a signature is optional; an entity with none
// declared simply imposes no constraint beyond shared-entity identity).
var unconstrainedEntity = &Entity{}

// Entity looks up a pattern entity by id. An id with no declared Entities
// entry is treated as present with no signature, never as absent.
func (p *Pattern) Entity(id EntityID) *Entity {
	if e, ok := p.entityByID[id]; ok {
		return e
	}
	return unconstrainedEntity
}

// Event looks up a pattern event by id. Callers may index p.Events directly
// when they know ids are dense and zero-based, which Compile guarantees.
func (p *Pattern) Event(id EventID) *Event {
	if int(id) < 0 || int(id) >= len(p.Events) {
		return nil
	}
	return &p.Events[id]
}

// Children returns every pattern event that declares pid as a direct parent.
func (p *Pattern) Children(pid EventID) []EventID { return p.children[pid] }

// IsAncestor reports whether a is a (transitive) parent of b.
func (p *Pattern) IsAncestor(a, b EventID) bool { return p.ancestors[b][a] }

// IsDescendant reports whether a is a (transitive) child of b.
func (p *Pattern) IsDescendant(a, b EventID) bool { return p.descendants[b][a] }

// Related reports whether a and b are comparable in the temporal DAG at all
// (one is a transitive ancestor of the other), and if so, whether a must
// precede b.
func (p *Pattern) Related(a, b EventID) (related bool, aBeforeB bool) {
	if a == b {
		return false, false
	}
	if p.IsAncestor(a, b) {
		return true, true
	}
	if p.IsAncestor(b, a) {
		return true, false
	}
	return false, false
}

// SharedEntities returns the set of entity ids that both events reference,
// as subject or object, used by the decomposer and join-tree builder to test
// mergeability.
func SharedEntities(a, b *Event) []EntityID {
	ae := map[EntityID]bool{a.Subject: true, a.Object: true}
	var out []EntityID
	if ae[b.Subject] {
		out = append(out, b.Subject)
	}
	if ae[b.Object] && b.Object != b.Subject {
		out = append(out, b.Object)
	}
	return out
}
