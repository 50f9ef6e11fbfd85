package compose

import (
	"github.com/ipmes-go/ipmes/pkg/ingest"
	"github.com/ipmes-go/ipmes/pkg/match"
	"github.com/ipmes-go/ipmes/pkg/pattern"
)

// flowKey identifies one chain's Flow reachability frontier. Flow pattern
// events carry no signature of their own (every input event is a candidate
// hop), so the frontier is keyed only by chain, not by bound entities.
type flowKey struct {
	chain int
}

type flowSpan struct {
	start float64
	end   float64
}

// flowFrontier is the incremental reachability structure of §4.5's Flow
// variant and §12.5 of SPEC_FULL.md: reach[x][y] records the span of the
// earliest-known time-respecting path from input entity x to y.
type flowFrontier struct {
	reach   map[match.InputEntityID]map[match.InputEntityID]flowSpan
	emitted map[[2]match.InputEntityID]bool
}

func newFlowFrontier() *flowFrontier {
	return &flowFrontier{
		reach:   make(map[match.InputEntityID]map[match.InputEntityID]flowSpan),
		emitted: make(map[[2]match.InputEntityID]bool),
	}
}

// feedFlow absorbs one input event u→v into the chain's frontier and
// returns every newly-completed (subject, object) path that fits within the
// window, as full chain-match partials binding ev's subject/object entities.
func (m *Matcher) feedFlow(ci int, ev *pattern.Event, e ingest.Event) []*match.Partial {
	key := flowKey{chain: ci}
	f, ok := m.flow[key]
	if !ok {
		f = newFlowFrontier()
		m.flow[key] = f
	}
	u, v := e.SubjectID, e.ObjectID
	cutoff := e.StartTime - m.window.Seconds()

	// Evict entries whose path starts before the window.
	for x, ys := range f.reach {
		for y, span := range ys {
			if span.start < cutoff {
				delete(ys, y)
			}
		}
		if len(ys) == 0 {
			delete(f.reach, x)
		}
	}

	var fresh [][2]match.InputEntityID

	note := func(x, y match.InputEntityID, span flowSpan) {
		if span.start < cutoff {
			return
		}
		if f.reach[x] == nil {
			f.reach[x] = make(map[match.InputEntityID]flowSpan)
		}
		cur, exists := f.reach[x][y]
		if !exists || span.end < cur.end {
			f.reach[x][y] = span
			fresh = append(fresh, [2]match.InputEntityID{x, y})
		}
	}

	// Direct hop: u reaches v.
	note(u, v, flowSpan{start: e.StartTime, end: e.EndTime})

	// Transitive extension: anything that already reaches u now reaches v,
	// provided the earlier path ended at or before this hop starts.
	for x, ys := range f.reach {
		r, ok := ys[u]
		if !ok || r.end > e.StartTime {
			continue
		}
		note(x, v, flowSpan{start: r.start, end: e.EndTime})
	}

	var out []*match.Partial
	for _, pair := range fresh {
		x, y := pair[0], pair[1]
		if f.emitted[pair] {
			continue
		}
		span := f.reach[x][y]
		if span.end-span.start > m.window.Seconds() {
			continue
		}
		f.emitted[pair] = true
		out = append(out, m.buildFlowPartial(ev, x, y, span))
	}
	return out
}

func (m *Matcher) buildFlowPartial(ev *pattern.Event, x, y match.InputEntityID, span flowSpan) *match.Partial {
	edge := match.Edge{
		Pattern:     ev.ID,
		IsFlow:      true,
		FlowSubject: x,
		FlowObject:  y,
		StartTime:   span.start,
		EndTime:     span.end,
	}
	empty := match.NewPartial(len(m.pat.Events))
	out, ok := match.Extend(empty, m.pat, ev.ID, edge)
	if !ok {
		return nil
	}
	return out
}
