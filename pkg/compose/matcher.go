// Package compose implements the Composition Matcher (C5): per chain,
// maintains position buffers of partial matches, consumes ingested events in
// order, and emits full chain matches to the join engine.
//
// Grounded on the reference instance_runner's per-batch regex-set filter and
// state-table walk, generalized here to Go FIFO queues keyed by chain
// position. Position 0 is special: per the source, the initial state is
// never consumed, only cloned — every event matching chain[0]'s signature
// spawns a fresh partial rather than draining a one-shot seed.
package compose

import (
	"time"

	"github.com/ipmes-go/ipmes/pkg/decompose"
	"github.com/ipmes-go/ipmes/pkg/ingest"
	"github.com/ipmes-go/ipmes/pkg/match"
	"github.com/ipmes-go/ipmes/pkg/pattern"
)

// ChainMatch is a completed chain match, ready for the join engine, tagged
// with the chain (cid) it came from.
type ChainMatch struct {
	ChainID int
	Partial *match.Partial
}

// Matcher runs the composition automaton for every chain of a decomposed
// pattern.
type Matcher struct {
	pat    *pattern.Pattern
	chains []decompose.Chain
	window time.Duration

	// buffers[c][k] is the FIFO queue for chain c, position k (k>=1; see
	// package doc for why position 0 has no queue of its own).
	buffers [][][]*match.Partial

	freq map[freqKey]*freqBucket
	flow map[flowKey]*flowFrontier
}

// New builds a Matcher for the given chains of a compiled pattern.
func New(p *pattern.Pattern, chains []decompose.Chain, window time.Duration) *Matcher {
	buffers := make([][][]*match.Partial, len(chains))
	for i, c := range chains {
		buffers[i] = make([][]*match.Partial, len(c.Events))
	}
	return &Matcher{
		pat:     p,
		chains:  chains,
		window:  window,
		buffers: buffers,
		freq:    make(map[freqKey]*freqBucket),
		flow:    make(map[flowKey]*flowFrontier),
	}
}

// Feed consumes one ingested event and returns every full chain match it
// completes, across every chain.
func (m *Matcher) Feed(e ingest.Event) []ChainMatch {
	var out []ChainMatch
	for ci, c := range m.chains {
		out = append(out, m.feedChain(ci, c, e)...)
	}
	return out
}

func (m *Matcher) feedChain(ci int, c decompose.Chain, e ingest.Event) []ChainMatch {
	var out []ChainMatch
	last := len(c.Events) - 1

	for k, pid := range c.Events {
		ev := m.pat.Event(pid)

		switch ev.Kind {
		case pattern.Frequency:
			if k != 0 {
				continue // Frequency events are matched only at chain position 0
			}
			if done := m.feedFrequency(ci, ev, e); done != nil {
				if last == 0 {
					out = append(out, ChainMatch{ChainID: c.ID, Partial: done})
				} else {
					m.push(ci, 1, done)
				}
			}
			continue
		case pattern.Flow:
			if k != 0 {
				continue
			}
			for _, done := range m.feedFlow(ci, ev, e) {
				if done == nil {
					continue
				}
				if last == 0 {
					out = append(out, ChainMatch{ChainID: c.ID, Partial: done})
				} else {
					m.push(ci, 1, done)
				}
			}
			continue
		}

		m.evictExpired(ci, k, e.StartTime)
		if !ev.SigMatches(e.Signature) {
			continue
		}
		if !m.pat.Entity(ev.Subject).Matches(e.SubjectSig) || !m.pat.Entity(ev.Object).Matches(e.ObjectSig) {
			continue
		}

		candidates := m.candidatesAt(ci, k)
		edge := match.Edge{
			Pattern:   pid,
			InputID:   e.ID,
			Subject:   e.SubjectID,
			Object:    e.ObjectID,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
		}
		for _, p := range candidates {
			next, ok := match.Extend(p, m.pat, pid, edge)
			if !ok {
				continue
			}
			if k == last {
				out = append(out, ChainMatch{ChainID: c.ID, Partial: next})
			} else {
				m.push(ci, k+1, next)
			}
		}
	}
	return out
}

// candidatesAt returns the partials eligible to extend at position k: the
// single canonical empty partial for k==0, or the live contents of B[k]
// otherwise.
func (m *Matcher) candidatesAt(ci, k int) []*match.Partial {
	if k == 0 {
		return []*match.Partial{match.NewPartial(len(m.pat.Events))}
	}
	return m.buffers[ci][k]
}

func (m *Matcher) push(ci, k int, p *match.Partial) {
	m.buffers[ci][k] = append(m.buffers[ci][k], p)
}

// evictExpired drops every partial at B[ci][k] whose earliest_time is
// strictly older than now-W (§4.5 step 1, §4.7: "<" is strict). The queue
// is in arrival order, which is not earliest_time order, so every entry is
// checked.
func (m *Matcher) evictExpired(ci, k int, now float64) {
	if k == 0 {
		return
	}
	q := m.buffers[ci][k]
	cutoff := now - m.window.Seconds()
	kept := q[:0]
	for _, p := range q {
		if p.EarliestTime >= cutoff {
			kept = append(kept, p)
		}
	}
	m.buffers[ci][k] = kept
}
