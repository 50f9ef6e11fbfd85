// Package decompose implements the Decomposer (C2): splitting a compiled
// pattern into total-ordered chains that together cover every pattern event
// exactly once.
//
// Grounded on the two-phase algorithm of the reference sub_pattern module:
// phase one enumerates candidate chains by depth-first walk of the temporal
// DAG, extending a chain only when the next event shares a pattern entity
// with something already in it; phase two greedily selects the longest
// still-uncovering candidates first.
package decompose

import (
	"sort"

	"github.com/ipmes-go/ipmes/pkg/pattern"
)

// Chain is a total-ordered list of pattern events forming one leaf of the
// eventual join tree.
type Chain struct {
	ID     int
	Events []pattern.EventID
}

// Decompose covers every pattern event of p in exactly one chain.
func Decompose(p *pattern.Pattern) []Chain {
	candidates := generateCandidates(p)
	selected := selectCover(len(p.Events), candidates)

	chains := make([]Chain, len(selected))
	for i, c := range selected {
		chains[i] = Chain{ID: i, Events: c}
	}
	return chains
}

// generateCandidates performs the DFS of phase one: for every starting
// event, walk forward through Children, appending to the accumulated chain
// whenever the candidate event shares a pattern entity with any event
// already in the chain (hasSharedNode). Every prefix reached along the walk
// is recorded, not just maximal walks, mirroring the reference DFS which
// pushes a clone of the accumulator at every step before recursing further.
func generateCandidates(p *pattern.Pattern) [][]pattern.EventID {
	var candidates [][]pattern.EventID

	var dfs func(cur pattern.EventID, parents []pattern.EventID)
	dfs = func(cur pattern.EventID, parents []pattern.EventID) {
		if !hasSharedNode(p.Event(cur), p, parents) {
			return
		}
		chain := append(append([]pattern.EventID(nil), parents...), cur)
		candidates = append(candidates, chain)

		for _, next := range p.Children(cur) {
			dfs(next, chain)
		}
	}

	for i := range p.Events {
		dfs(p.Events[i].ID, nil)
	}
	return candidates
}

// hasSharedNode reports whether ev shares a subject/object entity with any
// event already accumulated in parents. An empty parents list always
// qualifies (a chain may start anywhere).
func hasSharedNode(ev *pattern.Event, p *pattern.Pattern, parents []pattern.EventID) bool {
	if len(parents) == 0 {
		return true
	}
	for _, pid := range parents {
		if len(pattern.SharedEntities(ev, p.Event(pid))) > 0 {
			return true
		}
	}
	return false
}

// selectCover performs the greedy maximum-cover of phase two: candidates are
// sorted by length descending, ties by lowest contained pattern-event id,
// and a candidate is accepted iff none of its events is already covered.
func selectCover(numEvents int, candidates [][]pattern.EventID) [][]pattern.EventID {
	sort.SliceStable(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) > len(candidates[j])
		}
		return minEventID(candidates[i]) < minEventID(candidates[j])
	})

	covered := make([]bool, numEvents)
	var selected [][]pattern.EventID
	remaining := numEvents

	for _, c := range candidates {
		if remaining == 0 {
			break
		}
		if containsCovered(c, covered) {
			continue
		}
		selected = append(selected, c)
		for _, pid := range c {
			covered[pid] = true
		}
		remaining -= len(c)
	}
	return selected
}

func containsCovered(chain []pattern.EventID, covered []bool) bool {
	for _, pid := range chain {
		if covered[pid] {
			return true
		}
	}
	return false
}

func minEventID(chain []pattern.EventID) pattern.EventID {
	m := chain[0]
	for _, pid := range chain[1:] {
		if pid < m {
			m = pid
		}
	}
	return m
}
