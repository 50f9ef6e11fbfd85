// Package join implements the Join Engine (C6) and the Window Controller
// (C7): routing chain matches up the join tree, checking cross-chain
// compatibility at every internal node, and publishing full pattern
// matches.
//
// Grounded on the reference join layer's bottom-up walk: a leaf match is
// pushed into its own buffer, then joined against its sibling's buffer one
// level at a time, the merged result pushed into the parent, until either
// the root is reached (publish) or a level produces nothing new (stop).
package join

import (
	"time"

	"github.com/ipmes-go/ipmes/pkg/jointree"
	"github.com/ipmes-go/ipmes/pkg/match"
	"github.com/ipmes-go/ipmes/pkg/pattern"
)

// buffer is one join-tree node's queue of partials, in arrival order. A
// partial's EarliestTime is not monotone in arrival order, so the queue is
// not sorted by it and eviction checks every entry.
type buffer struct {
	partials []*match.Partial

	// index accelerates sibling-sharing pruning: for every pattern entity
	// bound in a resident partial, its (eid, input-entity) pair maps to the
	// partials that bound it, so a merge candidate can fetch only
	// compatible siblings instead of scanning the whole buffer (§4.6).
	index map[entityBindingKey][]*match.Partial
}

type entityBindingKey struct {
	eid   pattern.EntityID
	input match.InputEntityID
}

func newBuffer() *buffer {
	return &buffer{index: make(map[entityBindingKey][]*match.Partial)}
}

func (b *buffer) insert(p *match.Partial) {
	b.partials = append(b.partials, p)
	for eid, input := range p.BoundEntities() {
		key := entityBindingKey{eid: eid, input: input}
		b.index[key] = append(b.index[key], p)
	}
}

// candidatesFor returns the sibling partials that bind at least one pattern
// entity to the same input entity as p — the set worth pairwise-checking,
// per the sibling-sharing enforcement rule. If p binds no entity the sibling
// shares at all, the whole buffer is returned (no index hit to prune with).
func (b *buffer) candidatesFor(p *match.Partial) []*match.Partial {
	seen := make(map[*match.Partial]bool)
	var out []*match.Partial
	any := false
	for eid, input := range p.BoundEntities() {
		key := entityBindingKey{eid: eid, input: input}
		for _, cand := range b.index[key] {
			any = true
			if !seen[cand] {
				seen[cand] = true
				out = append(out, cand)
			}
		}
	}
	if !any {
		return b.partials
	}
	return out
}

// evictExpired drops every partial whose earliest_time is strictly older
// than now-W, per §4.7.
func (b *buffer) evictExpired(now float64, window time.Duration) {
	cutoff := now - window.Seconds()
	kept := make([]*match.Partial, 0, len(b.partials))
	for _, p := range b.partials {
		if p.EarliestTime >= cutoff {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(b.partials) {
		return
	}
	b.partials = kept
	b.index = make(map[entityBindingKey][]*match.Partial)
	for _, p := range b.partials {
		for eid, input := range p.BoundEntities() {
			key := entityBindingKey{eid: eid, input: input}
			b.index[key] = append(b.index[key], p)
		}
	}
}

// Engine walks chain matches up a join tree.
type Engine struct {
	pat    *pattern.Pattern
	tree   *jointree.Tree
	window time.Duration

	buffers []*buffer // one per join-tree node, indexed by node ID
}

// New builds a join Engine over the given join tree.
func New(p *pattern.Pattern, tree *jointree.Tree, window time.Duration) *Engine {
	buffers := make([]*buffer, len(tree.Nodes))
	for i := range buffers {
		buffers[i] = newBuffer()
	}
	return &Engine{pat: p, tree: tree, window: window, buffers: buffers}
}

// Feed admits one chain match (identified by the chain id it completed) and
// returns every full pattern match it produces while walking up the tree.
func (e *Engine) Feed(chainID int, p *match.Partial) []*match.Partial {
	leaf := e.tree.Leaves[chainID]
	return e.join(leaf, p)
}

// join implements the reference's bottom-up walk: merge the arriving
// partial against every compatible partial in the sibling buffer, insert
// the new partial into its own buffer, and if any merge succeeded, continue
// the walk one level up with the merged results; otherwise stop.
func (e *Engine) join(node int, p *match.Partial) []*match.Partial {
	n := e.tree.Nodes[node]
	if n.Parent == -1 {
		// Root: this chain coincides with the whole pattern.
		return []*match.Partial{p}
	}

	parent := n.Parent
	sibling := n.Sibling
	e.buffers[sibling].evictExpired(p.EarliestTime, e.window)

	var produced []*match.Partial
	for _, other := range e.buffers[sibling].candidatesFor(p) {
		if !match.Compatible(e.pat, e.window, p, other) {
			continue
		}
		merged := match.Merge(p, other)
		produced = append(produced, merged)
	}

	e.buffers[node].insert(p)

	if len(produced) == 0 {
		return nil
	}

	var full []*match.Partial
	for _, merged := range produced {
		full = append(full, e.join(parent, merged)...)
	}
	return full
}
