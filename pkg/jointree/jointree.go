// Package jointree implements the Join-Tree Builder (C3): merging the
// chains produced by decompose.Decompose into a height-balanced binary tree
// whose leaves are chains and whose internal nodes are join buffers.
//
// Grounded on the reference join layer's construction routine: a union-find
// over live roots (see unionfind.go) driven by a min-heap of candidate
// merges keyed by resulting height, seeded from every shared-pattern-entity
// leaf pair, with new candidates discovered after every merge.
package jointree

import (
	"container/heap"
	"sort"

	"github.com/ipmes-go/ipmes/pkg/decompose"
	"github.com/ipmes-go/ipmes/pkg/pattern"
)

// Node is one node of the join tree. Leaves carry a ChainID; internal nodes
// carry Left/Right children. Entities is the set of pattern entities touched
// by the node's whole subtree, used during Build to seed further merge
// candidates.
type Node struct {
	ID       int
	IsLeaf   bool
	ChainID  int
	Left     int // -1 if leaf
	Right    int // -1 if leaf
	Parent   int // -1 if root
	Sibling  int // -1 if root
	Height   int
	Entities map[pattern.EntityID]bool
}

// Tree is the compiled join tree: Nodes indexed by ID, Root the index of the
// root node, Leaves the leaf node index for each chain id.
type Tree struct {
	Nodes  []Node
	Root   int
	Leaves []int
}

type candidate struct {
	height int
	i, j   int
}

type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(a, b int) bool {
	if h[a].height != h[b].height {
		return h[a].height < h[b].height
	}
	if h[a].i != h[b].i {
		return h[a].i < h[b].i
	}
	return h[a].j < h[b].j
}
func (h candidateHeap) Swap(a, b int)      { h[a], h[b] = h[b], h[a] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Build constructs the join tree over chains.
func Build(p *pattern.Pattern, chains []decompose.Chain) *Tree {
	l := len(chains)
	if l == 0 {
		return &Tree{Root: -1}
	}

	maxNodes := 2*l - 1
	nodes := make([]Node, l, maxNodes)
	leaves := make([]int, l)
	for i, c := range chains {
		ents := make(map[pattern.EntityID]bool)
		for _, pid := range c.Events {
			ev := p.Event(pid)
			ents[ev.Subject] = true
			ents[ev.Object] = true
		}
		nodes[i] = Node{
			ID: i, IsLeaf: true, ChainID: c.ID,
			Left: -1, Right: -1, Parent: -1, Sibling: -1,
			Height: 1, Entities: ents,
		}
		leaves[i] = i
	}

	uf := newUnionFind(maxNodes)

	h := &candidateHeap{}
	heap.Init(h)
	for i := 0; i < l; i++ {
		for j := i + 1; j < l; j++ {
			if sharesEntity(nodes[i].Entities, nodes[j].Entities) {
				heap.Push(h, candidate{height: 2, i: i, j: j})
			}
		}
	}

	liveRoots := func() []int {
		seen := make(map[int]bool)
		var roots []int
		for i := 0; i < len(nodes); i++ {
			r := uf.getRoot(i)
			if !seen[r] {
				seen[r] = true
				roots = append(roots, r)
			}
		}
		sort.Ints(roots)
		return roots
	}

	merge := func(i, j int) int {
		k := len(nodes)
		ents := make(map[pattern.EntityID]bool, len(nodes[i].Entities)+len(nodes[j].Entities))
		for e := range nodes[i].Entities {
			ents[e] = true
		}
		for e := range nodes[j].Entities {
			ents[e] = true
		}
		height := nodes[i].Height
		if nodes[j].Height > height {
			height = nodes[j].Height
		}
		height++
		nodes = append(nodes, Node{
			ID: k, IsLeaf: false, ChainID: -1,
			Left: i, Right: j, Parent: -1, Sibling: -1,
			Height: height, Entities: ents,
		})
		nodes[i].Parent, nodes[j].Parent = k, k
		nodes[i].Sibling, nodes[j].Sibling = j, i
		uf.merge(i, j, k)

		for _, r := range liveRoots() {
			if r == k {
				continue
			}
			if sharesEntity(nodes[k].Entities, nodes[r].Entities) {
				height := nodes[k].Height
				if nodes[r].Height > height {
					height = nodes[r].Height
				}
				a, b := k, r
				if b < a {
					a, b = b, a
				}
				heap.Push(h, candidate{height: height + 1, i: a, j: b})
			}
		}
		return k
	}

	for len(liveRoots()) > 1 {
		var picked *candidate
		for h.Len() > 0 {
			c := heap.Pop(h).(candidate)
			if uf.getRoot(c.i) == c.i && uf.getRoot(c.j) == c.j && c.i != c.j {
				picked = &c
				break
			}
		}
		if picked != nil {
			merge(picked.i, picked.j)
			continue
		}
		// No mergeable candidate remains: fall back to merging the two
		// lowest-indexed live roots (legal but join-key-less, per §4.2).
		roots := liveRoots()
		merge(roots[0], roots[1])
	}

	root := liveRoots()[0]
	return &Tree{Nodes: nodes, Root: root, Leaves: leaves}
}

func sharesEntity(a, b map[pattern.EntityID]bool) bool {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for e := range small {
		if big[e] {
			return true
		}
	}
	return false
}
