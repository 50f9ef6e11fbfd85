package jointree

import (
	"testing"

	"github.com/ipmes-go/ipmes/pkg/decompose"
	"github.com/ipmes-go/ipmes/pkg/pattern"
	"github.com/stretchr/testify/require"
)

func TestBuild_SingleChainIsRoot(t *testing.T) {
	chains := []decompose.Chain{{ID: 0, Events: []pattern.EventID{0}}}
	p, err := pattern.Compile(pattern.Spec{Events: []pattern.EventSpec{{ID: 0, Signature: "a"}}})
	require.NoError(t, err)

	tree := Build(p, chains)
	require.Equal(t, 0, tree.Root)
	require.True(t, tree.Nodes[tree.Root].IsLeaf)
}

func TestBuild_TwoSharingChainsMergeIntoOneRoot(t *testing.T) {
	p, err := pattern.Compile(pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}},
		Events: []pattern.EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 2},
		},
	})
	require.NoError(t, err)
	chains := []decompose.Chain{
		{ID: 0, Events: []pattern.EventID{0}},
		{ID: 1, Events: []pattern.EventID{1}},
	}
	tree := Build(p, chains)
	root := tree.Nodes[tree.Root]
	require.False(t, root.IsLeaf)
	require.Equal(t, 2, root.Height)
	left := tree.Nodes[root.Left]
	right := tree.Nodes[root.Right]
	require.Equal(t, right.Sibling, left.ID)
	require.Equal(t, left.Sibling, right.ID)
}

func TestBuild_EveryLeafReachesRoot(t *testing.T) {
	p, err := pattern.Compile(pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}},
		Events: []pattern.EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 2},
			{ID: 2, Signature: "c", Subject: 2, Object: 3},
		},
	})
	require.NoError(t, err)
	chains := []decompose.Chain{
		{ID: 0, Events: []pattern.EventID{0}},
		{ID: 1, Events: []pattern.EventID{1}},
		{ID: 2, Events: []pattern.EventID{2}},
	}
	tree := Build(p, chains)

	for _, leaf := range tree.Leaves {
		n := leaf
		steps := 0
		for tree.Nodes[n].Parent != -1 {
			n = tree.Nodes[n].Parent
			steps++
			require.Less(t, steps, len(tree.Nodes))
		}
		require.Equal(t, tree.Root, n)
	}
}
