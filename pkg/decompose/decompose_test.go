package decompose

import (
	"testing"

	"github.com/ipmes-go/ipmes/pkg/pattern"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, s pattern.Spec) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Compile(s)
	require.NoError(t, err)
	return p
}

func TestDecompose_LinearChainIsOneChain(t *testing.T) {
	p := mustCompile(t, pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}},
		Events: []pattern.EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 2, Parents: []pattern.EventID{0}},
		},
	})
	chains := Decompose(p)
	require.Len(t, chains, 1)
	require.Equal(t, []pattern.EventID{0, 1}, chains[0].Events)
}

func TestDecompose_CoversEveryEventExactlyOnce(t *testing.T) {
	// Two disjoint two-hop chains sharing no entities: E0-E1 and E2-E3.
	p := mustCompile(t, pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}},
		Events: []pattern.EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 1, Parents: []pattern.EventID{0}},
			{ID: 2, Signature: "c", Subject: 2, Object: 3},
			{ID: 3, Signature: "d", Subject: 3, Object: 3, Parents: []pattern.EventID{2}},
		},
	})
	chains := Decompose(p)

	seen := make(map[pattern.EventID]int)
	for _, c := range chains {
		for _, ev := range c.Events {
			seen[ev]++
		}
	}
	require.Len(t, seen, 4)
	for pid, count := range seen {
		require.Equalf(t, 1, count, "event %d covered %d times", pid, count)
	}
}

func TestDecompose_IsIdempotent(t *testing.T) {
	p := mustCompile(t, pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}},
		Events: []pattern.EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 2, Parents: []pattern.EventID{0}},
		},
	})
	first := Decompose(p)
	second := Decompose(p)
	require.Equal(t, first, second)
}
