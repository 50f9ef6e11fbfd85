package match

import (
	"testing"
	"time"

	"github.com/ipmes-go/ipmes/pkg/pattern"
	"github.com/stretchr/testify/require"
)

func chainPattern(t *testing.T) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Compile(pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}},
		Events: []pattern.EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 2, Parents: []pattern.EventID{0}},
		},
	})
	require.NoError(t, err)
	return p
}

func TestExtend_RejectsOverlappingInputEvent(t *testing.T) {
	p := chainPattern(t)
	partial := NewPartial(2)
	partial, ok := Extend(partial, p, 0, Edge{InputID: "e1", Subject: "A", Object: "B", StartTime: 0, EndTime: 1})
	require.True(t, ok)

	_, ok = Extend(partial, p, 1, Edge{InputID: "e1", Subject: "B", Object: "C", StartTime: 2, EndTime: 3})
	require.False(t, ok)
}

func TestExtend_RejectsSharedEntityMismatch(t *testing.T) {
	p := chainPattern(t)
	partial := NewPartial(2)
	partial, ok := Extend(partial, p, 0, Edge{InputID: "e1", Subject: "A", Object: "B", StartTime: 0, EndTime: 1})
	require.True(t, ok)

	// e1's object bound entity 1 to B; e2 tries to bind subject (also entity 1) to C.
	_, ok = Extend(partial, p, 1, Edge{InputID: "e2", Subject: "C", Object: "D", StartTime: 2, EndTime: 3})
	require.False(t, ok)
}

func TestExtend_AllowsConsistentChain(t *testing.T) {
	p := chainPattern(t)
	partial := NewPartial(2)
	partial, ok := Extend(partial, p, 0, Edge{InputID: "e1", Subject: "A", Object: "B", StartTime: 0, EndTime: 1})
	require.True(t, ok)

	partial, ok = Extend(partial, p, 1, Edge{InputID: "e2", Subject: "B", Object: "C", StartTime: 2, EndTime: 3})
	require.True(t, ok)
	require.True(t, partial.IsFull())
	require.Equal(t, float64(0), partial.EarliestTime)
	require.Equal(t, float64(3), partial.LatestTime)
}

func TestCompatible_WindowBound(t *testing.T) {
	p := chainPattern(t)
	l := NewPartial(2)
	l, _ = Extend(l, p, 0, Edge{InputID: "e1", Subject: "A", Object: "B", StartTime: 0, EndTime: 1})
	r := NewPartial(2)
	r, _ = Extend(r, p, 1, Edge{InputID: "e2", Subject: "B", Object: "C", StartTime: 2, EndTime: 11})

	require.False(t, Compatible(p, 10*time.Second, l, r))
	require.True(t, Compatible(p, 11*time.Second, l, r))
}

func TestCompatible_TemporalOrderEnforced(t *testing.T) {
	p := chainPattern(t)
	l := NewPartial(2)
	l, _ = Extend(l, p, 0, Edge{InputID: "e1", Subject: "A", Object: "B", StartTime: 5, EndTime: 6})
	r := NewPartial(2)
	// p1 is a child of p0, so p0's input event must end before p1 starts.
	r, _ = Extend(r, p, 1, Edge{InputID: "e2", Subject: "B", Object: "C", StartTime: 1, EndTime: 2})

	require.False(t, Compatible(p, time.Hour, l, r))
}
