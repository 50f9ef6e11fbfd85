package join

import (
	"testing"
	"time"

	"github.com/ipmes-go/ipmes/pkg/decompose"
	"github.com/ipmes-go/ipmes/pkg/jointree"
	"github.com/ipmes-go/ipmes/pkg/match"
	"github.com/ipmes-go/ipmes/pkg/pattern"
	"github.com/stretchr/testify/require"
)

// Two chains {0} and {1} sharing entity 1, decomposed from a pattern whose
// events are NOT temporally related (so composition alone cannot combine
// them) but which still share entity 1 as object/subject.
func forkPattern(t *testing.T) (*pattern.Pattern, *jointree.Tree) {
	t.Helper()
	p, err := pattern.Compile(pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}},
		Events: []pattern.EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 2},
		},
	})
	require.NoError(t, err)
	chains := decompose.Decompose(p)
	require.Len(t, chains, 2)
	tree := jointree.Build(p, chains)
	return p, tree
}

func leafPartial(t *testing.T, p *pattern.Pattern, pid pattern.EventID, subj, obj match.InputEntityID, start, end float64, id match.InputEventID) *match.Partial {
	t.Helper()
	empty := match.NewPartial(len(p.Events))
	next, ok := match.Extend(empty, p, pid, match.Edge{
		Pattern: pid, InputID: id, Subject: subj, Object: obj, StartTime: start, EndTime: end,
	})
	require.True(t, ok)
	return next
}

func TestEngine_JoinsCompatibleSiblingPartials(t *testing.T) {
	p, tree := forkPattern(t)
	e := New(p, tree, 10*time.Second)

	// chain 0 (pid 0) and chain 1 (pid 1) both keyed by chain id matching
	// decompose's assigned chain.ID, which for two singleton chains is 0,1.
	full := e.Feed(0, leafPartial(t, p, 0, "100", "200", 0, 0, "e1"))
	require.Empty(t, full)

	full = e.Feed(1, leafPartial(t, p, 1, "200", "300", 1, 1, "e2"))
	require.Len(t, full, 1)
	require.True(t, full[0].IsFull())
}

func TestEngine_RejectsEntityMismatch(t *testing.T) {
	p, tree := forkPattern(t)
	e := New(p, tree, 10*time.Second)

	e.Feed(0, leafPartial(t, p, 0, "100", "200", 0, 0, "e1"))
	// Object entity of chain 0 was bound to "200"; chain 1's subject binds
	// the SAME pattern entity (1) to a different input entity "999".
	full := e.Feed(1, leafPartial(t, p, 1, "999", "300", 1, 1, "e2"))
	require.Empty(t, full)
}

func TestEngine_RejectsWindowViolation(t *testing.T) {
	p, tree := forkPattern(t)
	e := New(p, tree, 5*time.Second)

	e.Feed(0, leafPartial(t, p, 0, "100", "200", 0, 0, "e1"))
	full := e.Feed(1, leafPartial(t, p, 1, "200", "300", 10, 10, "e2"))
	require.Empty(t, full)
}
