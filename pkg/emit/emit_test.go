package emit

import (
	"testing"

	"github.com/ipmes-go/ipmes/pkg/match"
	"github.com/ipmes-go/ipmes/pkg/pattern"
	"github.com/stretchr/testify/require"
)

func testPattern(t *testing.T) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Compile(pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}},
		Events:   []pattern.EventSpec{{ID: 0, Signature: "a", Subject: 0, Object: 1}},
	})
	require.NoError(t, err)
	return p
}

func TestFormat_DefaultTokens(t *testing.T) {
	m := Match{Start: 0, End: 5, Tokens: []string{"10", "20"}}
	require.Equal(t, "Pattern Match: <0, 5>[10, 20]", m.Format())
}

func TestFromPartial_FrequencyTokenIsParenthesizedList(t *testing.T) {
	p := match.NewPartial(1)
	edge := match.Edge{Pattern: 0, InputID: "e0", Extra: []match.InputEventID{"e2", "e1"}, StartTime: 0, EndTime: 3}
	p, ok := match.Extend(p, testPattern(t), 0, edge)
	require.True(t, ok)

	m := FromPartial(p)
	require.Equal(t, "(e0, e1, e2)", m.Tokens[0])
}

func TestFromPartial_FlowTokenIsArrowPair(t *testing.T) {
	p := match.NewPartial(1)
	edge := match.Edge{Pattern: 0, IsFlow: true, FlowSubject: "A", FlowObject: "D", StartTime: 0, EndTime: 2}
	p, ok := match.Extend(p, testPattern(t), 0, edge)
	require.True(t, ok)

	m := FromPartial(p)
	require.Equal(t, "(A -> D)", m.Tokens[0])
}

func TestEmitter_CountsEvenWhenSilent(t *testing.T) {
	e := New(nil)
	p := match.NewPartial(1)
	p, ok := match.Extend(p, testPattern(t), 0, match.Edge{Pattern: 0, InputID: "e0"})
	require.True(t, ok)

	e.Emit(p)
	e.Emit(p)
	require.Equal(t, 2, e.Count())
}
