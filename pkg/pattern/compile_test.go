package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func twoEventChain() Spec {
	return Spec{
		Entities: []EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}},
		Events: []EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 2, Parents: []EventID{0}},
		},
	}
}

func TestCompile_SimpleChain(t *testing.T) {
	p, err := Compile(twoEventChain())
	require.NoError(t, err)
	require.True(t, p.IsAncestor(0, 1))
	require.False(t, p.IsAncestor(1, 0))

	related, before := p.Related(0, 1)
	require.True(t, related)
	require.True(t, before)
}

func TestCompile_RejectsCycle(t *testing.T) {
	s := Spec{
		Events: []EventSpec{
			{ID: 0, Signature: "a", Parents: []EventID{1}},
			{ID: 1, Signature: "b", Parents: []EventID{0}},
		},
	}
	_, err := Compile(s)
	require.Error(t, err)
	var ipe *InvalidPatternError
	require.ErrorAs(t, err, &ipe)
}

func TestCompile_RejectsSparseIDs(t *testing.T) {
	s := Spec{
		Events: []EventSpec{
			{ID: 0, Signature: "a"},
			{ID: 2, Signature: "b"},
		},
	}
	_, err := Compile(s)
	require.Error(t, err)
}

func TestCompile_RejectsBadFrequency(t *testing.T) {
	s := Spec{
		Events: []EventSpec{
			{ID: 0, Kind: Frequency, Freq: 1, Signature: "x"},
		},
	}
	_, err := Compile(s)
	require.Error(t, err)
}

func TestCompile_RejectsFlowWithSignature(t *testing.T) {
	s := Spec{
		Events: []EventSpec{
			{ID: 0, Kind: Flow, Signature: "x"},
		},
	}
	_, err := Compile(s)
	require.Error(t, err)
}

func TestCompile_RegexSignature(t *testing.T) {
	s := Spec{
		UseRegex: true,
		Events: []EventSpec{
			{ID: 0, Signature: "^read_.*"},
		},
	}
	p, err := Compile(s)
	require.NoError(t, err)
	require.True(t, p.Event(0).SigMatches("read_file"))
	require.False(t, p.Event(0).SigMatches("write_file"))
}

func TestSharedEntities(t *testing.T) {
	p, err := Compile(twoEventChain())
	require.NoError(t, err)
	shared := SharedEntities(p.Event(0), p.Event(1))
	require.Equal(t, []EntityID{1}, shared)
}
