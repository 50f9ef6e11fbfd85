package ingest

import (
	"testing"

	"github.com/ipmes-go/ipmes/pkg/decompose"
	"github.com/ipmes-go/ipmes/pkg/match"
	"github.com/ipmes-go/ipmes/pkg/pattern"
	"github.com/stretchr/testify/require"
)

func twoEventPattern(t *testing.T) (*pattern.Pattern, []decompose.Chain) {
	t.Helper()
	p, err := pattern.Compile(pattern.Spec{
		Entities: []pattern.EntitySpec{{ID: 0}, {ID: 1}, {ID: 2}},
		Events: []pattern.EventSpec{
			{ID: 0, Signature: "a", Subject: 0, Object: 1},
			{ID: 1, Signature: "b", Subject: 1, Object: 2, Parents: []pattern.EventID{0}},
		},
	})
	require.NoError(t, err)
	return p, decompose.Decompose(p)
}

func TestIngestor_ReordersSameTimestampBatch(t *testing.T) {
	p, chains := twoEventPattern(t)
	in := New(p, chains, nil)

	var released []Event
	in.Push(Event{StartTime: 0, ID: "e2", Signature: "b"}, func(e Event) { released = append(released, e) })
	in.Push(Event{StartTime: 0, ID: "e1", Signature: "a"}, func(e Event) { released = append(released, e) })
	in.Flush(func(e Event) { released = append(released, e) })

	require.Len(t, released, 2)
	require.Equal(t, Event{StartTime: 0, ID: "e1", Signature: "a"}, released[0])
	require.Equal(t, Event{StartTime: 0, ID: "e2", Signature: "b"}, released[1])
}

func TestIngestor_DropsOutOfOrderEvent(t *testing.T) {
	p, chains := twoEventPattern(t)
	in := New(p, chains, nil)

	var released []Event
	emit := func(e Event) { released = append(released, e) }
	in.Push(Event{StartTime: 5, ID: "e1", Signature: "a"}, emit)
	in.Flush(emit)
	in.Push(Event{StartTime: 2, ID: "e2", Signature: "b"}, emit)
	in.Flush(emit)

	require.Len(t, released, 1)
	require.Equal(t, match.InputEventID("e1"), released[0].ID)
}
