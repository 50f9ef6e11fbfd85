package compose

import (
	"github.com/ipmes-go/ipmes/pkg/ingest"
	"github.com/ipmes-go/ipmes/pkg/match"
	"github.com/ipmes-go/ipmes/pkg/pattern"
)

// freqKey identifies one accumulating Frequency bucket: a chain and the
// concrete entity pair bound to the pattern event's subject/object.
type freqKey struct {
	chain   int
	subject match.InputEntityID
	object  match.InputEntityID
}

type freqItem struct {
	id    match.InputEventID
	start float64
	end   float64
}

// freqBucket accumulates distinct input events matching a Frequency pattern
// event until it reaches the declared threshold, per §4.5's Frequency
// variant and §12.4 of SPEC_FULL.md: once emitted, a bucket is frozen and
// never re-emits on later supersets.
type freqBucket struct {
	items   []freqItem
	seen    map[match.InputEventID]bool
	emitted bool
}

// feedFrequency accumulates e into the bucket for ev's (chain, subject,
// object) binding and returns a completed partial the first time the bucket
// reaches ev.Freq; nil otherwise.
func (m *Matcher) feedFrequency(ci int, ev *pattern.Event, e ingest.Event) *match.Partial {
	if !ev.SigMatches(e.Signature) {
		return nil
	}
	if !m.pat.Entity(ev.Subject).Matches(e.SubjectSig) || !m.pat.Entity(ev.Object).Matches(e.ObjectSig) {
		return nil
	}
	key := freqKey{chain: ci, subject: e.SubjectID, object: e.ObjectID}
	b, ok := m.freq[key]
	if !ok {
		b = &freqBucket{seen: make(map[match.InputEventID]bool)}
		m.freq[key] = b
	}
	if b.emitted || b.seen[e.ID] {
		return nil
	}

	b.seen[e.ID] = true
	b.items = append(b.items, freqItem{id: e.ID, start: e.StartTime, end: e.EndTime})

	// Drop members that have fallen outside the window relative to the
	// newest arrival, rather than emitting a stale match (§4.7 applies to
	// Frequency buckets the same way it applies to ordinary partials).
	cutoff := e.StartTime - m.window.Seconds()
	kept := b.items[:0]
	for _, it := range b.items {
		if it.start < cutoff {
			delete(b.seen, it.id)
			continue
		}
		kept = append(kept, it)
	}
	b.items = kept

	if len(b.items) < ev.Freq {
		return nil
	}

	b.emitted = true
	return m.buildFrequencyPartial(ev, e, b)
}

func (m *Matcher) buildFrequencyPartial(ev *pattern.Event, e ingest.Event, b *freqBucket) *match.Partial {
	earliest, latest := b.items[0].start, b.items[0].end
	ids := make([]match.InputEventID, len(b.items))
	for i, it := range b.items {
		ids[i] = it.id
		if it.start < earliest {
			earliest = it.start
		}
		if it.end > latest {
			latest = it.end
		}
	}

	edge := match.Edge{
		Pattern:   ev.ID,
		InputID:   ids[0],
		Subject:   e.SubjectID,
		Object:    e.ObjectID,
		StartTime: earliest,
		EndTime:   latest,
		Extra:     ids[1:],
	}
	empty := match.NewPartial(len(m.pat.Events))
	out, ok := match.Extend(empty, m.pat, ev.ID, edge)
	if !ok {
		return nil
	}
	return out
}
