// Package emit implements the Emitter (C8): serializing a full pattern
// match as the pattern start/end time and its bound input-event tokens, one
// token per pattern-event id in order, per §4.8 and §6 ("Output").
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ipmes-go/ipmes/pkg/match"
)

// Match is the serialized shape of one full pattern match: a start time, an
// end time, and one token per pattern event id, in order.
type Match struct {
	Start  float64
	End    float64
	Tokens []string
}

// Format renders m exactly as §6 specifies:
// "Pattern Match: <start, end>[tok0, tok1, ...]".
func (m Match) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pattern Match: <%g, %g>[", m.Start, m.End)
	for i, tok := range m.Tokens {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tok)
	}
	b.WriteString("]")
	return b.String()
}

// FromPartial converts a full partial match into its serialized Match,
// ordering tokens by pattern-event id and choosing each token's shape by
// the edge's kind: a bare event id for Default, a parenthesized
// comma-separated list for Frequency, and "(subj -> obj)" for Flow (§4.8).
func FromPartial(p *match.Partial) Match {
	tokens := make([]string, len(p.Edges))
	for pid, e := range p.Edges {
		tokens[pid] = formatEdge(e)
	}
	return Match{Start: p.EarliestTime, End: p.LatestTime, Tokens: tokens}
}

func formatEdge(e *match.Edge) string {
	if e == nil {
		return "?"
	}
	if e.IsFlow {
		return fmt.Sprintf("(%s -> %s)", e.FlowSubject, e.FlowObject)
	}
	if len(e.Extra) == 0 {
		return string(e.InputID)
	}
	ids := append([]string{string(e.InputID)}, stringifyIDs(e.Extra)...)
	return "(" + strings.Join(ids, ", ") + ")"
}

func stringifyIDs(ids []match.InputEventID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	sort.Strings(out)
	return out
}

// Emitter serializes full matches to a sink function, tracking the running
// total the CLI summary line reports (§6: "Total number of matches: N").
type Emitter struct {
	sink  func(string)
	count int
}

// New builds an Emitter that writes each formatted match to sink. A nil
// sink silently discards output (used by -s/--silent, §6).
func New(sink func(string)) *Emitter {
	return &Emitter{sink: sink}
}

// Emit serializes and publishes one full match, per §3's Full Match
// lifecycle: "Published once and discarded."
func (e *Emitter) Emit(p *match.Partial) {
	e.count++
	if e.sink == nil {
		return
	}
	e.sink(FromPartial(p).Format())
}

// Count returns the number of matches emitted so far.
func (e *Emitter) Count() int { return e.count }
