package ingest

import (
	"sort"

	"github.com/ipmes-go/ipmes/pkg/decompose"
	"github.com/ipmes-go/ipmes/pkg/ipmeserr"
	"github.com/ipmes-go/ipmes/pkg/pattern"
	"go.uber.org/zap"
)

// Ingestor groups a stream of Events into timestamp batches and reorders
// each batch deterministically before releasing it, per §4.4.
type Ingestor struct {
	pattern *pattern.Pattern
	chains  []decompose.Chain
	log     *zap.Logger

	batch []Event
	cur   float64
	began bool
}

// New builds an Ingestor for the given compiled pattern and its chains. A
// nil logger disables the warning path entirely (§10.1: the core never
// requires a logger to run correctly).
func New(p *pattern.Pattern, chains []decompose.Chain, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{pattern: p, chains: chains, log: log}
}

// Push feeds one event into the ingestor. Release is called with every
// event of a completed batch, in the deterministic per-batch order, once
// the ingestor has seen the next distinct start time (or Flush is called).
func (in *Ingestor) Push(e Event, release func(Event)) {
	if !in.began {
		in.began = true
		in.cur = e.StartTime
		in.batch = append(in.batch, e)
		return
	}
	if e.StartTime < in.cur {
		in.log.Warn(ipmeserr.ErrOutOfOrderTimestamp.Error(),
			zap.String("event_id", string(e.ID)),
			zap.Float64("start_time", e.StartTime),
			zap.Float64("current_time", in.cur))
		return
	}
	if e.StartTime == in.cur {
		in.batch = append(in.batch, e)
		return
	}
	in.flushBatch(release)
	in.cur = e.StartTime
	in.batch = append(in.batch, e)
}

// Flush releases any buffered batch, e.g. at end of stream.
func (in *Ingestor) Flush(release func(Event)) {
	in.flushBatch(release)
}

func (in *Ingestor) flushBatch(release func(Event)) {
	if len(in.batch) == 0 {
		return
	}
	ordered := orderBatch(in.pattern, in.chains, in.batch)
	for _, e := range ordered {
		release(e)
	}
	in.batch = in.batch[:0]
}

// orderBatch sorts a same-timestamp batch by the minimum chain-position
// index at which each event's signature matches a pattern-event signature,
// ties broken by input event id (§4.4).
func orderBatch(p *pattern.Pattern, chains []decompose.Chain, batch []Event) []Event {
	rank := make([]int, len(batch))
	const unmatched = int(^uint(0) >> 1)
	for i, e := range batch {
		best := unmatched
		for _, c := range chains {
			for k, pid := range c.Events {
				if p.Event(pid).SigMatches(e.Signature) && k < best {
					best = k
				}
			}
		}
		rank[i] = best
	}

	idx := make([]int, len(batch))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if rank[ia] != rank[ib] {
			return rank[ia] < rank[ib]
		}
		return batch[ia].ID < batch[ib].ID
	})

	out := make([]Event, len(batch))
	for i, j := range idx {
		out[i] = batch[j]
	}
	return out
}
