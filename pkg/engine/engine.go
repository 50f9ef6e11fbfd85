// Package engine wires the Pattern Store, Decomposer, Join-Tree Builder,
// Event Ingestor, Composition Matcher, Join Engine, and Emitter (C1-C8) into
// the single streaming fold the CLI drives. Construction happens once, via
// functional options generalizing the teacher's Condition/WithX idiom
// (§10.3 of SPEC_FULL.md); the engine package itself carries zero
// flag-parsing knowledge.
package engine

import (
	"context"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ipmes-go/ipmes/internal/datagraph"
	"github.com/ipmes-go/ipmes/pkg/compose"
	"github.com/ipmes-go/ipmes/pkg/decompose"
	"github.com/ipmes-go/ipmes/pkg/emit"
	"github.com/ipmes-go/ipmes/pkg/ingest"
	"github.com/ipmes-go/ipmes/pkg/join"
	"github.com/ipmes-go/ipmes/pkg/jointree"
	"github.com/ipmes-go/ipmes/pkg/match"
	"github.com/ipmes-go/ipmes/pkg/pattern"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWindow = 1800 * time.Second // §6: "-w/--window-size (seconds, default 1800)"

type config struct {
	window time.Duration
	logger *zap.Logger
	sink   func(string)
}

// Option configures an Engine at construction time.
type Option func(*config)

// WithWindow sets the sliding time window W. Default 1800s (§6).
func WithWindow(w time.Duration) Option {
	return func(c *config) { c.window = w }
}

// WithLogger sets the logger used for C4's warning path. Default a no-op
// logger (§10.1): the engine never requires one to run correctly.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) { c.logger = log }
}

// WithSilent suppresses per-match stdout output (§6: "-s/--silent"); the
// match count is still tracked and returned by Run.
func WithSilent(silent bool) Option {
	return func(c *config) {
		if silent {
			c.sink = nil
		}
	}
}

// WithSink overrides where formatted matches are written. The CLI uses this
// to wire stdout; tests use it to capture output.
func WithSink(sink func(string)) Option {
	return func(c *config) { c.sink = sink }
}

// Engine is the assembled pattern-matching pipeline for one compiled
// pattern. It is not safe for concurrent Run calls — §5: "single-threaded
// cooperative... all mutation happens on the ingestion thread."
type Engine struct {
	pat    *pattern.Pattern
	chains []decompose.Chain
	tree   *jointree.Tree
	window time.Duration
	log    *zap.Logger

	matcher *compose.Matcher
	joiner  *join.Engine
	emitter *emit.Emitter
}

// New compiles pattern p's chains and join tree and assembles the
// composition matcher, join engine, and emitter around them (C2, C3, C5,
// C6, C8 of §2).
func New(p *pattern.Pattern, opts ...Option) *Engine {
	cfg := config{window: defaultWindow, logger: zap.NewNop(), sink: defaultSink}
	for _, opt := range opts {
		opt(&cfg)
	}

	chains := decompose.Decompose(p)
	tree := jointree.Build(p, chains)

	return &Engine{
		pat:     p,
		chains:  chains,
		tree:    tree,
		window:  cfg.window,
		log:     cfg.logger,
		matcher: compose.New(p, chains, cfg.window),
		joiner:  join.New(p, tree, cfg.window),
		emitter: emit.New(cfg.sink),
	}
}

func defaultSink(s string) {
	// cmd/ipmes overrides this with its own stdout writer; engine tests and
	// library callers that never set WithSink get silence rather than a
	// surprise os.Stdout dependency deep in a library package.
}

// Stats summarizes one Run invocation for the CLI's closing lines (§6:
// "Total number of matches: N", "CPU time elapsed", "Peak memory usage").
type Stats struct {
	Matches   int
	CPUTime   time.Duration
	PeakMemKB uint64
}

// Feed drives one ingested event through the composition matcher and join
// engine, publishing any full matches it completes. Exposed directly for
// callers (and tests) that already have a decoded ingest.Event stream and
// don't need Run's CSV/RSS/channel plumbing.
func (e *Engine) Feed(ev ingest.Event) []*match.Partial {
	var full []*match.Partial
	for _, cm := range e.matcher.Feed(ev) {
		full = append(full, e.joiner.Feed(cm.ChainID, cm.Partial)...)
	}
	for _, p := range full {
		e.emitter.Emit(p)
	}
	return full
}

// MatchCount returns the number of full matches emitted so far.
func (e *Engine) MatchCount() int { return e.emitter.Count() }

// Run ingests a CSV data-graph stream from src to completion, emitting full
// matches as they complete. It splits its work across three goroutines
// under one errgroup.Group (§11 of SPEC_FULL.md): ingestion+matching (which
// cancels the shared context when the stream ends), periodic peak-RSS
// sampling, and draining the emitter's output channel — so either duty
// failing tears the others down cleanly.
func (e *Engine) Run(ctx context.Context, src io.Reader) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reader := datagraph.New(src, e.log)
	matches := make(chan *match.Partial, 64)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		defer close(matches)
		in := ingest.New(e.pat, e.chains, e.log)
		release := func(ev ingest.Event) {
			for _, cm := range e.matcher.Feed(ev) {
				for _, full := range e.joiner.Feed(cm.ChainID, cm.Partial) {
					select {
					case matches <- full:
					case <-gctx.Done():
					}
				}
			}
		}
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			ev, ok := reader.Next()
			if !ok {
				in.Flush(release)
				return nil
			}
			in.Push(ev, release)
		}
	})

	var peakKB uint64
	g.Go(func() error {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		sample := func() {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			kb := ms.Sys / 1024
			for {
				cur := atomic.LoadUint64(&peakKB)
				if kb <= cur || atomic.CompareAndSwapUint64(&peakKB, cur, kb) {
					break
				}
			}
		}
		for {
			select {
			case <-gctx.Done():
				sample()
				return nil
			case <-ticker.C:
				sample()
			}
		}
	})

	g.Go(func() error {
		for p := range matches {
			e.emitter.Emit(p)
		}
		return nil
	})

	start := time.Now()
	err := g.Wait()
	stats := Stats{Matches: e.emitter.Count(), CPUTime: time.Since(start), PeakMemKB: atomic.LoadUint64(&peakKB)}
	return stats, err
}
