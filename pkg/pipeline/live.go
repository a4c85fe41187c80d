package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/michaelzixizhou/codag/pkg/graph"
)

// Update modes emitted by Live. A destructive update requires the consumer
// to discard its rendered scene; an incremental update carries a diff that
// is strictly additive, so the consumer may patch in place.
const (
	ModeDestructive = "destructive"
	ModeIncremental = "incremental"
)

// Update is one applied pipeline run plus the diff that triggered it.
type Update struct {
	Result *Result
	Diff   *graph.GraphDiff
	Mode   string
}

// Live debounces snapshot submissions into pipeline runs.
//
// Submissions may arrive faster than the pipeline can run. Live keeps only
// the most recent snapshot: a run in flight is never interrupted, and when
// it finishes any superseded snapshot simply replaces the pending one.
// Results that are already stale when the run completes are discarded
// without being emitted, so consumers never observe an out-of-date layout.
// The pending pointer is the only shared state; it is accessed atomically
// with last-write-wins semantics.
type Live struct {
	runner *Runner
	opts   Options

	pending atomic.Pointer[graph.Graph]
	kick    chan struct{}
	updates chan Update

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	// prev is the last applied snapshot. Worker-local.
	prev *graph.Graph
}

// NewLive starts a coalescing worker around the runner. Close releases it.
func NewLive(ctx context.Context, runner *Runner, opts Options) *Live {
	ctx, cancel := context.WithCancel(ctx)
	l := &Live{
		runner:  runner,
		opts:    opts,
		kick:    make(chan struct{}, 1),
		updates: make(chan Update, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go l.run(ctx)
	return l
}

// Submit requests a pipeline run for the snapshot. Non-blocking; a snapshot
// submitted while another is pending replaces it.
func (l *Live) Submit(g *graph.Graph) {
	if g == nil {
		return
	}
	l.pending.Store(g)
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// Updates delivers applied runs. The channel closes when Live shuts down.
func (l *Live) Updates() <-chan Update {
	return l.updates
}

// Close stops the worker and waits for it to exit.
func (l *Live) Close() {
	l.closeOnce.Do(func() {
		l.cancel()
		<-l.done
	})
}

func (l *Live) run(ctx context.Context) {
	defer close(l.updates)
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.kick:
		}

		snapshot := l.pending.Swap(nil)
		if snapshot == nil {
			continue
		}

		d := graph.Diff(l.prev, snapshot)
		if l.prev != nil && !d.HasDiff() {
			continue
		}
		mode := ModeIncremental
		if l.prev == nil || d.Destructive() {
			mode = ModeDestructive
		}

		result, err := l.runner.Execute(ctx, snapshot, l.opts)
		if err != nil {
			l.runner.Logger.Error("pipeline run failed", "err", err)
			continue
		}

		// A newer snapshot arrived while we were running; this result is
		// stale. Drop it and let the pending snapshot drive the next run.
		if l.pending.Load() != nil {
			select {
			case l.kick <- struct{}{}:
			default:
			}
			continue
		}

		l.prev = snapshot
		select {
		case <-ctx.Done():
			return
		case l.updates <- Update{Result: result, Diff: d, Mode: mode}:
		}
	}
}
