package internal

import (
	"log/slog"
	"sync"

	"github.com/petermattis/goid"
)

// Runtime holds all of the mutable evaluation state for one logical reactive
// thread: the currently tracked listener/owner, the monotonic change clock,
// batch depth, and the pending-observer queues. The spec calls for "each
// thread gets its own context"; Go's unit of concurrency is the goroutine, so
// runtimes are keyed by goroutine id via goid, mirroring how the teacher's
// own sig.go associates state with the calling goroutine.
type Runtime struct {
	currentListener *Computed
	currentOwner    *Owner
	tracking        bool

	clock uint64

	batchDepth int

	renderQueue []*Computed
	userQueue   []*Computed
	flushing    bool

	renderSettled []func()
	userSettled   []func()
	settled       []func()

	errSink func(owner *Owner, err any)
}

var runtimes sync.Map // goroutine id (int64) -> *Runtime

// GetRuntime returns (creating if necessary) the Runtime for the calling
// goroutine.
func GetRuntime() *Runtime {
	gid := goid.Get()
	if rt, ok := runtimes.Load(gid); ok {
		return rt.(*Runtime)
	}
	rt := &Runtime{tracking: true, errSink: defaultErrSink}
	runtimes.Store(gid, rt)
	return rt
}

// ReleaseRuntime discards the calling goroutine's Runtime. Intended for
// short-lived goroutines (e.g. one per test) that want a clean slate rather
// than leaking an entry in the global registry for the life of the process.
func ReleaseRuntime() {
	runtimes.Delete(goid.Get())
}

func defaultErrSink(owner *Owner, err any) {
	slog.Error("zen: unhandled effect error", "error", err)
}

// CurrentOwner returns the owner currently in scope for this runtime, or nil
// at the top level outside any Owner.Run/Computed/Effect body.
func (rt *Runtime) CurrentOwner() *Owner {
	return rt.currentOwner
}

func (rt *Runtime) bumpVersion() uint64 {
	rt.clock++
	return rt.clock
}

// track records a dependency edge from the active listener to source, unless
// tracking has been suspended (Untrack) or there is no active listener
// (top-level Read/Peek calls, or reads from inside an Owner.Run with no
// enclosing computation).
func (rt *Runtime) track(source *Signal) {
	if !rt.tracking || rt.currentListener == nil {
		return
	}
	link(rt.currentListener, source)
}

// Untrack suspends dependency tracking for the duration of fn, regardless of
// whether a listener is currently active, then restores the previous state.
func Untrack(fn func() any) any {
	rt := GetRuntime()
	prev := rt.tracking
	rt.tracking = false
	defer func() { rt.tracking = prev }()
	return fn()
}

// Batch defers the flush triggered by every Write inside fn until fn returns,
// coalescing any number of nested writes (including from nested Batch calls)
// into a single scheduling pass.
func Batch(fn func()) {
	rt := GetRuntime()
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 {
			rt.schedule()
		}
	}()
	fn()
}

// enqueueObserver adds c to whichever pending-observer queue matches its
// kind, deduplicating via the inQueue flag so a node suspected more than once
// in the same tick is only drained once.
func (rt *Runtime) enqueueObserver(c *Computed) {
	if c.inQueue {
		return
	}
	c.inQueue = true
	if c.kind == KindRender {
		rt.renderQueue = append(rt.renderQueue, c)
	} else {
		rt.userQueue = append(rt.userQueue, c)
	}
}

func (rt *Runtime) dequeueObserver(c *Computed) {
	c.inQueue = false
}

// schedule drains the pending-observer queues unless a batch is open or a
// flush is already in progress further up the call stack (a write from
// inside an effect body re-enters schedule, but the outer flush loop will
// simply see more work waiting on its next iteration).
func (rt *Runtime) schedule() {
	if rt.batchDepth > 0 || rt.flushing {
		return
	}
	rt.flush()
}

// flush runs the multi-tick scheduler loop (§4.5 / §4.8): each tick first
// drains a snapshot of the render queue, then a snapshot of the user queue.
// Effects that cascade — writing a signal that suspects further observers —
// append to the live queues rather than the snapshot being drained: a user
// effect suspected by a render effect still runs in this tick's user phase,
// while anything suspected by a user effect, or a render effect suspected by
// a render effect, waits for the next tick.
// The loop continues ticking until both queues are empty, then fires
// settlement callbacks outermost-last: per-phase settled callbacks after
// their own tick's snapshot, and OnSettled callbacks only once the whole
// loop has gone quiet.
func (rt *Runtime) flush() {
	rt.flushing = true
	defer func() { rt.flushing = false }()

	for len(rt.renderQueue) > 0 || len(rt.userQueue) > 0 {
		// Both phases run every tick, even when one side has no work: a
		// render-settled callback should fire as soon as the render phase of
		// a tick is done, whether or not anything was actually pending in it.
		renderBatch := rt.renderQueue
		rt.renderQueue = nil
		rt.drain(renderBatch)
		rt.fireRenderSettled()

		userBatch := rt.userQueue
		rt.userQueue = nil
		rt.drain(userBatch)
		rt.fireUserSettled()
	}

	rt.fireSettled()
}

func (rt *Runtime) drain(batch []*Computed) {
	for _, c := range batch {
		if !c.inQueue {
			continue // disposed, or already re-validated as a side effect of an earlier entry in this batch
		}
		rt.dequeueObserver(c)
		validate(rt, c)
	}
}

func (rt *Runtime) fireRenderSettled() {
	cbs := rt.renderSettled
	rt.renderSettled = nil
	for _, cb := range cbs {
		cb()
	}
}

func (rt *Runtime) fireUserSettled() {
	cbs := rt.userSettled
	rt.userSettled = nil
	for _, cb := range cbs {
		cb()
	}
}

func (rt *Runtime) fireSettled() {
	cbs := rt.settled
	rt.settled = nil
	for _, cb := range cbs {
		cb()
	}
}

// OnRenderSettled registers fn to run once, after the next render-phase
// snapshot of the current (or next) tick finishes draining.
func OnRenderSettled(fn func()) {
	rt := GetRuntime()
	rt.renderSettled = append(rt.renderSettled, fn)
}

// OnUserSettled registers fn to run once, after the next user-phase snapshot
// of the current (or next) tick finishes draining.
func OnUserSettled(fn func()) {
	rt := GetRuntime()
	rt.userSettled = append(rt.userSettled, fn)
}

// OnSettled registers fn to run once the entire scheduler loop — every
// cascaded tick, render and user phases alike — has gone fully quiet.
func OnSettled(fn func()) {
	rt := GetRuntime()
	rt.settled = append(rt.settled, fn)
}

// reportError delivers an effect callback's panic to the nearest ancestor
// owner with a registered catcher, falling back to the runtime's default
// slog-based sink if none claims it.
func (rt *Runtime) reportError(c *Computed, err any) {
	for owner := c.Owner; owner != nil; owner = owner.parent {
		if owner.hasCatchers() {
			owner.catch(err)
			return
		}
	}
	rt.errSink(c.Owner, err)
}

// SetErrorSink overrides the runtime's default unhandled-error sink, e.g. to
// route into a host application's own logger instead of slog.
func SetErrorSink(fn func(owner *Owner, err any)) {
	GetRuntime().errSink = fn
}
