// Package zen is a fine-grained reactive graph: mutable cells (Signal),
// memoized pure derivations (Computed), and side-effecting observers
// (Effect), kept glitch-free and lazily consistent by a three-color
// marking engine in the internal package.
package zen

import "github.com/sylphxltd/zen-sub001/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// Signal is a mutable reactive cell holding a value of type T.
type Signal[T any] struct {
	signal *internal.Signal
}

type signalConfig struct {
	eq internal.EqualFunc
}

// SignalOption customizes NewSignal.
type SignalOption func(*signalConfig)

// WithSignalEqual overrides the default reference-equality change check with
// a custom comparison.
func WithSignalEqual[T any](eq func(a, b T) bool) SignalOption {
	return func(cfg *signalConfig) {
		cfg.eq = func(a, b any) bool { return eq(as[T](a), as[T](b)) }
	}
}

// NewSignal creates a cell holding initial, owned by nobody — cells live
// until every reference to them is dropped.
func NewSignal[T any](initial T, opts ...SignalOption) *Signal[T] {
	cfg := &signalConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Signal[T]{signal: internal.NewSignal(initial, cfg.eq)}
}

// Read returns the current value, recording a dependency edge if called from
// within a Computed's or Effect's body.
func (s *Signal[T]) Read() T { return as[T](s.signal.Read()) }

// Peek returns the current value without recording a dependency edge.
func (s *Signal[T]) Peek() T { return as[T](s.signal.Peek()) }

// Write stores v. If v differs from the current value it marks every
// transitive observer for re-validation and schedules a flush.
func (s *Signal[T]) Write(v T) { s.signal.Write(v) }

// Computed is a memoized derivation recomputed lazily, only when read after
// one of its sources may have changed.
type Computed[T any] struct {
	computed *internal.Computed
}

type computedConfig struct {
	eq internal.EqualFunc
}

// ComputedOption customizes NewComputed.
type ComputedOption func(*computedConfig)

// WithComputedEqual overrides the default reference-equality change check
// used to decide whether a recomputed value should propagate downstream.
func WithComputedEqual[T any](eq func(a, b T) bool) ComputedOption {
	return func(cfg *computedConfig) {
		cfg.eq = func(a, b any) bool { return eq(as[T](a), as[T](b)) }
	}
}

// NewComputed creates a derivation owned by the current owner (if any). It is
// not evaluated until first read.
func NewComputed[T any](compute func() T, opts ...ComputedOption) *Computed[T] {
	cfg := &computedConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	rt := internal.GetRuntime()
	c := internal.NewComputed(rt.CurrentOwner(), func() any { return compute() }, cfg.eq)
	return &Computed[T]{computed: c}
}

// Read validates and returns the current value, recording a dependency edge
// if called from within another Computed's or Effect's body.
func (c *Computed[T]) Read() T { return as[T](c.computed.Read()) }

// Peek validates and returns the current value without recording a
// dependency edge.
func (c *Computed[T]) Peek() T { return as[T](c.computed.Peek()) }

// NewBatch runs fn with signal-write propagation deferred until fn returns,
// coalescing any number of writes into one flush.
func NewBatch(fn func()) { internal.Batch(fn) }

// NewEffect creates a user-phase observer: an effect that runs fn once
// immediately and again every time one of its dependencies may have changed,
// drained during the user phase of a flush tick (after any render effects).
func NewEffect(fn func()) *Owner {
	rt := internal.GetRuntime()
	c := internal.NewEffect(rt.CurrentOwner(), internal.KindUser, fn)
	return &Owner{owner: c.Owner}
}

// NewRenderEffect creates a render-phase observer, drained before any user
// effects within the same flush tick. Intended for host-renderer integration
// where render work must settle before application-level effects observe it.
func NewRenderEffect(fn func()) *Owner {
	rt := internal.GetRuntime()
	c := internal.NewEffect(rt.CurrentOwner(), internal.KindRender, fn)
	return &Owner{owner: c.Owner}
}

// Untrack runs fn without recording any dependency edges, regardless of
// whether it is called from within a tracking context.
func Untrack[T any](fn func() T) T {
	var result T
	internal.Untrack(func() any {
		result = fn()
		return nil
	})
	return result
}

// Peek reads a value-returning function once, with tracking suspended; a
// convenience wrapper over Untrack for the common "read without subscribing"
// case.
func Peek[T any](fn func() T) T { return Untrack(fn) }

// OnCleanup registers fn to run before the current owner's next recomputation
// and at disposal. Must be called from within a Computed's or Effect's body,
// or against an explicit Owner.
func OnCleanup(fn func()) {
	rt := internal.GetRuntime()
	if owner := rt.CurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

// OnError registers fn as the panic catcher for the current owner. An
// effect's callback panic is reported to the nearest ancestor with a
// registered catcher.
func OnError(fn func(any)) {
	rt := internal.GetRuntime()
	if owner := rt.CurrentOwner(); owner != nil {
		owner.OnError(fn)
	}
}

// OnSettled registers fn to run once the scheduler's entire flush loop —
// every cascaded tick, render and user phases alike — has gone fully quiet.
func OnSettled(fn func()) { internal.OnSettled(fn) }

// OnUserSettled registers fn to run once the user phase of the current (or
// next) flush tick finishes draining its snapshot.
func OnUserSettled(fn func()) { internal.OnUserSettled(fn) }

// OnRenderSettled registers fn to run once the render phase of the current
// (or next) flush tick finishes draining its snapshot.
func OnRenderSettled(fn func()) { internal.OnRenderSettled(fn) }

// Context is a value inherited down the owner tree, overridable by a
// descendant scope without affecting ancestors or siblings.
type Context[T any] struct {
	key     *int
	initial T
}

// NewContext creates a context with a module-wide default of initial.
func NewContext[T any](initial T) *Context[T] {
	return &Context[T]{key: new(int), initial: initial}
}

// Value returns the value set by the nearest ancestor owner (including the
// current one), or the context's default if none has set it.
func (c *Context[T]) Value() T {
	rt := internal.GetRuntime()
	owner := rt.CurrentOwner()
	if owner == nil {
		return c.initial
	}
	if v, ok := owner.ContextValue(c.key); ok {
		return as[T](v)
	}
	return c.initial
}

// Set overrides the context's value for the current owner and its
// descendants.
func (c *Context[T]) Set(value T) {
	rt := internal.GetRuntime()
	if owner := rt.CurrentOwner(); owner != nil {
		owner.SetContext(c.key, value)
	}
}

// Owner manages the lifecycle of the reactive nodes created within its
// scope: disposing it recursively disposes its children, runs its own
// cleanups, and detaches whatever Computed/Effect it backs from the graph.
type Owner struct {
	owner *internal.Owner
}

// NewOwner creates an owner. Called inside another owner's Run or a
// Computed's or Effect's body, it becomes a child of that current owner;
// called at the top level, it is a root with no parent.
func NewOwner() *Owner { return &Owner{owner: internal.NewOwner()} }

// Run executes fn with this owner made current, so any signal/computed/
// effect fn constructs is registered as this owner's child.
func (o *Owner) Run(fn func() error) error { return o.owner.Run(fn) }

// Dispose recursively tears down this owner: children first, then its own
// cleanups in reverse registration order. Idempotent.
func (o *Owner) Dispose() error { return o.owner.Dispose() }

// OnCleanup registers fn to run at disposal. On an owner returned by
// NewEffect or NewRenderEffect, registered cleanups also run before each
// re-run of that effect.
func (o *Owner) OnCleanup(fn func()) { o.owner.OnCleanup(fn) }

// OnDispose is an alias for OnCleanup.
func (o *Owner) OnDispose(fn func()) { o.owner.OnCleanup(fn) }

// OnError registers fn as this owner's panic catcher.
func (o *Owner) OnError(fn func(any)) { o.owner.OnError(fn) }

// SetName attaches a diagnostic label to s, used only by DumpGraph output.
func SetName[T any](s *Signal[T], name string) { internal.SetName(s.signal, name) }

// DumpGraph renders the dependency subgraph reachable from c's sources as an
// ASCII tree, for diagnostic use (an OnError handler, a CLI debug flag).
func DumpGraph[T any](c *Computed[T]) string { return internal.DumpGraph(c.computed) }
