package internal

// Color is the three-state flag the lazy validation algorithm uses to decide
// whether a node's cached value can be trusted, must be re-derived from its
// sources, or must be recomputed outright.
//
// Cells only ever occupy Clean or Dirty; Check is reserved for derivations,
// which can be "suspected stale" without yet knowing whether they truly are.
type Color int

const (
	Clean Color = iota
	Check
	Dirty
)

func (c Color) String() string {
	switch c {
	case Clean:
		return "clean"
	case Check:
		return "check"
	case Dirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// EqualFunc decides whether a node's newly produced value should be treated
// as unchanged for the purposes of downstream propagation. It is invoked only
// to suppress downstream work; it never skips the owning node's own
// recomputation once that node has been deemed Dirty.
type EqualFunc func(a, b any) bool

// defaultEqual mirrors the spec's "reference/bitwise equality" default. Go's
// `==` over an `any` panics when the dynamic type isn't comparable (slices,
// maps, funcs); a panic there is treated as "definitely not equal" so a bad
// default can never silently swallow a real update.
func defaultEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// Signal is the universal dependency-graph source: a plain reactive cell, or
// (via embedding, see Computed) the value-half of a derivation. Every edge in
// the graph points at a *Signal, which keeps push-down/pull-up generic over
// "is this source a cell or a derivation" — Computed answers that by setting
// the computed back-reference at construction time.
type Signal struct {
	value   any
	eq      EqualFunc
	version uint64 // bumped by the owning Runtime every time value actually changes
	color   Color  // Clean or Dirty; a bare Signal is never Check

	subsHead *edge // observers of this node, threaded through prevSub/nextSub

	computed *Computed // non-nil iff this Signal is the value-half of a Computed
}

// edge is a bidirectional dependency link, threaded through two independent
// circular doubly-linked lists so either endpoint can detach it in O(1)
// without scanning: depsHead/prevDep/nextDep on the subscriber, subsHead/
// prevSub/nextSub on the source.
type edge struct {
	source *Signal
	sub    *Computed

	prevDep, nextDep *edge
	prevSub, nextSub *edge

	// versionAtLink is the source's version as of the moment this edge was
	// (re)established, i.e. the value the subscriber actually observed. A
	// pull-up finds this source changed iff source.version != versionAtLink.
	versionAtLink uint64
}

// NewSignal creates a detached cell. Cells have no owner: per the data model
// they live until every reference to them is dropped, which in a garbage
// collected host language means there is nothing further to register.
func NewSignal(initial any, eq EqualFunc) *Signal {
	if eq == nil {
		eq = defaultEqual
	}
	return &Signal{value: initial, eq: eq}
}

// Read returns the current value, recording a dependency edge if a listener
// is currently tracking.
func (s *Signal) Read() any {
	rt := GetRuntime()
	rt.track(s)
	return s.value
}

// Peek returns the current value without ever recording a dependency edge,
// regardless of whether a listener is active.
func (s *Signal) Peek() any {
	return s.value
}

// Write stores a new value, and — if it differs from the current value per
// eq — marks the cell Dirty and pushes suspicion down to every subscriber.
func (s *Signal) Write(v any) {
	if s.eq(s.value, v) {
		return
	}

	rt := GetRuntime()
	s.value = v
	s.version = rt.bumpVersion()
	s.color = Dirty
	pushDown(rt, s)
	rt.schedule()
}

// addSubLink appends an edge to this source's circular subscriber list.
func (s *Signal) addSubLink(e *edge) {
	if s.subsHead == nil {
		s.subsHead = e
		e.prevSub = e
		e.nextSub = nil
	} else {
		tail := s.subsHead.prevSub
		tail.nextSub = e
		e.prevSub = tail
		e.nextSub = nil
		s.subsHead.prevSub = e
	}
}

// removeSubLink detaches an edge from this source's subscriber list in O(1).
func (s *Signal) removeSubLink(e *edge) {
	if e.prevSub == e {
		s.subsHead = nil
		e.prevSub = nil
		e.nextSub = nil
		return
	}

	if e == s.subsHead {
		s.subsHead = e.nextSub
	} else {
		e.prevSub.nextSub = e.nextSub
	}

	if e.nextSub != nil {
		e.nextSub.prevSub = e.prevSub
	} else {
		s.subsHead.prevSub = e.prevSub
	}

	e.prevSub = nil
	e.nextSub = nil
}

// link establishes a dependency edge from sub to source, unless the most
// recently established edge on sub already points at source — the same tail-
// only dedup the teacher's implementation used, which cheaply avoids
// duplicate edges for the common case of reading the same source twice in a
// row, at the cost of allowing (harmless) duplicate edges for a source read
// twice non-consecutively in the same run.
func link(sub *Computed, source *Signal) {
	if sub.depsHead != nil {
		tail := sub.depsHead.prevDep
		if tail.source == source {
			return
		}
	}

	e := &edge{source: source, sub: sub, versionAtLink: source.version}
	sub.addDepLink(e)
	source.addSubLink(e)
}
