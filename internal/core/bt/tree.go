package bt

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// BehaviorTree owns a root node and orchestrates its ticks: it drives the
// per-tick phases (begin, execute, collect, record, build) and publishes the
// resulting snapshot. Ticks are single-threaded; only the published snapshot
// and the tick counter may be read concurrently.
type BehaviorTree struct {
	id    string
	name  string
	root  Node
	bb    Blackboard
	clock func() time.Time

	ticks atomic.Uint64
	trk   *tracker
	snap  atomic.Pointer[Snapshot]
}

// Option configures a BehaviorTree at construction.
type Option func(*BehaviorTree)

// WithID overrides the generated tree id.
func WithID(id string) Option {
	return func(t *BehaviorTree) { t.id = id }
}

// WithBlackboard shares an existing blackboard instead of creating one.
func WithBlackboard(bb Blackboard) Option {
	return func(t *BehaviorTree) { t.bb = bb }
}

// WithClock substitutes the time source used for durations and cooldowns.
func WithClock(clock func() time.Time) Option {
	return func(t *BehaviorTree) { t.clock = clock }
}

// New builds a tree around root and runs the path-identity pass over it.
// A nil root is allowed; ticking such a tree is a defined terminal condition
// that fails without executing anything.
func New(name string, root Node, opts ...Option) *BehaviorTree {
	t := &BehaviorTree{
		id:    uuid.NewString(),
		name:  name,
		root:  root,
		clock: time.Now,
		trk:   newTracker(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.bb == nil {
		t.bb = NewBlackboard()
	}
	assignPaths(root)
	return t
}

// Tick advances the tree by one frame and returns the root's status. It
// resets the previous tick's active-path marks, executes the root, and
// atomically publishes a fresh snapshot of everything that ran. With no root
// it clears the snapshot and returns FAILURE.
func (t *BehaviorTree) Tick(ctx context.Context) Status {
	tick := t.ticks.Add(1)
	t.trk.begin()
	if t.root == nil {
		t.snap.Store(nil)
		return StatusFailure
	}
	tc := &TickContext{
		Ctx:     ctx,
		BB:      t.bb,
		Clock:   t.clock,
		tickID:  tick,
		tracker: t.trk,
	}
	st := t.root.Tick(tc)
	t.snap.Store(buildSnapshot(tick, t.trk.executed))
	return st
}

// ExecutedNodes returns the nodes that completed execution during the most
// recent tick, in execution order.
func (t *BehaviorTree) ExecutedNodes() []Node { return t.trk.nodes() }

// Snapshot returns the immutable record of the last completed tick, nil
// before the first tick or when the tree has no root.
func (t *BehaviorTree) Snapshot() *Snapshot { return t.snap.Load() }

// TickID returns the number of ticks performed so far.
func (t *BehaviorTree) TickID() uint64 { return t.ticks.Load() }

func (t *BehaviorTree) ID() string { return t.id }

func (t *BehaviorTree) Name() string { return t.name }

func (t *BehaviorTree) Root() Node { return t.root }

func (t *BehaviorTree) Blackboard() Blackboard { return t.bb }

// Reset rewinds the tree to its pre-first-tick state: tick counter zero,
// snapshot absent, all node bookkeeping and resumption state cleared. It must
// not race a Tick.
func (t *BehaviorTree) Reset() {
	t.trk.begin()
	t.ticks.Store(0)
	t.snap.Store(nil)
	resetNodes(t.root)
}

func resetNodes(n Node) {
	if n == nil {
		return
	}
	n.Meta().resetTransient()
	if r, ok := n.(interface{ resetState() }); ok {
		r.resetState()
	}
	for _, ch := range n.Children() {
		resetNodes(ch)
	}
}
