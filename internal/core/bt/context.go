package bt

import (
	"context"
	"time"
)

// TickContext is passed into every node during a tick. It carries the calling
// context, the tree's blackboard and clock, plus the per-tick bookkeeping the
// completion step writes into. Each BehaviorTree builds a fresh TickContext at
// the start of its Tick, so independent trees never share tick state.
type TickContext struct {
	Ctx   context.Context
	BB    Blackboard
	Clock func() time.Time

	tickID  uint64
	tracker *tracker
}

// TickID returns the owning tree's tick counter value for this tick.
func (tc *TickContext) TickID() uint64 { return tc.tickID }

// Finish is the shared completion step every Tick implementation returns
// through. It stores the result and timing on the node, registers the node as
// executed this tick (assigning its execution index) and stamps the tick id.
// Results outside the status domain are recorded as FAILURE.
func (tc *TickContext) Finish(n Node, began time.Time, st Status) Status {
	if !st.Valid() {
		st = StatusFailure
	}
	m := n.Meta()
	m.lastState = st
	m.lastDuration = tc.Clock().Sub(began)
	m.accumulated += m.lastDuration
	if tc.tracker != nil {
		tc.tracker.record(n)
	}
	m.lastTickID = tc.tickID
	return st
}

// tracker is the per-tree registry of nodes that completed execution during
// the current tick, in completion order. Only one tick is ever in flight per
// tree, so it needs no locking.
type tracker struct {
	executed []Node
}

func newTracker() *tracker { return &tracker{} }

// begin clears the active-path marks left by the previous tick and empties
// the executed list.
func (t *tracker) begin() {
	for _, n := range t.executed {
		m := n.Meta()
		m.activePath = false
		m.execIndex = 0
	}
	t.executed = t.executed[:0]
}

func (t *tracker) record(n Node) {
	t.executed = append(t.executed, n)
	m := n.Meta()
	m.activePath = true
	m.execIndex = len(t.executed)
}

func (t *tracker) nodes() []Node {
	out := make([]Node, len(t.executed))
	copy(out, t.executed)
	return out
}
