package bt

import (
	"time"
)

// NodeMeta is the identity and bookkeeping block embedded in every node.
// Identity fields are set at construction and by the tree's path pass;
// transient fields are written only by the completion step and read through
// accessors, so snapshots and renderers cannot corrupt live state.
type NodeMeta struct {
	name         string
	kind         Kind
	pathID       uint64
	parentPathID uint64

	lastState    Status
	lastDuration time.Duration
	accumulated  time.Duration
	execIndex    int
	activePath   bool
	lastTickID   uint64
}

// NewMeta creates the meta block for a custom node implementation.
func NewMeta(name string, kind Kind) *NodeMeta {
	return &NodeMeta{name: name, kind: kind}
}

// Name returns the display label.
func (m *NodeMeta) Name() string { return m.name }

// Kind returns the variant tag.
func (m *NodeMeta) Kind() Kind { return m.kind }

// PathID returns the stable 64-bit hash of the node's name-path from the
// root. Zero until the node is attached to a tree.
func (m *NodeMeta) PathID() uint64 { return m.pathID }

// ParentPathID returns the PathID of the parent node, 0 for the root.
func (m *NodeMeta) ParentPathID() uint64 { return m.parentPathID }

// LastState returns the result of the most recent tick, StatusInvalid before
// the first one.
func (m *NodeMeta) LastState() Status { return m.lastState }

// LastDuration returns the wall-clock cost of the most recent tick call.
func (m *NodeMeta) LastDuration() time.Duration { return m.lastDuration }

// Accumulated returns the total tick cost across the node's lifetime.
func (m *NodeMeta) Accumulated() time.Duration { return m.accumulated }

// ExecIndex returns the node's 1-based rank in the current tick's execution
// order, 0 when it did not execute this tick.
func (m *NodeMeta) ExecIndex() int { return m.execIndex }

// ActivePath reports whether the node executed during the most recent tick.
func (m *NodeMeta) ActivePath() bool { return m.activePath }

// LastTickID returns the tick counter value of the node's last execution.
func (m *NodeMeta) LastTickID() uint64 { return m.lastTickID }

func (m *NodeMeta) resetTransient() {
	m.lastState = StatusInvalid
	m.lastDuration = 0
	m.accumulated = 0
	m.execIndex = 0
	m.activePath = false
	m.lastTickID = 0
}

// Condition evaluates a boolean predicate against the blackboard and maps it
// to SUCCESS or FAILURE. A condition never returns RUNNING.
type Condition struct {
	meta *NodeMeta
	eval func(*TickContext) bool
}

// NewCondition wraps a predicate as a leaf node. A nil predicate is a
// construction defect and panics.
func NewCondition(name string, eval func(*TickContext) bool) *Condition {
	if eval == nil {
		panic("bt: NewCondition requires a predicate")
	}
	return &Condition{meta: NewMeta(name, KindCondition), eval: eval}
}

func (c *Condition) Meta() *NodeMeta { return c.meta }

func (c *Condition) Children() []Node { return nil }

func (c *Condition) Tick(tc *TickContext) Status {
	began := tc.Clock()
	st := StatusFailure
	if c.eval(tc) {
		st = StatusSuccess
	}
	return tc.Finish(c, began, st)
}

// Action performs a unit of work and returns its status directly. RUNNING
// means the work is not finished and the action expects to be ticked again.
type Action struct {
	meta *NodeMeta
	work func(*TickContext) Status
}

// NewAction wraps a work function as a leaf node. A nil function is a
// construction defect and panics.
func NewAction(name string, work func(*TickContext) Status) *Action {
	if work == nil {
		panic("bt: NewAction requires a work func")
	}
	return &Action{meta: NewMeta(name, KindAction), work: work}
}

func (a *Action) Meta() *NodeMeta { return a.meta }

func (a *Action) Children() []Node { return nil }

func (a *Action) Tick(tc *TickContext) Status {
	began := tc.Clock()
	// Finish coerces out-of-domain results to FAILURE.
	return tc.Finish(a, began, a.work(tc))
}

// Stub leaves stand in for domain logic that is not implemented yet. Their
// outcome is configuration: the constructor default, overridable at runtime
// through the blackboard key "stub:<name>".

func stubKey(name string) string { return "stub:" + name }

// NewStubCondition returns a Condition with a fixed default result.
func NewStubCondition(name string, result bool) *Condition {
	return NewCondition(name, func(tc *TickContext) bool {
		if tc.BB != nil {
			if v, ok := tc.BB.Get(stubKey(name)); ok {
				if b, ok := v.(bool); ok {
					return b
				}
			}
		}
		return result
	})
}

// NewStubAction returns an Action with a fixed default status.
func NewStubAction(name string, st Status) *Action {
	return NewAction(name, func(tc *TickContext) Status {
		if tc.BB != nil {
			if v, ok := tc.BB.Get(stubKey(name)); ok {
				switch ov := v.(type) {
				case Status:
					return ov
				case int:
					return Status(ov)
				case string:
					if parsed, err := ParseStatus(ov); err == nil {
						return parsed
					}
				}
			}
		}
		return st
	})
}
