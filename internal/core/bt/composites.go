package bt

import (
	"strconv"
)

// Sequence is the AND composite: children run in fixed order and all must
// succeed. A RUNNING child parks the cursor so the next tick resumes at the
// same child instead of re-evaluating already-succeeded siblings; FAILURE
// abandons the sequence and rewinds the cursor.
type Sequence struct {
	meta     *NodeMeta
	children []Node
	cursor   int
}

func NewSequence(name string, children ...Node) *Sequence {
	return &Sequence{meta: NewMeta(name, KindSequence), children: children}
}

func (s *Sequence) Meta() *NodeMeta { return s.meta }

func (s *Sequence) Children() []Node { return s.children }

// Cursor returns the 0-based resume position persisted across ticks.
func (s *Sequence) Cursor() int { return s.cursor }

func (s *Sequence) Tick(tc *TickContext) Status {
	began := tc.Clock()
	for s.cursor < len(s.children) {
		switch s.children[s.cursor].Tick(tc) {
		case StatusRunning:
			return tc.Finish(s, began, StatusRunning)
		case StatusFailure:
			s.cursor = 0
			return tc.Finish(s, began, StatusFailure)
		default:
			s.cursor++
		}
	}
	s.cursor = 0
	return tc.Finish(s, began, StatusSuccess)
}

func (s *Sequence) snapshotExtra() map[string]string {
	if s.cursor == 0 {
		return nil
	}
	return map[string]string{"cursor": strconv.Itoa(s.cursor)}
}

func (s *Sequence) resetState() { s.cursor = 0 }

// Selector is the OR composite: children are tried in priority order from the
// start on every tick, so a higher-priority branch always gets first refusal.
// The scan stops at the first child that does not fail.
type Selector struct {
	meta     *NodeMeta
	children []Node
}

func NewSelector(name string, children ...Node) *Selector {
	return &Selector{meta: NewMeta(name, KindSelector), children: children}
}

func (s *Selector) Meta() *NodeMeta { return s.meta }

func (s *Selector) Children() []Node { return s.children }

func (s *Selector) Tick(tc *TickContext) Status {
	began := tc.Clock()
	for _, ch := range s.children {
		switch st := ch.Tick(tc); st {
		case StatusSuccess, StatusRunning:
			return tc.Finish(s, began, st)
		}
	}
	return tc.Finish(s, began, StatusFailure)
}

// Subtree is a named grouping node wrapping one child, typically the root of
// a branch built elsewhere. It passes the child's status through unchanged.
type Subtree struct {
	meta  *NodeMeta
	child Node
}

// NewSubtree wraps child under a named grouping node. A nil child is a
// construction defect and panics.
func NewSubtree(name string, child Node) *Subtree {
	if child == nil {
		panic("bt: NewSubtree requires a child")
	}
	return &Subtree{meta: NewMeta(name, KindSubtree), child: child}
}

func (s *Subtree) Meta() *NodeMeta { return s.meta }

func (s *Subtree) Children() []Node { return []Node{s.child} }

func (s *Subtree) Tick(tc *TickContext) Status {
	began := tc.Clock()
	return tc.Finish(s, began, s.child.Tick(tc))
}
