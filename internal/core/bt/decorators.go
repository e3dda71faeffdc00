package bt

import (
	"strconv"
	"time"
)

// Inverter swaps SUCCESS and FAILURE; RUNNING passes through.
type Inverter struct {
	meta  *NodeMeta
	child Node
}

func NewInverter(name string, child Node) *Inverter {
	if child == nil {
		panic("bt: NewInverter requires a child")
	}
	return &Inverter{meta: NewMeta(name, KindInverter), child: child}
}

func (i *Inverter) Meta() *NodeMeta { return i.meta }

func (i *Inverter) Children() []Node { return []Node{i.child} }

func (i *Inverter) Tick(tc *TickContext) Status {
	began := tc.Clock()
	st := i.child.Tick(tc)
	switch st {
	case StatusSuccess:
		st = StatusFailure
	case StatusFailure:
		st = StatusSuccess
	}
	return tc.Finish(i, began, st)
}

// Succeeder reports SUCCESS whatever the child finished with; RUNNING passes
// through until the child completes.
type Succeeder struct {
	meta  *NodeMeta
	child Node
}

func NewSucceeder(name string, child Node) *Succeeder {
	if child == nil {
		panic("bt: NewSucceeder requires a child")
	}
	return &Succeeder{meta: NewMeta(name, KindSucceeder), child: child}
}

func (s *Succeeder) Meta() *NodeMeta { return s.meta }

func (s *Succeeder) Children() []Node { return []Node{s.child} }

func (s *Succeeder) Tick(tc *TickContext) Status {
	began := tc.Clock()
	if st := s.child.Tick(tc); st == StatusRunning {
		return tc.Finish(s, began, StatusRunning)
	}
	return tc.Finish(s, began, StatusSuccess)
}

// Repeat runs its child to SUCCESS the configured number of times, yielding
// RUNNING between completions so one tree tick never loops the child. A child
// FAILURE fails the repeat. The completion counter persists across ticks like
// a Sequence cursor and rewinds when the repeat finishes either way.
type Repeat struct {
	meta  *NodeMeta
	child Node
	times int
	done  int
}

func NewRepeat(name string, times int, child Node) *Repeat {
	if child == nil {
		panic("bt: NewRepeat requires a child")
	}
	if times < 1 {
		times = 1
	}
	return &Repeat{meta: NewMeta(name, KindRepeat), child: child, times: times}
}

func (r *Repeat) Meta() *NodeMeta { return r.meta }

func (r *Repeat) Children() []Node { return []Node{r.child} }

func (r *Repeat) Tick(tc *TickContext) Status {
	began := tc.Clock()
	switch st := r.child.Tick(tc); st {
	case StatusRunning:
		return tc.Finish(r, began, StatusRunning)
	case StatusFailure:
		r.done = 0
		return tc.Finish(r, began, StatusFailure)
	}
	r.done++
	if r.done >= r.times {
		r.done = 0
		return tc.Finish(r, began, StatusSuccess)
	}
	return tc.Finish(r, began, StatusRunning)
}

func (r *Repeat) snapshotExtra() map[string]string {
	if r.done == 0 {
		return nil
	}
	return map[string]string{"count": strconv.Itoa(r.done)}
}

func (r *Repeat) resetState() { r.done = 0 }

// Cooldown gates its child: after the child finishes, further ticks FAIL
// until the wait elapses on the tick clock. A RUNNING child does not arm the
// cooldown.
type Cooldown struct {
	meta    *NodeMeta
	child   Node
	wait    time.Duration
	readyAt time.Time
}

func NewCooldown(name string, wait time.Duration, child Node) *Cooldown {
	if child == nil {
		panic("bt: NewCooldown requires a child")
	}
	return &Cooldown{meta: NewMeta(name, KindCooldown), child: child, wait: wait}
}

func (c *Cooldown) Meta() *NodeMeta { return c.meta }

func (c *Cooldown) Children() []Node { return []Node{c.child} }

func (c *Cooldown) Tick(tc *TickContext) Status {
	began := tc.Clock()
	if !c.readyAt.IsZero() && began.Before(c.readyAt) {
		return tc.Finish(c, began, StatusFailure)
	}
	st := c.child.Tick(tc)
	if st != StatusRunning {
		c.readyAt = began.Add(c.wait)
	}
	return tc.Finish(c, began, st)
}

func (c *Cooldown) resetState() { c.readyAt = time.Time{} }
