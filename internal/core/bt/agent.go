package bt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticktree/ticktree/internal/core/observability/log"
)

// TickReport summarizes one completed tick for observers.
type TickReport struct {
	TreeID   string
	TreeName string
	TickID   uint64
	State    Status
	Duration time.Duration
	Snapshot *Snapshot
}

// Agent drives a tree: it refreshes sensors, ticks the root at a fixed
// interval and hands each report to an optional callback.
type Agent struct {
	id       string
	interval time.Duration
	log      log.Log
	onTick   func(TickReport)

	mu      sync.RWMutex
	tree    *BehaviorTree
	sensors []Sensor
}

type AgentOption func(*Agent)

func WithSensors(sensors ...Sensor) AgentOption {
	return func(a *Agent) { a.sensors = append(a.sensors, sensors...) }
}

func WithInterval(d time.Duration) AgentOption {
	return func(a *Agent) {
		if d > 0 {
			a.interval = d
		}
	}
}

func WithLogger(l log.Log) AgentOption {
	return func(a *Agent) { a.log = l }
}

func WithOnTick(fn func(TickReport)) AgentOption {
	return func(a *Agent) { a.onTick = fn }
}

func NewAgent(tree *BehaviorTree, opts ...AgentOption) *Agent {
	a := &Agent{
		id:       uuid.NewString(),
		tree:     tree,
		interval: 100 * time.Millisecond,
		log:      log.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) ID() string { return a.id }

func (a *Agent) Tree() *BehaviorTree {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tree
}

// Swap replaces the driven tree, typically after a config reload. The old
// tree keeps its final snapshot; the new one starts from tick zero.
func (a *Agent) Swap(tree *BehaviorTree, sensors ...Sensor) {
	a.mu.Lock()
	a.tree = tree
	if sensors != nil {
		a.sensors = sensors
	}
	a.mu.Unlock()
}

// Step runs one sensor refresh plus one tick. Sensor failures are logged
// and skipped so a flaky input cannot stall the tree.
func (a *Agent) Step(ctx context.Context) TickReport {
	a.mu.RLock()
	tree := a.tree
	sensors := a.sensors
	a.mu.RUnlock()

	for _, s := range sensors {
		if err := s.Update(ctx, tree.Blackboard()); err != nil {
			a.log.Warn("sensor update failed",
				log.String("sensor", s.Name()), log.Err(err))
		}
	}

	began := time.Now()
	state := tree.Tick(ctx)
	rep := TickReport{
		TreeID:   tree.ID(),
		TreeName: tree.Name(),
		TickID:   tree.TickID(),
		State:    state,
		Duration: time.Since(began),
		Snapshot: tree.Snapshot(),
	}
	a.log.Debug("tick complete",
		log.String("tree", rep.TreeName),
		log.Uint64("tick", rep.TickID),
		log.String("state", rep.State.String()),
		log.Duration("took", rep.Duration))
	if a.onTick != nil {
		a.onTick(rep)
	}
	return rep
}

// Run ticks until the context is canceled and returns the context error.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		a.Step(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
