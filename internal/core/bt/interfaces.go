package bt

import (
	"context"
	"fmt"
	"strings"
)

// Status represents the execution result of a behavior node tick.
// The zero value is reserved for "never ticked"; a tick always returns one of
// Success, Failure or Running.
type Status int

const (
	StatusInvalid Status = iota
	StatusSuccess
	StatusFailure
	StatusRunning
)

// Valid reports whether s is a legal tick result.
func (s Status) Valid() bool {
	return s >= StatusSuccess && s <= StatusRunning
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	case StatusRunning:
		return "RUNNING"
	default:
		return "INVALID"
	}
}

// ParseStatus maps a case-insensitive status name to its value.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return StatusSuccess, nil
	case "failure":
		return StatusFailure, nil
	case "running":
		return StatusRunning, nil
	default:
		return StatusInvalid, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Kind is the variant tag of a node, as it appears in snapshots and configs.
type Kind string

const (
	KindSequence  Kind = "Sequence"
	KindSelector  Kind = "Selector"
	KindCondition Kind = "Condition"
	KindAction    Kind = "Action"
	KindSubtree   Kind = "Subtree"
	KindInverter  Kind = "Inverter"
	KindSucceeder Kind = "Succeeder"
	KindRepeat    Kind = "Repeat"
	KindCooldown  Kind = "Cooldown"
)

// Node is the contract shared by every tree element. A node executes one step
// per Tick call and must report its completion through TickContext.Finish
// before returning, so that timing, active-path and execution-order
// bookkeeping stay consistent for every implementation.
type Node interface {
	// Tick executes one step of the node and returns a Status.
	Tick(tc *TickContext) Status
	// Meta returns the node's identity and bookkeeping block.
	Meta() *NodeMeta
	// Children returns the owned child nodes in evaluation order, nil for leaves.
	Children() []Node
}

// Blackboard is centralized storage for agent state and data shared between
// leaves and sensors. Implementations must be safe for concurrent use.
type Blackboard interface {
	// Get retrieves a value by key. Returns (nil, false) if absent.
	Get(key string) (any, bool)
	// Set assigns a value by key.
	Set(key string, value any)
	// Delete removes a value by key.
	Delete(key string)
	// Keys returns a sorted snapshot of existing keys.
	Keys() []string
	// Namespace returns a namespaced view of the blackboard using "ns:key" semantics.
	Namespace(ns string) Blackboard
	// Dump returns a copy of the visible key/value pairs, e.g. as an
	// expression environment or a debug payload.
	Dump() map[string]any
}

// Sensor pulls data from the external world and writes it to the blackboard
// before each tick.
type Sensor interface {
	Name() string
	Update(ctx context.Context, bb Blackboard) error
}

// SensorFunc adapts a function to the Sensor interface.
type SensorFunc struct {
	SensorName string
	Fn         func(ctx context.Context, bb Blackboard) error
}

func (s SensorFunc) Name() string { return s.SensorName }

func (s SensorFunc) Update(ctx context.Context, bb Blackboard) error { return s.Fn(ctx, bb) }
