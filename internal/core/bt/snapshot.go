package bt

import (
	"sort"
	"time"
)

// NodeSnapshot is an immutable record of one node's execution during one
// tick. It holds no reference to the live node, so it stays valid after the
// tree ticks again.
type NodeSnapshot struct {
	TickID       uint64            `json:"tick_id"`
	ExecIndex    int               `json:"exec_index"`
	PathID       uint64            `json:"path_id"`
	ParentPathID uint64            `json:"parent_path_id"`
	Kind         Kind              `json:"node_type"`
	Name         string            `json:"name"`
	State        string            `json:"state"`
	DurationMS   float64           `json:"duration_ms"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Snapshot is the immutable record of one completed tick: every executed node
// in execution order, plus a path-id index for stable lookups across ticks.
// A Snapshot is built once after its tick and never mutated; readers on other
// goroutines need no synchronization.
type Snapshot struct {
	TickID uint64         `json:"tick_id"`
	Nodes  []NodeSnapshot `json:"nodes"`

	byPath map[uint64]int
}

// ByPath returns the record for the node with the given path identity.
func (s *Snapshot) ByPath(id uint64) (NodeSnapshot, bool) {
	i, ok := s.byPath[id]
	if !ok {
		return NodeSnapshot{}, false
	}
	return s.Nodes[i], true
}

// buildSnapshot captures the executed nodes' transient fields as of tick
// completion. The records arrive in execution order already; the sort is a
// stability guarantee, not a reordering.
func buildSnapshot(tickID uint64, executed []Node) *Snapshot {
	snap := &Snapshot{
		TickID: tickID,
		Nodes:  make([]NodeSnapshot, 0, len(executed)),
		byPath: make(map[uint64]int, len(executed)),
	}
	for _, n := range executed {
		m := n.Meta()
		rec := NodeSnapshot{
			TickID:       tickID,
			ExecIndex:    m.execIndex,
			PathID:       m.pathID,
			ParentPathID: m.parentPathID,
			Kind:         m.kind,
			Name:         m.name,
			State:        m.lastState.String(),
			DurationMS:   float64(m.lastDuration) / float64(time.Millisecond),
		}
		if ex, ok := n.(interface{ snapshotExtra() map[string]string }); ok {
			rec.Extra = ex.snapshotExtra()
		}
		snap.Nodes = append(snap.Nodes, rec)
	}
	sort.SliceStable(snap.Nodes, func(i, j int) bool {
		return snap.Nodes[i].ExecIndex < snap.Nodes[j].ExecIndex
	})
	for i := range snap.Nodes {
		snap.byPath[snap.Nodes[i].PathID] = i
	}
	return snap
}
