package bt

import (
	"github.com/cespare/xxhash/v2"
)

// assignPaths walks the tree once at build time and stamps every node with
// its stable path identity: the xxHash64 of the slash-joined name path from
// the root ("/Root/Branch/Leaf"). The hash survives all per-tick state
// changes and identifies the same logical tree position across ticks.
// Collisions in the 64-bit space are accepted, not detected.
func assignPaths(root Node) {
	if root == nil {
		return
	}
	var walk func(n Node, prefix string, parent uint64)
	walk = func(n Node, prefix string, parent uint64) {
		m := n.Meta()
		full := prefix + "/" + m.name
		m.pathID = xxhash.Sum64String(full)
		m.parentPathID = parent
		for _, ch := range n.Children() {
			walk(ch, full, m.pathID)
		}
	}
	walk(root, "", 0)
}

// PathID returns the stable identity for an explicit name path, the same
// value assignPaths would stamp on a node at that position. Useful for
// looking nodes up in snapshots without holding node references.
func PathID(names ...string) uint64 {
	full := ""
	for _, n := range names {
		full += "/" + n
	}
	return xxhash.Sum64String(full)
}
