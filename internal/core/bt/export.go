package bt

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

var kindIcons = map[Kind]string{
	KindSelector:  "[S]",
	KindSequence:  "[>]",
	KindCondition: "[?]",
	KindAction:    "[A]",
	KindSubtree:   "[T]",
	KindInverter:  "[!]",
	KindSucceeder: "[^]",
	KindRepeat:    "[R]",
	KindCooldown:  "[~]",
}

func kindIcon(k Kind) string {
	if icon, ok := kindIcons[k]; ok {
		return icon
	}
	return "[N]"
}

func stateIcon(m *NodeMeta) string {
	if m.LastTickID() == 0 {
		return "○"
	}
	switch m.LastState() {
	case StatusSuccess:
		return "✔"
	case StatusFailure:
		return "✖"
	case StatusRunning:
		return "●"
	}
	return "○"
}

// RenderTree renders the tree with box-drawing connectors, per-node state
// icons and last-tick durations. Meant for terminals and the web monitor.
func RenderTree(root Node) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	m := root.Meta()
	fmt.Fprintf(&sb, "%s %s [%s] %s (%.2fms)\n",
		kindIcon(m.Kind()), m.Name(), m.Kind(), stateIcon(m),
		float64(m.LastDuration())/float64(time.Millisecond))
	renderChildren(&sb, root, "")
	return sb.String()
}

func renderChildren(sb *strings.Builder, n Node, prefix string) {
	children := n.Children()
	for i, child := range children {
		last := i == len(children)-1
		connector, next := "├── ", "│   "
		if last {
			connector, next = "└── ", "    "
		}
		m := child.Meta()
		fmt.Fprintf(sb, "%s%s%s %s [%s] %s (%.2fms)\n",
			prefix, connector, kindIcon(m.Kind()), m.Name(), m.Kind(), stateIcon(m),
			float64(m.LastDuration())/float64(time.Millisecond))
		renderChildren(sb, child, prefix+next)
	}
}

// RenderTreeASCII renders structure only, safe for logs and plain-text docs.
func RenderTreeASCII(root Node) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	m := root.Meta()
	fmt.Fprintf(&sb, "%s %s [%s]\n", kindIcon(m.Kind()), m.Name(), m.Kind())
	renderChildrenASCII(&sb, root, "")
	return sb.String()
}

func renderChildrenASCII(sb *strings.Builder, n Node, prefix string) {
	children := n.Children()
	for i, child := range children {
		last := i == len(children)-1
		connector, next := "+-- ", "|   "
		if last {
			connector, next = "\\-- ", "    "
		}
		m := child.Meta()
		fmt.Fprintf(sb, "%s%s%s %s [%s]\n", prefix, connector, kindIcon(m.Kind()), m.Name(), m.Kind())
		renderChildrenASCII(sb, child, prefix+next)
	}
}

// RenderSnapshot lists the executed nodes of one tick in execution order.
func RenderSnapshot(s *Snapshot) string {
	if s == nil || len(s.Nodes) == 0 {
		return "(no nodes executed)\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "tick %d\n", s.TickID)
	for _, rec := range s.Nodes {
		fmt.Fprintf(&sb, "%3d %-7s %8.2fms  %s %s [%s]\n",
			rec.ExecIndex, rec.State, rec.DurationMS, kindIcon(rec.Kind), rec.Name, rec.Kind)
	}
	return sb.String()
}

// RenderStats aggregates accumulated execution time per node, heaviest first.
// Nodes on the last tick's active path are marked with a star.
func RenderStats(root Node) string {
	if root == nil {
		return ""
	}
	var metas []*NodeMeta
	var walk func(Node)
	walk = func(n Node) {
		metas = append(metas, n.Meta())
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].Accumulated() > metas[j].Accumulated()
	})
	var sb strings.Builder
	for _, m := range metas {
		mark := " "
		if m.ActivePath() {
			mark = "*"
		}
		fmt.Fprintf(&sb, "%s %-32s %-10s %10.2fms\n",
			mark, m.Name(), m.Kind(), float64(m.Accumulated())/float64(time.Millisecond))
	}
	return sb.String()
}
