package internal

import (
	"fmt"
	"sort"

	"github.com/m1gwings/treedrawer/tree"
)

// names holds optional, purely diagnostic labels a host can attach to nodes
// (e.g. via a debug-only setter on the public wrapper types) so DumpGraph
// output is readable instead of a wall of pointer addresses.
var names map[*Signal]string

// SetName records a diagnostic label for s. Intended for debugging only; it
// has no effect on evaluation.
func SetName(s *Signal, name string) {
	if names == nil {
		names = make(map[*Signal]string)
	}
	names[s] = name
}

func nodeLabel(s *Signal) string {
	label := names[s]
	if label == "" {
		label = fmt.Sprintf("signal_%p", s)
	}
	if s.computed != nil {
		label = fmt.Sprintf("%s [%s]", label, s.computed.color)
	} else {
		label = fmt.Sprintf("%s [%s]", label, s.color)
	}
	return label
}

// DumpGraph renders the dependency subgraph reachable from root's incoming
// edges (its sources, recursively) as an ASCII tree, in the style of the
// teacher pack's own dependency-graph debug extension. Intended for use from
// an OnError handler or a CLI diagnostic flag, not from the hot path.
func DumpGraph(root *Computed) string {
	t := buildDebugTree(root.Signal, make(map[*Signal]bool))
	return t.String()
}

func buildDebugTree(s *Signal, visited map[*Signal]bool) *tree.Tree {
	label := nodeLabel(s)
	if visited[s] {
		return tree.NewTree(tree.NodeString(label + " (cycle)"))
	}
	visited[s] = true

	t := tree.NewTree(tree.NodeString(label))

	if s.computed == nil {
		return t
	}

	type sourceEntry struct {
		source *Signal
		label  string
	}
	var sources []sourceEntry
	for e := s.computed.depsHead; e != nil; e = e.nextDep {
		sources = append(sources, sourceEntry{source: e.source, label: nodeLabel(e.source)})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].label < sources[j].label })

	for _, entry := range sources {
		childTree := buildDebugTree(entry.source, visited)
		addTreeAsChild(t, childTree)
	}

	return t
}

func addTreeAsChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addTreeAsChild(newChild, grandchild)
	}
}
