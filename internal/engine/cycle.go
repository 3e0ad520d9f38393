package engine

import "sort"

// Cycles returns the feedback loops of the graph: every group of nodes that
// can reach each other through connections, plus nodes wired to themselves.
//
// Loops are legal. A loop that keeps producing packets is stopped by the
// max steps quota, so tools use this to warn before running a graph.
// Members of a loop are listed in load order, and loops are ordered by
// their first member.
func (n *Network) Cycles() [][]string {
	index := make(map[string]int, len(n.nodes))
	for i, node := range n.nodes {
		index[node.id] = i
	}

	edges := make(map[string][]string, len(n.nodes))
	self := make(map[string]bool)
	for _, c := range n.connections {
		edges[c.Src.Node] = append(edges[c.Src.Node], c.Dst.Node)
		if c.Src.Node == c.Dst.Node {
			self[c.Src.Node] = true
		}
	}

	t := &tarjan{
		edges:   edges,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, node := range n.nodes {
		if _, seen := t.index[node.id]; !seen {
			t.visit(node.id)
		}
	}

	var loops [][]string
	for _, comp := range t.components {
		if len(comp) == 1 && !self[comp[0]] {
			continue
		}
		sort.Slice(comp, func(i, j int) bool { return index[comp[i]] < index[comp[j]] })
		loops = append(loops, comp)
	}
	sort.Slice(loops, func(i, j int) bool { return index[loops[i][0]] < index[loops[j][0]] })
	return loops
}

// tarjan finds strongly connected components.
type tarjan struct {
	edges      map[string][]string
	next       int
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	components [][]string
}

func (t *tarjan) visit(v string) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.edges[v] {
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var comp []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, comp)
}
