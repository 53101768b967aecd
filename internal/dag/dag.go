// Package dag provides the dependency graph over migration assets.
//
// Nodes live in an arena and are addressed by their integer index, so the
// graph holds no pointers between nodes. Every traversal that can reach the
// output orders nodes by name, which keeps results independent of insertion
// order.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed graph. An edge parent -> child means the child depends
// on the parent. Cycles are allowed; Cycles reports them.
type Graph struct {
	names    []string
	index    map[string]int
	children [][]int // parent -> dependents
	parents  [][]int // child -> dependencies
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode adds a node and returns its index. Adding an existing name returns
// the existing index.
func (g *Graph) AddNode(name string) int {
	if id, ok := g.index[name]; ok {
		return id
	}
	id := len(g.names)
	g.names = append(g.names, name)
	g.index[name] = id
	g.children = append(g.children, nil)
	g.parents = append(g.parents, nil)
	return id
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
// Duplicate edges are ignored.
func (g *Graph) AddEdge(parent, child int) error {
	if !g.valid(parent) {
		return fmt.Errorf("parent node %d does not exist", parent)
	}
	if !g.valid(child) {
		return fmt.Errorf("child node %d does not exist", child)
	}
	if contains(g.children[parent], child) {
		return nil
	}
	g.children[parent] = append(g.children[parent], child)
	g.parents[child] = append(g.parents[child], parent)
	return nil
}

func (g *Graph) valid(id int) bool {
	return id >= 0 && id < len(g.names)
}

// Lookup returns the index of a named node.
func (g *Graph) Lookup(name string) (int, bool) {
	id, ok := g.index[name]
	return id, ok
}

// Name returns the name of a node.
func (g *Graph) Name(id int) string {
	return g.names[id]
}

// Parents returns the dependencies of a node, ordered by name.
func (g *Graph) Parents(id int) []int {
	return g.sortedByName(g.parents[id])
}

// Children returns the dependents of a node, ordered by name.
func (g *Graph) Children(id int) []int {
	return g.sortedByName(g.children[id])
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.names)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, c := range g.children {
		count += len(c)
	}
	return count
}

// Edge is a parent -> child pair.
type Edge struct {
	From int
	To   int
}

// Edges returns every edge ordered by (parent name, child name).
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, from := range g.sortedByName(g.allNodes()) {
		for _, to := range g.Children(from) {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// SCCs returns the strongly connected components using Tarjan's algorithm.
// Nodes within a component and the components themselves are ordered by name.
func (g *Graph) SCCs() [][]int {
	n := len(g.names)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var (
		stack   []int
		counter int
		out     [][]int
	)

	var strongConnect func(v int)
	strongConnect = func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.children[v] {
			switch {
			case index[w] < 0:
				strongConnect(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			out = append(out, g.sortedByName(comp))
		}
	}

	for _, v := range g.sortedByName(g.allNodes()) {
		if index[v] < 0 {
			strongConnect(v)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return g.names[out[i][0]] < g.names[out[j][0]]
	})
	return out
}

// Cycles returns the components that form a cycle: every component with more
// than one node, and single nodes with a self loop.
func (g *Graph) Cycles() [][]int {
	var cycles [][]int
	for _, comp := range g.SCCs() {
		if len(comp) > 1 || contains(g.children[comp[0]], comp[0]) {
			cycles = append(cycles, comp)
		}
	}
	return cycles
}

// TopologicalOrder returns every node with dependencies before dependents,
// using Kahn's algorithm. Among ready nodes the smallest name goes first.
// When a cycle leaves no node ready, the smallest remaining name is emitted
// next, so the order is total and deterministic even for cyclic graphs.
func (g *Graph) TopologicalOrder() []int {
	n := len(g.names)
	inDegree := make([]int, n)
	for v := 0; v < n; v++ {
		for _, p := range g.parents[v] {
			if p != v {
				inDegree[v]++
			}
		}
	}

	done := make([]bool, n)
	order := make([]int, 0, n)
	ready := newNameHeap(g.names)
	for v := 0; v < n; v++ {
		if inDegree[v] == 0 {
			ready.push(v)
		}
	}

	emit := func(v int) {
		done[v] = true
		order = append(order, v)
		for _, c := range g.children[v] {
			if c == v || done[c] {
				continue
			}
			inDegree[c]--
			if inDegree[c] == 0 {
				ready.push(c)
			}
		}
	}

	for len(order) < n {
		if ready.len() > 0 {
			if v := ready.pop(); !done[v] {
				emit(v)
			}
			continue
		}
		// Blocked by a cycle.
		next := -1
		for v := 0; v < n; v++ {
			if !done[v] && (next < 0 || g.names[v] < g.names[next]) {
				next = v
			}
		}
		emit(next)
	}
	return order
}

// Upstream returns every transitive dependency of a node, ordered by name.
func (g *Graph) Upstream(id int) []int {
	return g.reach(id, g.parents)
}

// Downstream returns every transitive dependent of a node, ordered by name.
func (g *Graph) Downstream(id int) []int {
	return g.reach(id, g.children)
}

func (g *Graph) reach(id int, adj [][]int) []int {
	seen := make(map[int]bool)
	var walk func(v int)
	walk = func(v int) {
		for _, w := range adj[v] {
			if !seen[w] {
				seen[w] = true
				walk(w)
			}
		}
	}
	walk(id)
	delete(seen, id)

	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	return g.sortedByName(out)
}

// Subgraph returns a new graph containing only the given nodes and the edges
// between them, and the mapping from new indices to indices of g.
func (g *Graph) Subgraph(ids []int) (*Graph, []int) {
	sub := NewGraph()
	keep := make(map[int]int, len(ids))
	origin := make([]int, 0, len(ids))
	for _, id := range g.sortedByName(ids) {
		keep[id] = sub.AddNode(g.names[id])
		origin = append(origin, id)
	}
	for _, id := range origin {
		for _, c := range g.children[id] {
			if sc, ok := keep[c]; ok {
				_ = sub.AddEdge(keep[id], sc)
			}
		}
	}
	return sub, origin
}

func (g *Graph) allNodes() []int {
	out := make([]int, len(g.names))
	for i := range out {
		out[i] = i
	}
	return out
}

func (g *Graph) sortedByName(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool {
		return g.names[out[i]] < g.names[out[j]]
	})
	return out
}

// contains checks if a slice contains an index.
func contains(slice []int, v int) bool {
	for _, s := range slice {
		if s == v {
			return true
		}
	}
	return false
}
