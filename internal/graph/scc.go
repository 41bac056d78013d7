package graph

import "sort"

// Component is a strongly connected component.
type Component struct {
	Nodes []string `json:"nodes"` // sorted
	Edges []Edge   `json:"edges"` // edges with both endpoints inside, sorted
}

// Size is the number of nodes in the component.
func (c Component) Size() int {
	return len(c.Nodes)
}

// tarjanState holds per-node state during Tarjan's DFS.
type tarjanState struct {
	index   int
	lowlink int
	onStack bool
}

// StronglyConnectedComponents finds all SCCs using Tarjan's algorithm in
// O(V+E) time. Nodes and neighbors are visited in id order and the result is
// sorted by each component's first node, so the output is deterministic.
func (g *DependencyGraph) StronglyConnectedComponents() []Component {
	state := make([]*tarjanState, len(g.nodes))
	var stack []int
	indexCounter := 0
	var groups [][]int

	var strongconnect func(u int)
	strongconnect = func(u int) {
		state[u] = &tarjanState{
			index:   indexCounter,
			lowlink: indexCounter,
			onStack: true,
		}
		indexCounter++
		stack = append(stack, u)

		for _, v := range g.outEdges[u] {
			if state[v] == nil {
				strongconnect(v)
				if state[v].lowlink < state[u].lowlink {
					state[u].lowlink = state[v].lowlink
				}
			} else if state[v].onStack {
				if state[v].index < state[u].lowlink {
					state[u].lowlink = state[v].index
				}
			}
		}

		// If u is a root node, pop the stack to form an SCC
		if state[u].lowlink == state[u].index {
			var members []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w].onStack = false
				members = append(members, w)
				if w == u {
					break
				}
			}
			groups = append(groups, members)
		}
	}

	for _, id := range g.Nodes() {
		if idx := g.nodeIdx[id]; state[idx] == nil {
			strongconnect(idx)
		}
	}

	components := make([]Component, 0, len(groups))
	for _, members := range groups {
		components = append(components, g.component(members))
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i].Nodes[0] < components[j].Nodes[0]
	})
	return components
}

// Cycles returns the components of size two or more.
func (g *DependencyGraph) Cycles() []Component {
	var cycles []Component
	for _, c := range g.StronglyConnectedComponents() {
		if c.Size() >= 2 {
			cycles = append(cycles, c)
		}
	}
	return cycles
}

func (g *DependencyGraph) component(members []int) Component {
	inside := make(map[int]bool, len(members))
	nodes := make([]string, len(members))
	for i, m := range members {
		inside[m] = true
		nodes[i] = g.nodes[m]
	}
	sort.Strings(nodes)

	var edges []Edge
	for _, from := range nodes {
		for _, ti := range g.outEdges[g.nodeIdx[from]] {
			if inside[ti] {
				edges = append(edges, Edge{From: from, To: g.nodes[ti]})
			}
		}
	}
	return Component{Nodes: nodes, Edges: edges}
}
