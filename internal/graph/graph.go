// Package graph provides the module dependency graph and the algorithms run
// over it: strongly connected components and centrality.
package graph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Edge is a directed dependency: From depends on To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DependencyGraph is a sparse directed graph keyed by module id.
//
// Edges may only reference nodes that were added first. Duplicate edges are
// collapsed and self-loops are ignored.
type DependencyGraph struct {
	nodes   []string
	nodeIdx map[string]int

	// outEdges[i] and inEdges[i] hold neighbor indices, kept sorted by id.
	outEdges [][]int
	inEdges  [][]int
	numEdges int
}

// New creates a graph containing the given nodes.
func New(nodes ...string) *DependencyGraph {
	g := &DependencyGraph{
		nodes:    make([]string, 0, len(nodes)),
		nodeIdx:  make(map[string]int, len(nodes)),
		outEdges: make([][]int, 0, len(nodes)),
		inEdges:  make([][]int, 0, len(nodes)),
	}
	for _, n := range nodes {
		g.AddNode(n)
	}
	return g
}

// Build creates a graph from nodes and edges. Edges naming unknown nodes are
// returned as rejected instead of failing the whole build.
func Build(nodes []string, edges []Edge) (*DependencyGraph, []Edge) {
	g := New(nodes...)
	var rejected []Edge
	for _, e := range edges {
		if _, err := g.AddEdge(e.From, e.To); err != nil {
			rejected = append(rejected, e)
		}
	}
	return g, rejected
}

// AddNode adds a node if it doesn't exist, returns its index.
func (g *DependencyGraph) AddNode(id string) int {
	if idx, ok := g.nodeIdx[id]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.nodeIdx[id] = idx
	g.outEdges = append(g.outEdges, nil)
	g.inEdges = append(g.inEdges, nil)
	return idx
}

// AddEdge adds from → to. It reports whether a new edge was stored; self-loops
// and duplicates return false without error. Unknown endpoints are an error.
func (g *DependencyGraph) AddEdge(from, to string) (bool, error) {
	fi, ok := g.nodeIdx[from]
	if !ok {
		return false, fmt.Errorf("edge %s -> %s: unknown node %q", from, to, from)
	}
	ti, ok := g.nodeIdx[to]
	if !ok {
		return false, fmt.Errorf("edge %s -> %s: unknown node %q", from, to, to)
	}
	if fi == ti {
		return false, nil
	}

	var added bool
	g.outEdges[fi], added = g.insertSorted(g.outEdges[fi], ti)
	if !added {
		return false, nil
	}
	g.inEdges[ti], _ = g.insertSorted(g.inEdges[ti], fi)
	g.numEdges++
	return true, nil
}

func (g *DependencyGraph) insertSorted(list []int, idx int) ([]int, bool) {
	id := g.nodes[idx]
	pos := sort.Search(len(list), func(i int) bool { return g.nodes[list[i]] >= id })
	if pos < len(list) && list[pos] == idx {
		return list, false
	}
	list = append(list, 0)
	copy(list[pos+1:], list[pos:])
	list[pos] = idx
	return list, true
}

// NumNodes returns the number of nodes in the graph.
func (g *DependencyGraph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the total number of edges.
func (g *DependencyGraph) NumEdges() int {
	return g.numEdges
}

// HasNode checks if a node exists in the graph.
func (g *DependencyGraph) HasNode(id string) bool {
	_, ok := g.nodeIdx[id]
	return ok
}

// HasEdge checks if from depends on to.
func (g *DependencyGraph) HasEdge(from, to string) bool {
	fi, ok := g.nodeIdx[from]
	if !ok {
		return false
	}
	ti, ok := g.nodeIdx[to]
	if !ok {
		return false
	}
	for _, n := range g.outEdges[fi] {
		if n == ti {
			return true
		}
	}
	return false
}

// Nodes returns all node ids sorted.
func (g *DependencyGraph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	sort.Strings(out)
	return out
}

// Edges returns every edge sorted by (from, to).
func (g *DependencyGraph) Edges() []Edge {
	edges := make([]Edge, 0, g.numEdges)
	for _, from := range g.Nodes() {
		for _, ti := range g.outEdges[g.nodeIdx[from]] {
			edges = append(edges, Edge{From: from, To: g.nodes[ti]})
		}
	}
	return edges
}

// DependsOn returns the ids id depends on, sorted.
func (g *DependencyGraph) DependsOn(id string) []string {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil
	}
	return g.names(g.outEdges[idx])
}

// Dependents returns the ids depending on id, sorted.
func (g *DependencyGraph) Dependents(id string) []string {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil
	}
	return g.names(g.inEdges[idx])
}

// OutDegree is the number of distinct modules id depends on.
func (g *DependencyGraph) OutDegree(id string) int {
	if idx, ok := g.nodeIdx[id]; ok {
		return len(g.outEdges[idx])
	}
	return 0
}

// InDegree is the number of distinct modules depending on id.
func (g *DependencyGraph) InDegree(id string) int {
	if idx, ok := g.nodeIdx[id]; ok {
		return len(g.inEdges[idx])
	}
	return 0
}

func (g *DependencyGraph) names(idxs []int) []string {
	out := make([]string, len(idxs))
	for i, n := range idxs {
		out[i] = g.nodes[n]
	}
	return out
}

// Adjacency returns the graph as id → sorted dependency ids. Every node is
// present, isolated ones with an empty list.
func (g *DependencyGraph) Adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.nodes))
	for i, id := range g.nodes {
		adj[id] = g.names(g.outEdges[i])
	}
	return adj
}

// MarshalJSON encodes the graph as its adjacency map.
func (g *DependencyGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Adjacency())
}

// UnmarshalJSON rebuilds a graph from an adjacency map. Targets missing from
// the key set are added as nodes.
func (g *DependencyGraph) UnmarshalJSON(data []byte) error {
	var adj map[string][]string
	if err := json.Unmarshal(data, &adj); err != nil {
		return err
	}
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	*g = *New(ids...)
	for _, from := range ids {
		for _, to := range adj[from] {
			g.AddNode(to)
			if _, err := g.AddEdge(from, to); err != nil {
				return err
			}
		}
	}
	return nil
}
