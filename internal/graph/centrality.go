package graph

import "math"

// CentralityOptions configures the rank propagation.
type CentralityOptions struct {
	// Damping is the probability of following an edge vs teleporting (default: 0.85)
	Damping float64

	// MaxIterations is the maximum number of power iterations (default: 100)
	MaxIterations int

	// Epsilon is the L1 change below which iteration stops (default: 1e-6)
	Epsilon float64
}

// DefaultCentralityOptions returns the standard PageRank parameters.
func DefaultCentralityOptions() CentralityOptions {
	return CentralityOptions{
		Damping:       0.85,
		MaxIterations: 100,
		Epsilon:       1e-6,
	}
}

// CentralityResult holds per-module centrality. Scores sum to 1 for any
// non-empty graph.
type CentralityResult struct {
	Scores     map[string]float64 `json:"scores"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
}

// Centrality computes PageRank where rank flows from a module to the modules
// it depends on, so being depended upon raises a module's score. Mass held by
// modules without dependencies is spread uniformly each round.
func (g *DependencyGraph) Centrality(opts CentralityOptions) *CentralityResult {
	n := len(g.nodes)
	if n == 0 {
		return &CentralityResult{Scores: map[string]float64{}, Converged: true}
	}

	// Apply defaults
	def := DefaultCentralityOptions()
	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = def.Damping
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = def.Epsilon
	}

	// Visit nodes in id order so float sums do not depend on insertion order.
	order := make([]int, n)
	for i, id := range g.Nodes() {
		order[i] = g.nodeIdx[id]
	}

	uniform := 1.0 / float64(n)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = uniform
	}
	newScores := make([]float64, n)

	var iterations int
	var converged bool

	for iter := 0; iter < opts.MaxIterations; iter++ {
		iterations = iter + 1

		for i := range newScores {
			newScores[i] = 0
		}

		dangling := 0.0
		for _, i := range order {
			edges := g.outEdges[i]
			if len(edges) == 0 {
				dangling += scores[i]
				continue
			}
			contrib := scores[i] / float64(len(edges))
			for _, t := range edges {
				newScores[t] += contrib
			}
		}

		// Apply damping, teleport and dangling redistribution
		diff := 0.0
		for _, i := range order {
			newScores[i] = opts.Damping*(newScores[i]+dangling*uniform) + (1-opts.Damping)*uniform
			diff += math.Abs(newScores[i] - scores[i])
		}

		// Swap score vectors
		scores, newScores = newScores, scores

		if diff < opts.Epsilon {
			converged = true
			break
		}
	}

	total := 0.0
	for _, i := range order {
		total += scores[i]
	}
	result := make(map[string]float64, n)
	for _, i := range order {
		result[g.nodes[i]] = scores[i] / total
	}

	return &CentralityResult{
		Scores:     result,
		Iterations: iterations,
		Converged:  converged,
	}
}
