// Package coupling computes afferent and efferent coupling and instability
// for the modules of a dependency graph.
package coupling

// Metrics holds the coupling of one module
type Metrics struct {
	Ca          int     `json:"ca"`          // modules depending on this one
	Ce          int     `json:"ce"`          // modules this one depends on
	Instability float64 `json:"instability"` // Ce/(Ca+Ce), 0 when both are 0
}

// Summary aggregates coupling across a graph
type Summary struct {
	Modules            int     `json:"modules"`
	AverageInstability float64 `json:"averageInstability"`
	MaxCa              int     `json:"maxCa"`
	MaxCe              int     `json:"maxCe"`
	Stable             int     `json:"stable"`   // instability < 0.3
	Balanced           int     `json:"balanced"` // 0.3 <= instability < 0.7
	Unstable           int     `json:"unstable"` // instability >= 0.7
}

// GetInstabilityLevel returns the instability level based on the value
func GetInstabilityLevel(instability float64) string {
	switch {
	case instability >= 0.7:
		return "unstable"
	case instability >= 0.3:
		return "balanced"
	default:
		return "stable"
	}
}
