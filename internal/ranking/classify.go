package ranking

// Position is what classification looks at for one module.
type Position struct {
	Ca                   int
	CaPercentile         int
	CentralityPercentile int

	// Uniform is set when every module of the graph has the same Ca and the
	// same centrality, so percentiles carry no ordering information.
	Uniform bool
}

// Classify applies the classification rule:
//
//   - leaf if Ca = 0, or both percentiles are below the leaf threshold
//   - core if either percentile reaches the core threshold
//   - intermediate otherwise
//
// The low-percentile leaf clause is ignored for uniform graphs, where every
// percentile is 0 regardless of structure.
func Classify(p Position, opts Options) Classification {
	if p.Ca == 0 {
		return Leaf
	}
	if !p.Uniform &&
		float64(p.CaPercentile) < opts.LeafPercentile &&
		float64(p.CentralityPercentile) < opts.LeafPercentile {
		return Leaf
	}
	if float64(p.CaPercentile) >= opts.CorePercentile ||
		float64(p.CentralityPercentile) >= opts.CorePercentile {
		return Core
	}
	return Intermediate
}

// phaseOrder lists classifications bottom-up.
var phaseOrder = []Classification{Leaf, Intermediate, Core}

// LevelFor maps a risk score onto a level.
func LevelFor(score float64, opts Options) RiskLevel {
	switch {
	case score >= opts.CriticalRisk:
		return RiskCritical
	case score >= opts.HighRisk:
		return RiskHigh
	case score >= opts.MediumRisk:
		return RiskMedium
	default:
		return RiskLow
	}
}
