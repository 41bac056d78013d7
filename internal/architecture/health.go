package architecture

import (
	"math"

	"modplan/internal/config"
)

// Curve names accepted by HealthConfig.Curve
const (
	CurveLinear      = "linear"
	CurveExponential = "exponential"
)

// Penalty returns the score penalty for one violation of severity s.
func Penalty(s Severity, cfg config.HealthConfig) float64 {
	switch s {
	case SeverityCritical:
		return cfg.Penalties.Critical
	case SeverityError:
		return cfg.Penalties.Error
	case SeverityWarning:
		return cfg.Penalties.Warning
	case SeverityInfo:
		return cfg.Penalties.Info
	default:
		return 0
	}
}

// Score maps violations onto 0-100. The linear curve subtracts the summed
// penalties from 100; the exponential curve decays as exp(-sum/scale) and
// never quite reaches zero. Both are non-increasing in every penalty.
func Score(violations []Violation, cfg config.HealthConfig) float64 {
	total := 0.0
	for _, v := range violations {
		total += Penalty(v.Severity, cfg)
	}

	var score float64
	switch cfg.Curve {
	case CurveExponential:
		scale := cfg.Scale
		if scale <= 0 {
			scale = 50
		}
		score = 100 * math.Exp(-total/scale)
	default:
		score = 100 - total
	}
	return math.Max(0, math.Min(100, score))
}

// cycleSeverity is error, or critical when the cycle spans more than
// criticalSize modules.
func cycleSeverity(size, criticalSize int) Severity {
	if criticalSize > 0 && size > criticalSize {
		return SeverityCritical
	}
	return SeverityError
}
