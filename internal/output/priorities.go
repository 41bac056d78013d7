package output

// SeverityPriority orders violation and finding severities.
// Lower numbers sort first.
var SeverityPriority = map[string]int{
	"critical": 1,
	"error":    2,
	"warning":  3,
	"info":     4,
}

// RiskPriority orders risk levels. Lower numbers sort first.
var RiskPriority = map[string]int{
	"critical": 1,
	"high":     2,
	"medium":   3,
	"low":      4,
}

// GetSeverityPriority returns the priority for a severity.
// Unknown severities sort after info.
func GetSeverityPriority(severity string) int {
	if priority, ok := SeverityPriority[severity]; ok {
		return priority
	}
	return len(SeverityPriority) + 1
}

// GetRiskPriority returns the priority for a risk level.
// Unknown levels sort after low.
func GetRiskPriority(level string) int {
	if priority, ok := RiskPriority[level]; ok {
		return priority
	}
	return len(RiskPriority) + 1
}
