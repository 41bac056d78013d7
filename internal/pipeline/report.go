package pipeline

import (
	"modplan/internal/architecture"
	"modplan/internal/orchestrator"
	"modplan/internal/plan"
	"modplan/internal/ranking"
	"modplan/internal/recommend"
)

// Report is the typed view of a pipeline run. A nil section means the
// analyzer producing it did not succeed; Run says why.
type Report struct {
	Run             *orchestrator.Run          `json:"run"`
	Health          *architecture.Health       `json:"health,omitempty"`
	Ranking         *ranking.Analysis          `json:"ranking,omitempty"`
	Plan            *plan.Plan                 `json:"plan,omitempty"`
	Recommendations []recommend.Recommendation `json:"recommendations,omitempty"`
}

// ReportFrom collects the core analyzers' data from run.
func ReportFrom(run *orchestrator.Run) *Report {
	r := &Report{Run: run}
	if run == nil {
		return r
	}
	r.Health, _ = orchestrator.ResultData[*architecture.Health](run, AnalyzerArchitecture)
	r.Ranking, _ = orchestrator.ResultData[*ranking.Analysis](run, AnalyzerRanking)
	r.Plan, _ = orchestrator.ResultData[*plan.Plan](run, AnalyzerPlan)
	r.Recommendations, _ = orchestrator.ResultData[[]recommend.Recommendation](run, AnalyzerRecommendations)
	return r
}
