package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modplan/internal/orchestrator"
	"modplan/internal/output"
	"modplan/internal/pipeline"
	"modplan/internal/ranking"
)

var (
	hotspotsLimit int
	hotspotsSort  string
)

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots [path]",
	Short: "List modules ranked by centrality",
	Long: `Rank the repository's modules by dependency centrality and show their
coupling, classification and cycle membership.

--sort takes comma separated fields with an optional :asc or :desc suffix
(ca, ce, centrality, instability, classification, id, ...).

Examples:
  modplan hotspots
  modplan hotspots --limit=5 --format=human
  modplan hotspots --sort=ca:desc,id`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHotspots,
}

func init() {
	hotspotsCmd.Flags().IntVar(&hotspotsLimit, "limit", 20, "Maximum modules to show (0 for all)")
	hotspotsCmd.Flags().StringVar(&hotspotsSort, "sort", "", "Sort order (default: centrality rank)")
	rootCmd.AddCommand(hotspotsCmd)
}

// HotspotsResponseCLI is the hotspots command output.
type HotspotsResponseCLI struct {
	Modules   []ranking.ModuleRank `json:"modules"`
	Total     int                  `json:"total"`
	Converged bool                 `json:"converged"`
}

func runHotspots(cmd *cobra.Command, args []string) error {
	var criteria []output.SortCriteria
	if hotspotsSort != "" {
		var err error
		if criteria, err = output.ParseSortCriteria(hotspotsSort, ranking.ModuleRank{}); err != nil {
			return err
		}
	}

	env, err := newRunEnv(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer env.close(ctx)

	// The ranking analyzer caps its own hotspot list; the command applies
	// --limit instead.
	env.cfg.Ranking.HotspotLimit = 0
	o, err := env.pipeline(false)
	if err != nil {
		return err
	}
	run, err := o.Run(ctx, nil)
	if err != nil {
		return err
	}
	an, ok := orchestrator.ResultData[*ranking.Analysis](run, pipeline.AnalyzerRanking)
	if !ok {
		res, _ := run.Result(pipeline.AnalyzerRanking)
		return fmt.Errorf("ranking %s: %s", res.Status, res.Reason)
	}

	resp, err := hotspotsResponse(an, criteria, hotspotsLimit)
	if err != nil {
		return err
	}
	return emit(cmd, resp)
}

func hotspotsResponse(an *ranking.Analysis, criteria []output.SortCriteria, limit int) (*HotspotsResponseCLI, error) {
	rows := make([]ranking.ModuleRank, 0, len(an.Hotspots))
	for _, h := range an.Hotspots {
		if m, ok := an.Module(h.ID); ok {
			rows = append(rows, m)
		}
	}
	if len(criteria) > 0 {
		if err := output.MultiFieldSort(&rows, criteria); err != nil {
			return nil, err
		}
	}
	total := len(rows)
	if limit > 0 && limit < total {
		rows = rows[:limit]
	}
	return &HotspotsResponseCLI{Modules: rows, Total: total, Converged: an.Converged}, nil
}
