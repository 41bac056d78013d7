package main

import (
	"github.com/spf13/cobra"

	"modplan/internal/errors"
	"modplan/internal/orchestrator"
	"modplan/internal/pipeline"
	"modplan/internal/plan"
)

var planActions string

var planCmd = &cobra.Command{
	Use:   "plan [path]",
	Short: "Order refactoring actions into a migration plan",
	Long: `Read raw refactoring actions, score them against the repository's module
graph and print the ordered plan with prerequisites, risk levels and rollback
points.

The actions file lists candidate actions:

  actions:
    - kind: create-barrel
      sources: [internal/shared]
    - id: fold-utils
      kind: merge
      sources: [internal/util]
      target: internal/shared

Examples:
  modplan plan --actions=actions.yaml
  modplan plan ./service --actions=actions.yaml --format=human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planActions, "actions", "", "Raw refactoring actions (.yaml)")
	_ = planCmd.MarkFlagRequired("actions")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	raw, err := plan.LoadRawActions(planActions)
	if err != nil {
		return err
	}

	env, err := newRunEnv(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer env.close(ctx)

	o, err := env.pipeline(false)
	if err != nil {
		return err
	}
	run, err := o.Run(ctx, map[string]any{pipeline.OptionRawActions: raw})
	if err != nil {
		return err
	}

	res, _ := run.Result(pipeline.AnalyzerPlan)
	if res.Status != orchestrator.StatusSuccess {
		code := res.Code
		if code == "" {
			code = errors.InternalError
		}
		return errors.Newf(code, "plan %s: %s", res.Status, res.Reason)
	}
	p, _ := orchestrator.ResultData[*plan.Plan](run, pipeline.AnalyzerPlan)
	return emit(cmd, p)
}
