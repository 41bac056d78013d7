package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"modplan/internal/pipeline"
	"modplan/internal/plan"
)

var (
	analyzeStrict  bool
	analyzeActions string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Run every analyzer over a repository",
	Long: `Scan the repository at path (default: the current directory) into a module
graph and run the architecture, ranking, plan and recommendation analyzers.

Partial failures are reported per analyzer and do not change the exit status
unless --strict is set.

Examples:
  modplan analyze
  modplan analyze ./service --format=human
  modplan analyze --actions=actions.yaml --output=report.json.zst
  modplan analyze --layers=layers.toml --strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeStrict, "strict", false, "Exit non-zero when an analyzer fails or analyzer dependencies are cyclic")
	analyzeCmd.Flags().StringVar(&analyzeActions, "actions", "", "Raw refactoring actions (.yaml) to plan")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()
	env, err := newRunEnv(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer env.close(ctx)

	options := map[string]any{}
	if analyzeActions != "" {
		raw, err := plan.LoadRawActions(analyzeActions)
		if err != nil {
			return err
		}
		options[pipeline.OptionRawActions] = raw
	}

	o, err := env.pipeline(analyzeStrict)
	if err != nil {
		return err
	}
	run, err := o.Run(ctx, options)
	if err != nil {
		return err
	}

	if err := emit(cmd, pipeline.ReportFrom(run)); err != nil {
		return err
	}

	env.logger.Debug("Analyze completed",
		"run", run.ID,
		"passes", run.Passes,
		"duration", time.Since(start).Milliseconds(),
	)

	if failed := run.Failed(); analyzeStrict && len(failed) > 0 {
		return fmt.Errorf("%d analyzer(s) failed: %v", len(failed), failed)
	}
	return nil
}
