package main

import (
	"github.com/spf13/cobra"

	"modplan/internal/version"
)

var (
	configFlag      string
	formatFlag      string
	outputFlag      string
	metricsFileFlag string
	layersFlag      string
	verboseFlag     int
	quietFlag       bool
)

var rootCmd = &cobra.Command{
	Use:   "modplan",
	Short: "modplan - module dependency analysis and refactoring planner",
	Long: `modplan scans a repository into a module dependency graph, reports
dependency cycles and layer violations with a health score, ranks modules by
centrality and coupling, and orders refactoring actions into a migration plan.`,
	Version:       version.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.SetVersionTemplate("modplan version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", "", "Config file (default: <repo>/.modplan/config.json)")
	flags.StringVar(&formatFlag, "format", "json", "Output format (json, human)")
	flags.StringVarP(&outputFlag, "output", "o", "", "Write output to a file; a .zst suffix compresses it")
	flags.StringVar(&metricsFileFlag, "metrics-file", "", "Write Prometheus metrics in textfile format")
	flags.StringVar(&layersFlag, "layers", "", "Layer policy file (.toml, .yaml)")
	flags.CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress log output")
}
