package main

import (
	"os"

	"github.com/spf13/cobra"

	"modplan/internal/architecture"
	"modplan/internal/layers"
	"modplan/internal/modules"
)

var layersWrite string

var layersCmd = &cobra.Command{
	Use:   "layers [path]",
	Short: "Show the layer policy and each module's layer",
	Long: `Print the effective layer policy (from --layers, the config, or the built-in
default) and the layer assigned to every module.

Examples:
  modplan layers --format=human
  modplan layers --layers=layers.yaml
  modplan layers --write=layers.toml   # start a policy from the effective one`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLayers,
}

func init() {
	layersCmd.Flags().StringVar(&layersWrite, "write", "", "Write the effective policy as TOML to this file")
	rootCmd.AddCommand(layersCmd)
}

// LayersResponseCLI is the layers command output.
type LayersResponseCLI struct {
	Layers    []LayerCLI `json:"layers"`
	Unlayered []string   `json:"unlayered,omitempty"`
}

// LayerCLI is one policy layer with its modules.
type LayerCLI struct {
	Name     string   `json:"name"`
	Patterns []string `json:"patterns,omitempty"`
	Allow    []string `json:"allow,omitempty"`
	Modules  []string `json:"modules,omitempty"`
}

func runLayers(cmd *cobra.Command, args []string) (err error) {
	env, err := newRunEnv(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer env.close(ctx)

	policy, err := env.policy()
	if err != nil {
		return err
	}

	if layersWrite != "" {
		f, err := os.Create(layersWrite)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		if err := policy.WriteTOML(f); err != nil {
			return err
		}
		env.logger.Info("Wrote layer policy", "path", layersWrite)
	}

	scan, err := modules.NewScanner(env.root, &env.cfg.Scan, env.logger).Scan(ctx)
	if err != nil {
		return err
	}
	health, err := architecture.NewGenerator(policy, env.cfg.Health, env.logger).Generate(ctx, scan)
	if err != nil {
		return err
	}
	return emit(cmd, layersResponse(health, policy.Layers))
}

func layersResponse(health *architecture.Health, policy []layers.Layer) *LayersResponseCLI {
	byLayer := make(map[string][]string)
	resp := &LayersResponseCLI{Layers: make([]LayerCLI, 0, len(policy))}
	for _, m := range health.Modules {
		if m.Layer == "" {
			resp.Unlayered = append(resp.Unlayered, m.ID)
			continue
		}
		byLayer[m.Layer] = append(byLayer[m.Layer], m.ID)
	}
	for _, l := range policy {
		resp.Layers = append(resp.Layers, LayerCLI{
			Name:     l.Name,
			Patterns: l.Patterns,
			Allow:    l.Allow,
			Modules:  byLayer[l.Name],
		})
	}
	return resp
}
