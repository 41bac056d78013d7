package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"modplan/internal/config"
	"modplan/internal/layers"
	"modplan/internal/metrics"
	"modplan/internal/modules"
	"modplan/internal/orchestrator"
	"modplan/internal/pipeline"
	"modplan/internal/slogutil"
	"modplan/internal/tracing"
)

// runEnv is everything one command invocation needs.
type runEnv struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Registry
	tracing *tracing.Provider

	factory *slogutil.LoggerFactory
}

// newRunEnv resolves the repository root from args, loads configuration and
// builds the logger, metrics registry and tracer. An unreadable root is not
// rejected here; the scan reports it as the architecture analyzer's error.
func newRunEnv(cmd *cobra.Command, args []string) (*runEnv, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	cfg, err := loadConfig(abs)
	if err != nil {
		return nil, err
	}

	factory := slogutil.NewLoggerFactory(cfg, cmd.ErrOrStderr())
	if verboseFlag > 0 || quietFlag {
		factory.WithCLILevel(slogutil.LevelFromVerbosity(verboseFlag, quietFlag))
	}
	logger, err := factory.Logger()
	if err != nil {
		logger.Warn("Log file unavailable, logging to console only", "error", err)
	}

	tp, err := tracing.Setup(cfg.Telemetry.TracingEnabled, logger)
	if err != nil {
		return nil, err
	}

	return &runEnv{
		root:    abs,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRegistry(),
		tracing: tp,
		factory: factory,
	}, nil
}

func loadConfig(root string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadConfigFile(configFlag)
	} else {
		cfg, err = config.LoadConfig(root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.RepoRoot = root
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// policy returns the layer policy from --layers, the config, or the default.
func (e *runEnv) policy() (*layers.Policy, error) {
	path := layersFlag
	if path == "" && e.cfg.Layers.PolicyFile != "" {
		path = e.cfg.Layers.PolicyFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.root, path)
		}
	}
	if path == "" {
		return layers.DefaultPolicy(), nil
	}
	e.logger.Debug("Loading layer policy", "path", path)
	return layers.Load(path)
}

// pipeline builds an orchestrator with the core analyzers over the scanned
// repository.
func (e *runEnv) pipeline(strict bool) (*orchestrator.Orchestrator, error) {
	policy, err := e.policy()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Config{
		Source:   modules.NewScanner(e.root, &e.cfg.Scan, e.logger),
		Policy:   policy,
		Settings: e.cfg,
		Logger:   e.logger,
		Metrics:  e.metrics,
	},
		orchestrator.WithLogger(e.logger),
		orchestrator.WithMetrics(e.metrics),
		orchestrator.WithTracer(e.tracing.Tracer()),
		orchestrator.WithStrictCycles(strict || e.cfg.Orchestrator.StrictCycles),
	)
}

// close flushes telemetry and closes log files.
func (e *runEnv) close(ctx context.Context) {
	path := metricsFileFlag
	if path == "" {
		path = e.cfg.Telemetry.MetricsFile
	}
	if path != "" {
		if err := e.metrics.WriteTextfile(path); err != nil {
			e.logger.Warn("Failed to write metrics", "path", path, "error", err)
		}
	}
	if err := e.tracing.Shutdown(ctx); err != nil {
		e.logger.Warn("Failed to flush traces", "error", err)
	}
	_ = e.factory.Close()
}

// emit formats resp and writes it to --output or stdout.
func emit(cmd *cobra.Command, resp any) error {
	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	if outputFlag == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	}
	return writeOutput(outputFlag, out)
}

func writeOutput(path, out string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".zst") {
		var enc *zstd.Encoder
		if enc, err = zstd.NewWriter(f); err != nil {
			return err
		}
		defer func() {
			if cerr := enc.Close(); err == nil {
				err = cerr
			}
		}()
		w = enc
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}
