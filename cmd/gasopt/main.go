package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/archive"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/bundler"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/report"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/sweep"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/userop"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

func main() {
	var configPath string
	var outDir string
	var variant string
	var archiveDir string
	var single bool

	flag.StringVar(&configPath, "config", "", "path to a YAML config (defaults when empty)")
	flag.StringVar(&outDir, "out", "", "output directory (overrides sweep.output_dir)")
	flag.StringVar(&variant, "variant", "", "userop or bundler (overrides variant)")
	flag.StringVar(&archiveDir, "archive-dir", "", "badger archive directory (overrides archive.dir)")
	flag.BoolVar(&single, "single", false, "run one optimization instead of the sweep")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if outDir != "" {
		cfg.Sweep.OutputDir = outDir
	}
	if variant != "" {
		cfg.Variant = variant
	}
	if archiveDir != "" {
		cfg.Archive.Dir = archiveDir
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("invalid config: %w", err))
		os.Exit(2)
	}

	logger.Setup(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File: logger.FileOptions{
			Filename:   cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if single || cfg.Variant == config.VariantBundler {
		err = runSingle(ctx, cfg)
	} else {
		err = runSweep(ctx, cfg)
	}
	if err != nil {
		logger.Error("optimization failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

func runSweep(ctx context.Context, cfg *config.Config) (err error) {
	orch, err := sweep.NewOrchestrator(cfg)
	if err != nil {
		return err
	}
	orch.WithSinks(report.NewWriter(cfg.Sweep.OutputDir, cfg.Sweep.XLSX))

	if cfg.Archive.Dir != "" {
		arc, openErr := archive.Open(cfg.Archive.Dir)
		if openErr != nil {
			return openErr
		}
		defer func() { err = errors.Join(err, arc.Close()) }()
		orch.WithSinks(archive.NewSweepSink(arc))
	}

	res, err := orch.Run(ctx)
	if res == nil {
		return err
	}
	for _, s := range res.Summaries {
		logger.Info("bundle summary",
			"bundle_size", s.BundleSize,
			"valid_runs", s.ValidRuns,
			"mean_fitness", utils.Round(s.MeanFitness, 8),
			"std_fitness", utils.Round(s.StdFitness, 8),
			"best_run", s.BestRun,
		)
	}
	if best, ok := res.Best(); ok {
		logger.Info("sweep completed",
			"sweep_id", res.SweepID,
			"output_dir", cfg.Sweep.OutputDir,
			"best_bundle_size", best.BundleSize,
			"best_run", best.Run,
			"best_fitness", best.Best.Cost,
			"duration", res.Duration,
		)
	}
	return err
}

func progressLogger(stats evolution.GenerationStats) {
	logger.Debug("generation evolved",
		"generation", stats.Generation,
		"best_cost", stats.BestCost,
		"mean_cost", stats.MeanCost,
	)
}

func runSingle(ctx context.Context, cfg *config.Config) error {
	params, err := evolution.ParamsFromConfig(cfg.Algorithm)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Sweep.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	switch cfg.Variant {
	case config.VariantBundler:
		problem, err := bundler.ProblemFromConfig(cfg.Bundler)
		if err != nil {
			return err
		}
		opt, err := bundler.NewOptimizer(problem, params)
		if err != nil {
			return err
		}
		res, err := opt.WithProgressReporter(progressLogger).Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("bundler optimization completed",
			"batch_size", res.Best.Genome.BatchSize,
			"cost", res.Best.Cost,
			"generations", res.Generations,
			"seed", res.Seed,
		)
		return report.WriteJSON(filepath.Join(cfg.Sweep.OutputDir, "bundler_result.json"), res)

	default:
		problem, err := userop.ProblemFromConfig(cfg)
		if err != nil {
			return err
		}
		opt, err := userop.NewOptimizer(problem, params)
		if err != nil {
			return err
		}
		res, err := opt.WithProgressReporter(progressLogger).Run(ctx)
		if err != nil {
			return err
		}
		op := userop.ToUserOperation(res.Best.Genome, cfg.BatchMultiplier)
		if err := report.WriteJSON(filepath.Join(cfg.Sweep.OutputDir, report.UserOpFileName(cfg.BatchMultiplier, 1)), op); err != nil {
			return err
		}
		gas := userop.ToGasOutput(res.Best.Evaluation)
		if err := report.WriteJSON(filepath.Join(cfg.Sweep.OutputDir, report.GasOutputFileName(cfg.BatchMultiplier, 1)), gas); err != nil {
			return err
		}
		logger.Info("optimization completed",
			"genome", res.Best.Genome,
			"cost", res.Best.Cost,
			"valid", res.Best.Valid,
			"generations", res.Generations,
			"reason", res.Reason,
			"seed", res.Seed,
		)
		return nil
	}
}
