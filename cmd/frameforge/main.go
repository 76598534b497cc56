package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/zsiec/frameforge/internal/compare/index"
	"github.com/zsiec/frameforge/internal/compare/pipeline"
	"github.com/zsiec/frameforge/internal/compare/plan"
	"github.com/zsiec/frameforge/internal/compare/probe"
	"github.com/zsiec/frameforge/internal/compare/selection"
	"github.com/zsiec/frameforge/internal/compare/types"
	"github.com/zsiec/frameforge/internal/config"
	apperrors "github.com/zsiec/frameforge/internal/errors"
	"github.com/zsiec/frameforge/internal/health"
	"github.com/zsiec/frameforge/internal/logger"
	"github.com/zsiec/frameforge/internal/metrics"
	"github.com/zsiec/frameforge/pkg/version"
)

func main() {
	flags := pflag.NewFlagSet("frameforge", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	configPath := flags.String("config", "", "Path to configuration file")
	showVersion := flags.Bool("version", false, "Show version information")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(apperrors.ExitOK)
		}
		os.Exit(apperrors.ExitFailure)
	}

	// Show version and exit if requested
	if *showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(apperrors.ExitOK)
	}

	// Load configuration
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(apperrors.ExitFailure)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(apperrors.ExitFailure)
	}

	os.Exit(execute(cfg, log, *configPath))
}

// execute runs one comparison and returns the process exit code.
func execute(cfg *config.Config, log *logrus.Logger, configPath string) (code int) {
	handler := apperrors.NewHandler(log)
	defer func() {
		if r := recover(); r != nil {
			code = handler.HandlePanic(r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	runLog := logger.ForRun(log, runID)
	ctx = logger.WithLogger(logger.WithRunID(ctx, runID), runLog)

	runLog.Info("Starting " + version.GetInfo().Short())
	if configPath != "" {
		runLog.WithField("config_path", configPath).Debug("Configuration loaded")
	}

	err := run(ctx, cfg, log, runLog)

	if cfg.Metrics.Textfile != "" {
		if mErr := metrics.WriteTextfile(cfg.Metrics.Textfile); mErr != nil {
			runLog.WithError(mErr).Warn("Failed to write metrics")
		}
	}

	return handler.Handle(err)
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger, runLog logger.Logger) error {
	backendID := index.BackendID(cfg.Indexer.Backend)

	sourceCache := cfg.Indexer.SourceCache
	encodeCache := cfg.Indexer.EncodeCache
	if encodeCache == "" && cfg.Indexer.IndexDir != "" {
		encodeCache = index.CachePathIn(cfg.Indexer.IndexDir, cfg.Compare.Encode, backendID)
	}
	for _, cachePath := range []string{sourceCache, encodeCache} {
		if err := index.ValidateCachePath(backendID, cachePath); err != nil {
			return err
		}
	}

	var frames []int
	if cfg.Compare.Frames != "" {
		var err error
		if frames, err = selection.ParseFrameList(cfg.Compare.Frames); err != nil {
			return err
		}
	}

	scanner := probe.NewFFprobe(cfg.Probe.FFprobePath, cfg.Probe.Timeout)

	preflight := health.NewManager(log)
	preflight.Register(health.NewFFprobeChecker(scanner.BinaryPath()))
	preflight.Register(health.NewMediaChecker(string(types.RoleSource), cfg.Compare.Source))
	preflight.Register(health.NewMediaChecker(string(types.RoleEncode), cfg.Compare.Encode))
	if cfg.Indexer.IndexDir != "" {
		preflight.Register(health.NewDirChecker("index_dir", cfg.Indexer.IndexDir))
	}
	if err := preflight.Preflight(ctx); err != nil {
		return err
	}

	backend, err := index.New(backendID, scanner)
	if err != nil {
		return err
	}

	seed := cfg.Compare.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	runLog.WithFields(map[string]interface{}{
		"source":  cfg.Compare.Source,
		"encode":  cfg.Compare.Encode,
		"indexer": backendID,
		"seed":    seed,
	}).Info("Preparing comparison")

	result, err := pipeline.New(backend).Run(ctx, pipeline.Request{
		Source:          cfg.Compare.Source,
		Encode:          cfg.Compare.Encode,
		SourceCache:     sourceCache,
		EncodeCache:     encodeCache,
		ComparisonCount: cfg.Compare.ComparisonCount,
		Frames:          frames,
		ReSync:          cfg.Compare.ReSync,
		Rand:            rand.New(rand.NewPCG(seed, seed)),
		Progress:        progressLogger(runLog),
	})
	if err != nil {
		return err
	}

	runLog.WithField("pairs", len(result.Pairs)).Info("Comparison plan ready")
	return writePlan(cfg.Output, result)
}

// progressLogger logs scan progress at most once per second per run.
func progressLogger(log logger.Logger) pipeline.ProgressFunc {
	every := &rate.Sometimes{Interval: time.Second}
	return func(role types.Role, done, total int) {
		every.Do(func() {
			entry := log.WithFields(map[string]interface{}{"role": string(role), "frames": done})
			if total > 0 {
				entry.Infof("Indexing %s: %d%%", role, done*100/total)
				return
			}
			entry.Infof("Indexing %s", role)
		})
	}
}

func writePlan(cfg config.OutputConfig, result *pipeline.Result) error {
	if cfg.Path == "" || cfg.Path == "-" {
		return plan.Write(os.Stdout, cfg.Format, result)
	}

	var buf bytes.Buffer
	if err := plan.Write(&buf, cfg.Format, result); err != nil {
		return err
	}
	if err := renameio.WriteFile(cfg.Path, buf.Bytes(), 0644); err != nil {
		return apperrors.WrapInternalError(err, fmt.Sprintf("failed to write plan to %s", cfg.Path))
	}
	return nil
}
