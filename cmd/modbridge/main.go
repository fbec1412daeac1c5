package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"modbridge/internal/config"
	"modbridge/internal/logging"
	"modbridge/internal/metrics"
	"modbridge/internal/resolver"
	"modbridge/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "modbridge",
		Short: "Analyse Java mods, map their APIs and validate Bedrock translations",
		// RunE errors are reported once by main.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath  string
	storePath   string
	metricsFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "modbridge.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "Path to the mapping store (overrides store.path)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(validateCmd)
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
}

func setup() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, metrics: metrics.NewCollector()}, nil
}

// close flushes logs and dumps metrics when requested.
func (a *app) close() {
	if metricsFile != "" {
		if err := a.metrics.WriteToTextfile(metricsFile); err != nil {
			a.logger.Warn("failed to write metrics", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) openStore(ctx context.Context) (*storage.Store, error) {
	var backend storage.Backend
	switch a.cfg.Store.Backend {
	case "sqlite":
		b, err := storage.NewSQLiteBackend(a.cfg.Store.Path, a.logger)
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		backend = storage.NewJSONFileBackend(a.cfg.Store.Path, a.logger)
	}
	return storage.NewStore(ctx, backend, a.logger)
}

func (a *app) newMapper(store *storage.Store) (*resolver.Mapper, error) {
	legacy, err := resolver.LoadLegacyTable(a.cfg.Resolver.LegacyTable)
	if err != nil {
		return nil, fmt.Errorf("failed to load legacy table: %w", err)
	}
	return resolver.NewMapper(store, resolver.Options{
		FuzzyThreshold: a.cfg.Resolver.FuzzyThreshold,
		CacheSize:      a.cfg.Resolver.CacheSize,
		Legacy:         legacy,
		Logger:         a.logger,
		Metrics:        a.metrics,
	}), nil
}
