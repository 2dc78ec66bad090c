package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"onspop/internal/history"
	"onspop/internal/ons"
	"onspop/internal/pipeline"
	"onspop/internal/resolve"
	"onspop/pkg/database"
	"onspop/pkg/utils"
)

type options struct {
	configPath string
	verbose    bool

	baseURL   string
	out       string
	strategy  string
	historyDB string
	noAgeSum  bool
	strict    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "onspop",
		Short:         "Fetch the latest local-authority population estimate from the ONS API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&opts.historyDB, "history-db", "", "SQLite run ledger path")

	fetch := &cobra.Command{
		Use:   "fetch",
		Short: "Resolve the dataset, fetch the observation and write the JSON record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts)
		},
	}
	addFetchFlags(root, opts)
	addFetchFlags(fetch, opts)

	root.AddCommand(fetch, newHistoryCmd(opts))
	return root
}

func addFetchFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.baseURL, "base-url", "", "API base URL")
	f.StringVarP(&opts.out, "out", "o", "", "output JSON path")
	f.StringVar(&opts.strategy, "strategy", "", "dimension strategy: heuristic or static")
	f.BoolVar(&opts.noAgeSum, "no-age-sum", false, "fail instead of summing single-year ages")
	f.BoolVar(&opts.strict, "strict-title", false, "require the canonical dataset title")
}

// loadConfig layers command-line flags over the file and environment.
func loadConfig(cmd *cobra.Command, opts *options) (utils.Config, error) {
	cfg, err := utils.LoadConfig(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if opts.out != "" {
		cfg.OutputPath = opts.out
	}
	if opts.strategy != "" {
		cfg.DimensionStrategy = opts.strategy
	}
	if opts.historyDB != "" {
		cfg.HistoryDB = opts.historyDB
	}
	if cmd.Flags().Changed("no-age-sum") {
		cfg.AllowAgeSum = !opts.noAgeSum
	}
	if cmd.Flags().Changed("strict-title") {
		cfg.StrictTitle = opts.strict
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config.Build()
}

func runFetch(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	client := ons.NewClient(cfg.BaseURL, logger)
	client.PageSize = cfg.OptionPageSize

	roles, err := resolve.NewRoleMatcher(cfg.DimensionStrategy)
	if err != nil {
		return err
	}

	p := pipeline.New(client, logger)
	p.Datasets = resolve.NewDatasetResolver(client, cfg.TitleMatcher())
	p.Roles = roles
	p.OutputPath = cfg.OutputPath
	p.AllowAgeSum = cfg.AllowAgeSum

	res, err := p.Run(ctx)
	if err != nil {
		logger.Error("fetch failed", zap.String("run_id", p.RunID), zap.Error(err))
		return err
	}

	if cfg.HistoryDB == "" {
		return nil
	}
	db, err := database.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer db.Close()

	saved, err := history.NewRepo(db).Save(ctx, res.Run())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	logger.Info("recorded run", zap.Int64("id", saved.ID), zap.String("db", cfg.HistoryDB))
	return nil
}
