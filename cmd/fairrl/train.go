package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/device"
	"github.com/brianbland/fairrl/pkg/orchestrator"
	"github.com/brianbland/fairrl/pkg/variant"
	"github.com/brianbland/fairrl/pkg/visualization"
)

var trainParser *config.Parser

func init() {
	trainParser = config.NewParser(trainCmd.Flags())
	trainParser.RegisterFlags()
}

// trainCmd runs the full training pipeline of one experiment
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a policy and record its evaluations",
	Long: `Train a policy with the selected algorithm and environment.

The run directory is derived from the environment, algorithm, coefficients,
learning rate and experiment index. An existing directory is only replaced
for --debug runs.

Examples:
  # Train the primary method on the attention allocation problem
  fairrl train --env attention --algorithm ELBERT --bias-coef 20000

  # Train the adaptive penalty baseline on lending
  fairrl train --env lending --algorithm APPO --exp-index 1

  # Quick, overwritable run
  fairrl train --train-timesteps 50000 --debug`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, _ []string) error {
	settings, logger, err := loadSettings()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts, err := trainParser.Options()
	if err != nil {
		return err
	}

	v, err := variant.ParseVariant(opts.Algorithm)
	if err != nil {
		return err
	}
	if ignored := config.Conflicts(cmd.Flags(), v.IgnoredFlags(opts.Env)); len(ignored) > 0 {
		logger.Warn("flags are ignored by the selected algorithm",
			zap.String("algorithm", string(v)),
			zap.Strings("flags", ignored),
		)
	}
	if strings.Contains(opts.ExpPathExtra, "debug") && !opts.Debug {
		logger.Warn("the experiment suffix mentions debug but --debug is not set; the directory will not be overwritten",
			zap.String("exp_path_extra", opts.ExpPathExtra),
		)
	}

	info := device.Detect()
	logger.Info("device", info.Fields()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := orchestrator.New(settings, visualization.NewPlotter(logger), logger)
	o.Workers = info.Workers()

	id, err := o.Execute(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Experiment saved to %s\n", id.Path)
	return nil
}
