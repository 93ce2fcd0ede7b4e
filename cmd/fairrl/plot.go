package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brianbland/fairrl/pkg/visualization"
)

var (
	plotSmooth int
	compareOut string
)

func init() {
	plotCmd.Flags().IntVar(&plotSmooth, "smooth", 0, "Moving-average window (defaults to the plot_smooth setting)")
	plotCmd.AddCommand(compareCmd)
	compareCmd.Flags().IntVar(&plotSmooth, "smooth", 0, "Moving-average window (defaults to the plot_smooth setting)")
	compareCmd.Flags().StringVarP(&compareOut, "output", "o", "comparison.html", "Report file to write")
}

// plotCmd regenerates the charts of a finished run
var plotCmd = &cobra.Command{
	Use:   "plot <dir>",
	Short: "Plot the evaluation return and bias of a run",
	Long: `Plot the evaluation history of an experiment directory.

Writes return.png, bias.png and an interactive report.html into the
directory.

Examples:
  fairrl plot experiments/original_env/ELBERT/smooth_20/alpha_20000_lr_1e-05_expindex_0 --smooth 5`,
	Args: cobra.ExactArgs(1),
	RunE: runPlot,
}

// compareCmd overlays several runs in one report
var compareCmd = &cobra.Command{
	Use:   "compare <dir>...",
	Short: "Compare the evaluation histories of several runs",
	Long: `Write one interactive report overlaying the return and bias of every run.

Examples:
  fairrl plot compare experiments/original_env/ELBERT/*/* experiments/original_env/APPO/* -o attention.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func runPlot(cmd *cobra.Command, args []string) error {
	settings, logger, err := loadSettings()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	smooth := plotSmooth
	if smooth <= 0 {
		smooth = settings.PlotSmooth
	}
	if err := visualization.NewPlotter(logger).PlotReturnBias(cmd.Context(), args[0], smooth); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Charts written to %s\n", args[0])
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	settings, logger, err := loadSettings()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	smooth := plotSmooth
	if smooth <= 0 {
		smooth = settings.PlotSmooth
	}
	if err := visualization.NewPlotter(logger).Compare(cmd.Context(), args, smooth, compareOut); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Comparison of %d runs written to %s\n", len(args), compareOut)
	return nil
}
