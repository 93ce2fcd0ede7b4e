// Package main implements the fairrl CLI: training, plotting and inspection
// of fairness-aware reinforcement learning experiments.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/identity"
	"github.com/brianbland/fairrl/pkg/logging"
)

var (
	// configPath is the optional YAML settings file
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var collision *identity.CollisionError
		var cfgErr *config.ConfigurationError
		switch {
		case errors.As(err, &collision):
			fmt.Fprintf(os.Stderr, "Hint: pass --exp-index or --debug to train %s again\n", collision.Path)
		case errors.As(err, &cfgErr):
			fmt.Fprintf(os.Stderr, "Hint: run with --help to list the accepted values of --%s\n", cfgErr.Field)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fairrl",
	Short: "Fairness-aware reinforcement learning experiments",
	Long: `fairrl trains policies on simulated allocation problems while penalizing
the gap between the long-term benefit rates of demographic groups.

Every run writes its configuration, checkpoints, evaluation history and
plots into a directory derived from its parameters.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML settings file (defaults are embedded)")
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(variantsCmd)
}

// loadSettings returns the settings and a logger configured from them
func loadSettings() (config.Settings, *zap.Logger, error) {
	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return config.Settings{}, nil, err
	}
	logger, err := logging.New(settings.Log)
	if err != nil {
		return config.Settings{}, nil, err
	}
	return settings, logger, nil
}
