package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brianbland/fairrl/pkg/analysis"
	"github.com/brianbland/fairrl/pkg/history"
	"github.com/brianbland/fairrl/pkg/manifest"
)

// showCmd prints the recorded configuration and evaluation summary of a run
var showCmd = &cobra.Command{
	Use:   "show <dir>",
	Short: "Show the configuration and evaluation summary of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	dir := args[0]
	out := cmd.OutOrStdout()

	docs, err := manifest.Read(dir)
	if err != nil {
		return fmt.Errorf("failed to read configuration of %s: %w", dir, err)
	}
	fmt.Fprintf(out, "=== Configuration: %s ===\n", dir)
	for _, doc := range docs {
		data, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	}

	path := history.Path(dir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "\nNo evaluations recorded")
		return nil
	} else if err != nil {
		return err
	}
	store, err := history.Open(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "\nNo evaluations recorded")
		return nil
	}

	results := make([]analysis.Result, 0, len(runs))
	for _, runID := range runs {
		records, err := store.List(cmd.Context(), runID)
		if err != nil {
			return err
		}
		result, err := analysis.Summarize(runID, records)
		if err != nil {
			return err
		}
		results = append(results, result)
	}
	analysis.PrintResults(out, results)
	return nil
}
