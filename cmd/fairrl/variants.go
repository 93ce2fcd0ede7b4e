package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/environment"
	"github.com/brianbland/fairrl/pkg/variant"
)

// variantsCmd lists the supported algorithms and environment variants
var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the supported algorithms and environment variants",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Algorithms (--algorithm):")
		for _, v := range variant.Variants() {
			fmt.Fprintf(out, "  %-7s %s\n", v, v.Description())
		}

		fmt.Fprintln(out, "\nEnvironments (--env, --harder-env):")
		for _, kind := range []config.EnvKind{config.EnvAttention, config.EnvLending} {
			for _, p := range environment.Presets() {
				tag := kind.StandardTag()
				if p.Harder {
					tag = kind.HarderTag()
				}
				fmt.Fprintf(out, "  %-9s %-8s %-12s %s\n", kind, p.Name, tag, p.Description)
			}
		}
	},
}
