package main

import (
	"github.com/aretw0/strata/internal/cli"
	"github.com/aretw0/strata/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <layer>",
	Short: "Compose every prim of a layer and report broken arcs",
	Long:  `Opens a stage on the layer, composes every prim and fails when any reference cannot be resolved.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanup, _, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		st, err := engine.OpenStage(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		report := validator.ValidateStage(cmd.Context(), st)
		if err := report.Err(); err != nil {
			return err
		}
		cli.PrintSystemMessage(cmd.OutOrStdout(), "%s is valid: %d prims across %d layers.", args[0], len(report.Prims), len(report.Layers))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
