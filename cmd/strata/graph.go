package main

import (
	"fmt"

	"github.com/aretw0/strata/internal/presentation/graph"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <layer> <path>",
	Short: "Print the prim index as a Mermaid flowchart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := domain.ParsePath(args[1])
		if err != nil {
			return err
		}

		engine, cleanup, _, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		idx, err := engine.Inspect(cmd.Context(), args[0], path)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(idx))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
