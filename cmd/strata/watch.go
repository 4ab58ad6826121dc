package main

import (
	"context"

	"github.com/aretw0/strata/internal/cli"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <layer> <path> <attribute>",
	Short: "Print an attribute every time its composed value changes",
	Long:  `Watches the layer store and recomposes the attribute whenever any layer it depends on is edited, added or removed.`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := domain.ParsePath(args[1])
		if err != nil {
			return err
		}

		engine, cleanup, logger, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		logger.Info("Starting Watcher", "layer", args[0], "path", path, "attribute", args[2])
		return cli.WatchAttribute(sigCtx, engine, args[0], path, args[2], cmd.OutOrStdout(), logger)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
