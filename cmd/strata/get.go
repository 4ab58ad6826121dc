package main

import (
	"fmt"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <layer> <path> <attribute>",
	Short: "Print the composed value of an attribute",
	Args:  cobra.ExactArgs(3),
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

		v, found, err := engine.AttributeValue(cmd.Context(), args[0], path, args[2])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no value for %s.%s", path, args[2])
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
