package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/strata/internal/presentation/tui"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <layer> <path>",
	Short: "Show how a prim is composed",
	Long:  `Prints the contributing sites of a prim in strength order, the arcs that brought them in and any composition errors.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := domain.ParsePath(args[1])
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		engine, cleanup, _, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		idx, err := engine.Inspect(cmd.Context(), args[0], path)
		if err != nil {
			return err
		}

		if asJSON {
			errs := make([]string, 0, len(idx.Errors))
			for _, cerr := range idx.Errors {
				errs = append(errs, cerr.Error())
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*domain.PrimIndex
				Errors []string `json:"errors"`
			}{idx, errs})
		}

		render := tui.RendererFor(os.Stdout)
		out, err := render(tui.IndexMarkdown(idx))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("json", false, "Print the index as JSON")
}
