package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/cases"
)

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <case file>",
		Short: "Print the script of a case after parameter substitution",
		Long: `Print the script of a case after parameter substitution.

The case parameters are applied after the default DATA_DIR binding, in the same
order used when the case runs. Fixtures are not written and the script is not
prepared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cases.Load(args[0])
			if err != nil {
				return err
			}

			lines, err := cases.Render(cmd.Context(), c)
			if err != nil {
				return err
			}

			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			return nil
		},
	}
}
