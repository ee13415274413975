package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/harness"
)

func pathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved data directory and packaged artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tc, err := harness.NewTestContext(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "workdir:  %s\n", tc.WorkDir())
			fmt.Fprintf(cmd.OutOrStdout(), "data:     %s\n", tc.DataPath())

			artifact, err := tc.ArtifactPath()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "artifact: %s\n", artifact)

			return nil
		},
	}
}
