package output

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NativeHandler prints each case's section in sequence: a header, the case output
// on stdout and any failure on stderr, followed by a pass/fail summary. It works
// in every terminal environment.
func NativeHandler(cmd *cobra.Command, channels []Channel) {
	if len(channels) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), noCasesText)
		return
	}

	failed := 0

	for _, ch := range channels {
		fmt.Fprintf(cmd.OutOrStdout(), "\n------ %s ------\n", ch.Name())

		for msg := range ch.Out() {
			fmt.Fprint(cmd.OutOrStdout(), string(msg))
		}

		status := "PASS"
		for err := range ch.Err() {
			fmt.Fprintln(cmd.ErrOrStderr(), "ERROR: ", err)
			status = "FAIL"
		}

		if status == "FAIL" {
			failed++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "--- %s: %s\n", status, ch.Name())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n"+resultText+"\n", len(channels)-failed, failed)
}
