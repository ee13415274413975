package output

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ryclarke/scriptcheck/config"
)

const (
	// TUI is the terminal UI output style
	TUI = "tui"
	// Native is the plain text output style
	Native = "native"
)

// AvailableStyles lists all supported output styles
var AvailableStyles = []string{TUI, Native}

// Handler processes the streaming output of every case run, in order.
type Handler func(cmd *cobra.Command, channels []Channel)

// GetHandler returns the Handler for output.style. Without a configured style the
// TUI is used when the command writes to a terminal.
func GetHandler(cmd *cobra.Command) Handler {
	switch config.Viper(cmd.Context()).GetString(config.OutputStyle) {
	case Native:
		return NativeHandler
	case TUI:
		return TUIHandler
	}

	if isTerminal(cmd.OutOrStdout()) {
		return TUIHandler
	}

	return NativeHandler
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
