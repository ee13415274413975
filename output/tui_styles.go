package output

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Color constants - Dracula theme
const (
	colorBackground  = "#282a36"
	colorCurrentLine = "#44475a"
	colorForeground  = "#f8f8f2"
	colorComment     = "#6272a4"
	colorCyan        = "#8be9fd"
	colorGreen       = "#50fa7b"
	colorGreenDark   = "#2d7a45" // Darker green for progress bar
	colorPurple      = "#bd93f9"
	colorRed         = "#ff5555"
	colorRedDark     = "#8b2e2e" // Darker red for progress bar
)

// Common string constants and section formatting
const (
	separatorLine = "  ─────────────────────────────────────"

	titleText    = "%s: %d cases"
	resultText   = "%d passed | %d failed"
	progressText = "Progress: %d/%d | " + resultText + " | Elapsed: %s"

	noCasesText = "No case files matched, nothing to do."
	footerText  = "↑/↓: scroll | PgUp/PgDn/Home/End: paging | also supports Vim keybinds"
	footerDone  = "✓ All done! " + footerText + " | p: print output | Enter/Esc or q: quit"
	tuiFailText = "Error running TUI: %v\nUsing fallback output handler...\n"

	caseWaitingFormat = "⏸ %s"
	caseRunningFormat = "▶ %s"
	casePassedFormat  = "✓ %s"
	caseFailedFormat  = "✗ %s"
)

// wrapColor creates a colored style that wraps text to the given terminal width.
func wrapColor(textColor string, width int) lipgloss.Style {
	return color(textColor).Width(max(width-4, 1)).MarginLeft(2)
}

// create a common style with the given foreground color
func color(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// outputStyles contains styles for the main TUI output handler
type outputStyles struct {
	caseRunning lipgloss.Style
	caseWaiting lipgloss.Style
	casePassed  lipgloss.Style
	caseFailed  lipgloss.Style

	separator lipgloss.Style
	status    lipgloss.Style
	output    lipgloss.Style
	outputErr lipgloss.Style

	progress              lipgloss.Style
	progressBarIncomplete lipgloss.Style
	progressBarComplete   lipgloss.Style
	progressBarError      lipgloss.Style
}

func newOutputStyles(width int) outputStyles {
	return outputStyles{
		caseRunning: color(colorCyan).Bold(true),
		caseWaiting: color(colorComment).Bold(true),
		casePassed:  color(colorGreen).Bold(true),
		caseFailed:  color(colorRed).Bold(true),

		separator: color(colorCurrentLine),
		status:    color(colorPurple).Italic(true),
		output:    wrapColor(colorForeground, width),
		outputErr: wrapColor(colorRed, width),

		progress:              color(colorCyan),
		progressBarIncomplete: color(colorCurrentLine).Background(lipgloss.Color(colorBackground)),
		progressBarComplete:   color(colorGreenDark).Background(lipgloss.Color(colorGreenDark)),
		progressBarError:      color(colorRedDark).Background(lipgloss.Color(colorRedDark)),
	}
}

// scrollKeys maps navigation keys to viewport movements, including Vim bindings.
var scrollKeys = map[string]func(vp *viewport.Model){
	"down": func(vp *viewport.Model) { vp.ScrollDown(1) },
	"j":    func(vp *viewport.Model) { vp.ScrollDown(1) },
	"up":   func(vp *viewport.Model) { vp.ScrollUp(1) },
	"k":    func(vp *viewport.Model) { vp.ScrollUp(1) },

	"shift+down": func(vp *viewport.Model) { vp.HalfPageDown() },
	"J":          func(vp *viewport.Model) { vp.HalfPageDown() },
	"ctrl+d":     func(vp *viewport.Model) { vp.HalfPageDown() },
	"shift+up":   func(vp *viewport.Model) { vp.HalfPageUp() },
	"K":          func(vp *viewport.Model) { vp.HalfPageUp() },
	"ctrl+u":     func(vp *viewport.Model) { vp.HalfPageUp() },

	"pgdown": func(vp *viewport.Model) { vp.PageDown() },
	"ctrl+f": func(vp *viewport.Model) { vp.PageDown() },
	"pgup":   func(vp *viewport.Model) { vp.PageUp() },
	"ctrl+b": func(vp *viewport.Model) { vp.PageUp() },

	"home": func(vp *viewport.Model) { vp.GotoTop() },
	"g":    func(vp *viewport.Model) { vp.GotoTop() },
	"end":  func(vp *viewport.Model) { vp.GotoBottom() },
	"G":    func(vp *viewport.Model) { vp.GotoBottom() },
}

// scroll applies a navigation key to the viewport, reporting whether key was one.
func scroll(vp *viewport.Model, key string) bool {
	move, ok := scrollKeys[key]
	if ok {
		move(vp)
	}

	return ok
}

// renderProgressBar draws passed cases in green, failed cases in red and the
// remainder as pending.
func renderProgressBar(styles outputStyles, completed, failed, total, width int) string {
	if width < 10 {
		width = 40
	}

	if total == 0 {
		return styles.progressBarIncomplete.Render(strings.Repeat(" ", width))
	}

	passedWidth := width * (completed - failed) / total
	failedWidth := width * failed / total
	pendingWidth := width - passedWidth - failedWidth

	var bar strings.Builder

	for _, part := range []struct {
		style lipgloss.Style
		fill  string
		width int
	}{
		{styles.progressBarComplete, "█", passedWidth},
		{styles.progressBarError, "█", failedWidth},
		{styles.progressBarIncomplete, "░", pendingWidth},
	} {
		if part.width > 0 {
			bar.WriteString(part.style.Render(strings.Repeat(part.fill, part.width)))
		}
	}

	return bar.String()
}
