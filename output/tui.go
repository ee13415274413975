package output

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/config"
)

const (
	headerHeight = 3
	footerHeight = 5
)

// TUIHandler displays case progress in an interactive terminal UI with live output,
// a pass/fail progress bar and a scrollable viewport. If the UI cannot start, it
// falls back to NativeHandler.
func TUIHandler(cmd *cobra.Command, channels []Channel) {
	if len(channels) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), noCasesText)
		return
	}

	// Ctrl+C cancels running cases through the command context
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	cmd.SetContext(ctx)

	p := tea.NewProgram(
		newModel(cmd, channels, cancel),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), tuiFailText, err)
		NativeHandler(cmd, channels)
		return
	}

	if m, ok := final.(model); ok && m.printOutput {
		m.print(cmd)
	}
}

// caseState tracks the progress of one case run.
type caseState struct {
	ch Channel

	output     []byte
	err        error
	started    bool
	outputDone bool
	errDone    bool
}

func (c caseState) done() bool {
	return c.outputDone && c.errDone
}

type model struct {
	title  string
	cases  []caseState
	cancel context.CancelFunc

	start time.Time
	end   time.Time

	viewport viewport.Model
	styles   outputStyles
	ready    bool
	width    int

	quitting    bool
	finished    bool
	printOutput bool
	waitOnExit  bool
}

type (
	outputMsg struct {
		index int
		data  []byte
	}
	errorMsg struct {
		index int
		err   error
	}
	closedMsg struct {
		index  int
		output bool
	}
	tickMsg time.Time
)

func newModel(cmd *cobra.Command, channels []Channel, cancel context.CancelFunc) model {
	viper := config.Viper(cmd.Context())

	cases := make([]caseState, len(channels))
	for i, ch := range channels {
		cases[i] = caseState{ch: ch}
	}

	return model{
		title:  fmt.Sprintf(titleText, cmd.CommandPath(), len(channels)),
		cases:  cases,
		cancel: cancel,
		start:  time.Now(),
		styles: newOutputStyles(80),

		printOutput: viper.GetBool(config.PrintResults),
		waitOnExit:  viper.GetBool(config.WaitOnExit),
	}
}

func (m model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 2*len(m.cases)+1)
	for i, c := range m.cases {
		cmds = append(cmds, readOutput(i, c.ch), readError(i, c.ch))
	}

	return tea.Batch(append(cmds, tick())...)
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func readOutput(index int, ch Channel) tea.Cmd {
	return func() tea.Msg {
		data, ok := <-ch.Out()
		if !ok {
			return closedMsg{index: index, output: true}
		}

		return outputMsg{index: index, data: data}
	}
}

func readError(index int, ch Channel) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch.Err()
		if !ok {
			return closedMsg{index: index}
		}

		return errorMsg{index: index, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case outputMsg:
		c := &m.cases[msg.index]
		c.started = true
		c.output = append(c.output, msg.data...)
		m.refresh()
		return m, readOutput(msg.index, c.ch)

	case errorMsg:
		m.cases[msg.index].err = msg.err
		m.refresh()
		return m, readError(msg.index, m.cases[msg.index].ch)

	case closedMsg:
		return m.handleClosed(msg)

	case tickMsg:
		if !m.finished {
			return m, tick()
		}
	}

	return m, nil
}

func (m *model) resize(width, height int) {
	m.width = width
	m.styles = newOutputStyles(width)

	if !m.ready {
		m.viewport = viewport.New(width, height-headerHeight-footerHeight)
		m.viewport.YPosition = headerHeight
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height - headerHeight - footerHeight
	}

	m.refresh()
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); {
	case key == "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		m.quitting = true
		return m, tea.Quit

	case m.finished && key == "p":
		m.printOutput = true
		m.quitting = true
		return m, tea.Quit

	case m.finished && (key == "enter" || key == "esc" || key == "q"):
		m.quitting = true
		return m, tea.Quit

	case scroll(&m.viewport, key):
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

func (m model) handleClosed(msg closedMsg) (tea.Model, tea.Cmd) {
	c := &m.cases[msg.index]
	if msg.output {
		c.outputDone = true
	} else {
		c.errDone = true
	}

	if m.completed() == len(m.cases) {
		m.finished = true
		m.end = time.Now()

		if !m.waitOnExit {
			m.quitting = true
			return m, tea.Quit
		}
	}

	m.refresh()

	return m, nil
}

func (m *model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.content())
	}
}

// completed returns the number of finished cases.
func (m model) completed() int {
	n := 0
	for _, c := range m.cases {
		if c.done() {
			n++
		}
	}

	return n
}

// failed returns the number of finished cases that reported an error.
func (m model) failed() int {
	n := 0
	for _, c := range m.cases {
		if c.done() && c.err != nil {
			n++
		}
	}

	return n
}

func (m model) elapsed() time.Duration {
	if m.finished {
		return m.end.Sub(m.start).Round(time.Second)
	}

	return time.Since(m.start).Round(time.Second)
}

// content renders the section of every case, shared by the viewport and print.
func (m model) content() string {
	var b strings.Builder

	for i, c := range m.cases {
		if i > 0 {
			b.WriteString(m.styles.separator.Render(separatorLine))
			b.WriteString("\n")
		}

		b.WriteString(m.header(c))
		b.WriteString("\n")

		for line := range bytes.SplitSeq(bytes.TrimSuffix(c.output, []byte{'\n'}), []byte{'\n'}) {
			if len(line) > 0 {
				b.WriteString(m.styles.output.Render(string(line)))
			}
			b.WriteString("\n")
		}

		if c.err != nil {
			b.WriteString(m.styles.outputErr.Render("  ERROR: " + c.err.Error()))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m model) header(c caseState) string {
	switch {
	case c.done() && c.err != nil:
		return m.styles.caseFailed.Render(fmt.Sprintf(caseFailedFormat, c.ch.Name()))
	case c.done():
		return m.styles.casePassed.Render(fmt.Sprintf(casePassedFormat, c.ch.Name()))
	case c.started:
		return m.styles.caseRunning.Render(fmt.Sprintf(caseRunningFormat, c.ch.Name()))
	default:
		return m.styles.caseWaiting.Render(fmt.Sprintf(caseWaitingFormat, c.ch.Name()))
	}
}

func (m model) View() string {
	if !m.ready {
		return "Initializing...\n"
	}

	if m.quitting && !m.finished {
		return "Interrupted.\n"
	}

	var b strings.Builder

	b.WriteString(m.styles.progress.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(m.progress())
	b.WriteString("\n")

	if m.finished {
		b.WriteString(m.styles.status.Render(footerDone))
	} else {
		b.WriteString(m.styles.status.Render(footerText))
	}
	b.WriteString("\n")

	return b.String()
}

func (m model) progress() string {
	completed, failed := m.completed(), m.failed()

	var b strings.Builder

	b.WriteString(m.styles.progress.Render(fmt.Sprintf(progressText, completed, len(m.cases), completed-failed, failed, m.elapsed())))
	b.WriteString("\n")

	barWidth := 50
	if m.width > 0 && m.width < 60 {
		barWidth = m.width - 10
	}

	b.WriteString(renderProgressBar(m.styles, completed, failed, len(m.cases), barWidth))
	b.WriteString(m.styles.progress.Render(fmt.Sprintf(" %d%%", completed*100/len(m.cases))))
	b.WriteString("\n")

	return b.String()
}

// print writes the final output to the terminal after the UI exits.
func (m model) print(cmd *cobra.Command) {
	completed, failed := m.completed(), m.failed()

	fmt.Fprintln(cmd.ErrOrStderr(), m.styles.progress.Render(m.title))
	fmt.Fprintln(cmd.ErrOrStderr(), m.styles.progress.Render(fmt.Sprintf(resultText, completed-failed, failed)))
	fmt.Fprintln(cmd.ErrOrStderr())

	fmt.Fprintln(cmd.OutOrStdout(), m.content())
}
