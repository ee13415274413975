package output

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	testutil "github.com/ryclarke/scriptcheck/utils/testing"
)

func sizedModel(t *testing.T, names ...string) model {
	t.Helper()

	cmd, _ := makeTestCommand(t)

	channels := make([]Channel, len(names))
	for i, name := range names {
		channels[i] = newTestChannel(name, nil, nil)
	}

	m := newModel(cmd, channels, func() {})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	return updated.(model)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()

	updated, cmd := m.Update(msg)
	return updated.(model), cmd
}

func TestModelLifecycle(t *testing.T) {
	m := sizedModel(t, "a", "b")

	testutil.AssertContains(t, m.header(m.cases[0]), "⏸ a")

	m, _ = update(t, m, outputMsg{index: 0, data: []byte("(1,2)\n")})
	testutil.AssertContains(t, m.header(m.cases[0]), "▶ a")
	testutil.AssertContains(t, m.content(), "(1,2)")

	m, _ = update(t, m, closedMsg{index: 0, output: true})
	m, _ = update(t, m, closedMsg{index: 0})
	testutil.AssertContains(t, m.header(m.cases[0]), "✓ a")
	testutil.AssertEqual(t, m.completed(), 1)

	m, _ = update(t, m, errorMsg{index: 1, err: errors.New("Mismatch in B")})
	m, _ = update(t, m, closedMsg{index: 1, output: true})
	m, cmd := update(t, m, closedMsg{index: 1})

	testutil.AssertContains(t, m.header(m.cases[1]), "✗ b")
	testutil.AssertContains(t, m.content(), "ERROR: Mismatch in B")
	testutil.AssertEqual(t, m.failed(), 1)

	if !m.finished || !m.quitting || cmd == nil {
		t.Error("Expected the UI to quit once every case finished")
	}
}

func TestModelKeys(t *testing.T) {
	m := sizedModel(t, "a")

	// quit keys are ignored while cases run
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if m.quitting {
		t.Error("Expected q to be ignored before completion")
	}

	m.finished = true
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if !m.quitting || !m.printOutput {
		t.Error("Expected p to print and quit after completion")
	}

	cancelled := false
	m = sizedModel(t, "a")
	m.cancel = func() { cancelled = true }
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled || !m.quitting {
		t.Error("Expected ctrl+c to cancel and quit")
	}
	testutil.AssertEqual(t, m.View(), "Interrupted.\n")
}

func TestRenderProgressBar(t *testing.T) {
	styles := newOutputStyles(80)

	tests := []struct {
		name                     string
		completed, failed, total int
		wantPassed, wantFailed   int
	}{
		{"empty", 0, 0, 4, 0, 0},
		{"half passed", 2, 0, 4, 20, 0},
		{"mixed", 4, 1, 4, 30, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgressBar(styles, tt.completed, tt.failed, tt.total, 40)

			// lipgloss renders without color codes when not attached to a terminal
			if got := countRune(bar, '█'); got != tt.wantPassed+tt.wantFailed {
				t.Errorf("Expected %d filled cells, got %d", tt.wantPassed+tt.wantFailed, got)
			}
			if got := countRune(bar, '░'); got != 40-tt.wantPassed-tt.wantFailed {
				t.Errorf("Expected %d pending cells, got %d", 40-tt.wantPassed-tt.wantFailed, got)
			}
		})
	}
}

func countRune(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}

	return n
}
