package harness

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// WriteLines replaces the file at path with lines, each followed by a newline.
// Missing parent directories are created.
func (tc *TestContext) WriteLines(path string, lines ...string) error {
	path = tc.ResolveFile(path)

	if err := tc.DeleteIfExists(path); err != nil {
		return err
	}

	if err := tc.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := tc.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}

// ReadLines returns the lines of the file at path without their line endings.
// Lines have no length limit.
func (tc *TestContext) ReadLines(path string) ([]string, error) {
	path = tc.ResolveFile(path)

	f, err := tc.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	var lines []string

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}

		if errors.Is(err, io.EOF) {
			return lines, nil
		} else if err != nil {
			return lines, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
}

// DeleteIfExists removes the file at path, ignoring a missing file.
func (tc *TestContext) DeleteIfExists(path string) error {
	path = tc.ResolveFile(path)

	exists, err := afero.Exists(tc.fs, path)
	if err != nil || !exists {
		return err
	}

	if err := tc.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}

	return nil
}
