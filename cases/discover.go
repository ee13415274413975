package cases

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/afero"

	"github.com/ryclarke/scriptcheck/config"
)

// Discover expands the given files and directories into case file paths. Directories
// are searched with the cases.pattern glob. Duplicates are dropped and argument order
// is kept.
func Discover(ctx context.Context, fs afero.Fs, args ...string) ([]string, error) {
	pattern := config.Viper(ctx).GetString(config.CasesPattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid cases pattern %q", pattern)
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	paths := make([]string, 0, len(args))

	add := func(path string) {
		if seen.Add(path) {
			paths = append(paths, path)
		}
	}

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}

		info, err := fs.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to find cases: %w", err)
		}

		if !info.IsDir() {
			add(abs)
			continue
		}

		matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, abs)), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to search %s: %w", arg, err)
		}

		for _, match := range matches {
			add(filepath.Join(abs, filepath.FromSlash(match)))
		}
	}

	return paths, nil
}
