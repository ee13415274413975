package harness

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/afero"

	"github.com/ryclarke/scriptcheck/config"
)

var (
	// ErrNotFound is returned when no artifact matches where exactly one was required.
	ErrNotFound = errors.New("could not find artifact")
	// ErrAmbiguous is returned when more than one artifact matches.
	ErrAmbiguous = errors.New("found more artifacts than expected")
)

// AmbiguousError lists every artifact candidate found in Dir.
type AmbiguousError struct {
	Dir        string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%v in %s: %s", ErrAmbiguous, e.Dir, strings.Join(e.Candidates, ","))
}

func (e *AmbiguousError) Unwrap() error {
	return ErrAmbiguous
}

// DataPath returns the data.dir override if set, or <workDir>/data otherwise.
// The override is read on every call.
func (tc *TestContext) DataPath() string {
	if dir := config.Viper(tc.ctx).GetString(config.DataDir); dir != "" {
		return dir
	}

	return filepath.Join(tc.workDir, "data")
}

// ArtifactPath returns the absolute path of the single packaged artifact in the
// artifact.dir override, or <workDir>/build/libs by default. A file qualifies when
// its name matches artifact.pattern and contains none of the artifact.exclude tokens.
func (tc *TestContext) ArtifactPath() (string, error) {
	viper := config.Viper(tc.ctx)

	dir := viper.GetString(config.ArtifactDir)
	if dir == "" {
		dir = filepath.Join(tc.workDir, "build", "libs")
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("error determining absolute artifact directory: %w", err)
	}

	candidates, err := artifactCandidates(tc.fs, dir, viper.GetString(config.ArtifactPattern), viper.GetStringSlice(config.ArtifactExclude))
	if err != nil {
		return "", err
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
	case 1:
		return filepath.Join(dir, candidates[0]), nil
	default:
		return "", &AmbiguousError{Dir: dir, Candidates: candidates}
	}
}

// artifactCandidates returns the sorted names of qualifying files in dir. A missing
// or unreadable directory has no candidates.
func artifactCandidates(fs afero.Fs, dir, pattern string, exclude []string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid artifact pattern %q", pattern)
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, nil
	}

	excluded := mapset.NewSet(exclude...)
	candidates := make([]string, 0, 1)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if ok, _ := doublestar.Match(pattern, name); !ok || containsAny(name, excluded) {
			continue
		}

		candidates = append(candidates, name)
	}

	return candidates, nil
}

func containsAny(name string, tokens mapset.Set[string]) bool {
	found := false

	tokens.Each(func(token string) bool {
		found = token != "" && strings.Contains(name, token)
		return found
	})

	return found
}

// ResolveFile returns the absolute path of name joined to the working directory.
// Absolute names are returned cleaned.
func (tc *TestContext) ResolveFile(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}

	return filepath.Join(tc.workDir, name)
}
