/*
Package cases loads declarative script test cases and runs them through the harness.

A case file is YAML:

	name: positive rows
	engine: jq
	script: |
	  A = load '$DATA_DIR/in.jsonl'
	  B = A | select(.[1] > $MIN)
	params: [MIN=0]
	fixtures:
	  data/in.jsonl: ['[1,2]', '[3,-4]']
	expect:
	  B: ['(1,2)']

Exactly one of script and script_file is required. Paths in script_file and
param_file are relative to the case file; fixture paths are relative to the sandbox.
*/
package cases

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure in Load.
var ErrInvalid = errors.New("invalid case")

// Case is a single script test.
type Case struct {
	Name       string              `yaml:"name"`
	Engine     string              `yaml:"engine,omitempty"`
	Script     string              `yaml:"script,omitempty"`
	ScriptFile string              `yaml:"script_file,omitempty"`
	Params     []string            `yaml:"params,omitempty"`
	ParamFile  string              `yaml:"param_file,omitempty"`
	Fixtures   map[string][]string `yaml:"fixtures,omitempty"`
	Expect     map[string][]string `yaml:"expect"`

	// Path is the absolute location of the case file.
	Path string `yaml:"-"`
}

// Load reads and validates a case file from the OS filesystem.
func Load(path string) (*Case, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads and validates a case file from fs.
func LoadFs(fs afero.Fs, path string) (*Case, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(fs, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	var c Case

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, abs, err)
	}

	c.Path = abs
	if c.Name == "" {
		c.Name = Stem(abs)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks the structural requirements of a case.
func (c *Case) Validate() error {
	switch {
	case c.Script == "" && c.ScriptFile == "":
		return fmt.Errorf("%w: %s: one of script or script_file is required", ErrInvalid, c.Name)
	case c.Script != "" && c.ScriptFile != "":
		return fmt.Errorf("%w: %s: script and script_file are mutually exclusive", ErrInvalid, c.Name)
	case len(c.Expect) == 0:
		return fmt.Errorf("%w: %s: at least one expectation is required", ErrInvalid, c.Name)
	}

	for name := range c.Fixtures {
		if filepath.IsAbs(name) {
			return fmt.Errorf("%w: %s: fixture path %s must be relative", ErrInvalid, c.Name, name)
		}
	}

	return nil
}

// Aliases returns the expected aliases in sorted order.
func (c *Case) Aliases() []string {
	aliases := make([]string, 0, len(c.Expect))
	for alias := range c.Expect {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)

	return aliases
}

// ScriptPath returns the absolute script_file location, or "" for an inline script.
func (c *Case) ScriptPath() string {
	if c.ScriptFile == "" {
		return ""
	}

	return c.relative(c.ScriptFile)
}

// Bindings returns the inline params followed by the param_file entries in sorted
// key order.
func (c *Case) Bindings(fs afero.Fs) ([]string, error) {
	params := slices.Clone(c.Params)

	if c.ParamFile == "" {
		return params, nil
	}

	f, err := fs.Open(c.relative(c.ParamFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read param file: %w", err)
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse param file %s: %w", c.ParamFile, err)
	}

	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		params = append(params, key+"="+env[key])
	}

	return params, nil
}

func (c *Case) relative(name string) string {
	if filepath.IsAbs(name) || c.Path == "" {
		return name
	}

	return filepath.Join(filepath.Dir(c.Path), name)
}

// Stem returns the case name derived from a file path.
func Stem(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".case.yaml", ".case.yml", ".yaml", ".yml"} {
		if trimmed, ok := strings.CutSuffix(base, ext); ok {
			return trimmed
		}
	}

	return base
}
