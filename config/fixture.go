package config

import (
	"context"
	"testing"
)

// LoadFixture loads the test configuration from the given directory into a fresh viper
// instance. The configPath parameter should be the relative path from the test file
// to the config directory (e.g., "../config", "../../config").
// The sandbox working directory is replaced with a temporary directory for test isolation.
func LoadFixture(t *testing.T, configPath string) context.Context {
	t.Helper()

	v := New()
	ctx := SetViper(context.Background(), v)

	v.SetConfigName("fixture")
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("Failed to load fixture config: %v", err)
	}

	v.Set(WorkDir, t.TempDir())
	v.Set(CasesWorkDir, t.TempDir())

	return ctx
}
