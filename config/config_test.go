package config

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestNewDefaults(t *testing.T) {
	v := New()

	testCases := []struct {
		key      string
		expected any
	}{
		{TestDir, "build/test-files"},
		{ArtifactPattern, "*.jar"},
		{DefaultEngine, "jq"},
		{ShellDialect, "bash"},
		{CasesPattern, "**/*.case.yaml"},
		{LogLevel, "info"},
		{LogPretty, false},
		{SortCases, true},
		{ChannelBuffer, 100},
	}

	for _, tc := range testCases {
		if actual := v.Get(tc.key); actual != tc.expected {
			t.Errorf("Expected %s to be %v, got %v", tc.key, tc.expected, actual)
		}
	}

	exclude := v.GetStringSlice(ArtifactExclude)
	if len(exclude) != 2 || exclude[0] != "sources" || exclude[1] != "javadoc" {
		t.Errorf("Expected default artifact exclusions [sources javadoc], got %v", exclude)
	}

	if v.GetString(DataDir) != "" {
		t.Errorf("Expected no default data directory, got %q", v.GetString(DataDir))
	}

	if v.GetString(WorkDir) == "" {
		t.Error("Expected a default working directory")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	v := New()

	if got := v.GetString(DataDir); got != "" {
		t.Fatalf("Expected empty data dir before override, got %q", got)
	}

	// overrides are read at call time, so setting the env after New still applies
	t.Setenv("SCRIPTCHECK_DATA_DIR", "/tmp/fixtures")
	t.Setenv("SCRIPTCHECK_ARTIFACT_DIR", "/tmp/libs")
	t.Setenv("SCRIPTCHECK_RUN_MAX_CONCURRENCY", "3")

	if got := v.GetString(DataDir); got != "/tmp/fixtures" {
		t.Errorf("Expected data dir override, got %q", got)
	}

	if got := v.GetString(ArtifactDir); got != "/tmp/libs" {
		t.Errorf("Expected artifact dir override, got %q", got)
	}

	if got := v.GetInt(MaxConcurrency); got != 3 {
		t.Errorf("Expected max concurrency override, got %d", got)
	}
}

func TestViperContext(t *testing.T) {
	t.Run("returns stored instance", func(t *testing.T) {
		v := New()
		ctx := SetViper(context.Background(), v)

		if Viper(ctx) != v {
			t.Error("Expected Viper to return the stored instance")
		}
	})

	t.Run("falls back to global instance", func(t *testing.T) {
		if Viper(context.Background()) != viper.GetViper() {
			t.Error("Expected fallback to the global viper instance")
		}

		if Viper(SetViper(context.Background(), nil)) != viper.GetViper() {
			t.Error("Expected nil instance to be replaced by the global viper instance")
		}
	})
}

func TestChild(t *testing.T) {
	parent := New()
	parent.Set(DefaultEngine, "shell")
	ctx := SetViper(context.Background(), parent)

	child := Child(ctx)
	child.Set(SortCases, false)

	if child.GetString(DefaultEngine) != "shell" {
		t.Errorf("Expected child to inherit engine, got %q", child.GetString(DefaultEngine))
	}

	if !parent.GetBool(SortCases) {
		t.Error("Expected parent to be unaffected by child changes")
	}
}

func TestLoadFixture(t *testing.T) {
	ctx := LoadFixture(t, ".")
	v := Viper(ctx)

	if v.GetString(DefaultEngine) != "fake" {
		t.Errorf("Expected fixture engine 'fake', got %q", v.GetString(DefaultEngine))
	}

	if v.GetInt(ChannelBuffer) != 10 {
		t.Errorf("Expected fixture channel buffer 10, got %d", v.GetInt(ChannelBuffer))
	}

	if info, err := os.Stat(v.GetString(WorkDir)); err != nil || !info.IsDir() {
		t.Errorf("Expected fixture working directory to exist, got %q (%v)", v.GetString(WorkDir), err)
	}
}

func TestDescribe(t *testing.T) {
	ctx := SetViper(context.Background(), New())

	var buf bytes.Buffer
	Describe(ctx, &buf)

	if !strings.Contains(buf.String(), "engine.default = jq") {
		t.Errorf("Expected described settings to include the default engine, got:\n%s", buf.String())
	}
}
