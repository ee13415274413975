// Package config provides the configuration keys, defaults and viper handling for scriptcheck.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	CfgFile string

	// Version is dynamically set at build time using the -X linker flag.
	// Default value is used for testing and development builds.
	Version = "dev"
)

// EnvPrefix is prepended to every environment override (e.g. SCRIPTCHECK_DATA_DIR).
const EnvPrefix = "scriptcheck"

const (
	WorkDir = "sandbox.workdir"
	TestDir = "sandbox.test-dir"

	DataDir         = "data.dir"
	ArtifactDir     = "artifact.dir"
	ArtifactPattern = "artifact.pattern"
	ArtifactExclude = "artifact.exclude"

	DefaultEngine = "engine.default"
	ShellDialect  = "engine.shell.dialect"
	ShellEnv      = "engine.shell.env"

	CasesPattern = "cases.pattern"
	CasesWorkDir = "cases.workdir"

	LogLevel  = "log.level"
	LogPretty = "log.pretty"

	MaxConcurrency = "run.max-concurrency"
	SortCases      = "run.sort"
	WatchCases     = "run.watch"
	WatchDelay     = "run.watch-delay"

	OutputStyle   = "output.style"
	PrintResults  = "output.print-results"
	WaitOnExit    = "output.wait-on-exit"
	ChannelBuffer = "channels.buffer-size"
)

type contextKey struct{ key string }

var configKey = &contextKey{"viper"}

// Init creates the root viper instance, reads in the config file if present and
// saves the instance into the returned context.
func Init(ctx context.Context) context.Context {
	v := New()

	if CfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(CfgFile)
	} else {
		v.SetConfigName("scriptcheck")

		// Search in the working directory
		v.AddConfigPath(".")

		// Search in the user's config directory
		if usrConfig, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(usrConfig, "scriptcheck"))
		}

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "scriptcheck"))
		}
	}

	// If a config file is found, read it in.
	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %v\n\n", v.ConfigFileUsed())
	}

	return SetViper(ctx, v)
}

// New creates a new Viper instance with default configuration.
func New() *viper.Viper {
	v := viper.NewWithOptions(viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv() // overrides are looked up on every Get

	setDefaults(v)

	return v
}

// Child creates a new Viper instance that inherits all settings from the parent context.
func Child(ctx context.Context) *viper.Viper {
	v := New()

	for key, value := range Viper(ctx).AllSettings() {
		v.Set(key, value)
	}

	return v
}

// SetViper saves the Viper instance into the context.
func SetViper(ctx context.Context, v *viper.Viper) context.Context {
	if v == nil {
		v = viper.GetViper()
	}

	return context.WithValue(ctx, configKey, v)
}

// Viper retrieves the Viper instance from the context, falling back to the global instance.
func Viper(ctx context.Context) *viper.Viper {
	if v, ok := ctx.Value(configKey).(*viper.Viper); ok {
		return v
	}

	return viper.GetViper()
}

// Describe writes the effective settings for every known key, for debugging overrides.
func Describe(ctx context.Context, w io.Writer) {
	v := Viper(ctx)

	keys := v.AllKeys()
	slices.Sort(keys)

	for _, key := range keys {
		fmt.Fprintf(w, "%s = %v\n", key, v.Get(key))
	}
}

func setDefaults(v *viper.Viper) {
	// data.dir and artifact.dir have no default: an unset value means "derive from the working directory"
	v.SetDefault(WorkDir, defaultWorkDir())
	v.SetDefault(TestDir, filepath.Join("build", "test-files"))

	v.SetDefault(ArtifactPattern, "*.jar")
	v.SetDefault(ArtifactExclude, []string{"sources", "javadoc"})

	v.SetDefault(DefaultEngine, "jq")
	v.SetDefault(ShellDialect, "bash")
	v.SetDefault(ShellEnv, []string{})

	v.SetDefault(CasesPattern, "**/*.case.yaml")
	v.SetDefault(CasesWorkDir, os.TempDir())

	v.SetDefault(LogLevel, "info")
	v.SetDefault(LogPretty, false)

	v.SetDefault(MaxConcurrency, runtime.NumCPU())
	v.SetDefault(SortCases, true)
	v.SetDefault(WatchCases, false)
	v.SetDefault(WatchDelay, 200*time.Millisecond)

	v.SetDefault(OutputStyle, "")
	v.SetDefault(PrintResults, false)
	v.SetDefault(WaitOnExit, false)
	v.SetDefault(ChannelBuffer, 100)
}

func defaultWorkDir() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to determine current working directory: %v", err))
	}

	return dir
}
