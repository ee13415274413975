package utils

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ryclarke/scriptcheck/config"
)

// Env constructs the environment for script interpreters. It starts from the process
// environment and appends each engine.shell.env entry, which is either:
// - a key=value pair (used as-is)
// - a path to a .env file (all of its values are added in sorted key order)
// If a file cannot be read, an error is returned.
func Env(ctx context.Context) ([]string, error) {
	env := os.Environ()

	for _, entry := range config.Viper(ctx).GetStringSlice(config.ShellEnv) {
		if strings.Contains(entry, "=") {
			env = append(env, entry)
			continue
		}

		fileEnv, err := readEnvFile(entry)
		if err != nil {
			return nil, err
		}

		env = append(env, fileEnv...)
	}

	return env, nil
}

func readEnvFile(path string) ([]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read envfile %q: %w", path, err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+values[key])
	}

	return env, nil
}
