// Package utils provides command-line helpers shared by scriptcheck commands.
package utils

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ryclarke/scriptcheck/config"
)

// ValidateEnumConfig validates that a config value, when set, is one of the allowed choices.
func ValidateEnumConfig(ctx context.Context, key string, validChoices []string) error {
	viper := config.Viper(ctx)

	if value := viper.GetString(key); value != "" && !mapset.NewSet(validChoices...).Contains(value) {
		return fmt.Errorf("invalid %s: %q (expected one of %v)", key, value, validChoices)
	}

	return nil
}
