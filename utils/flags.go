package utils

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/config"
)

// BoolFlagPair is a boolean setting exposed as `--name` plus a hidden `--no-name`.
type BoolFlagPair struct {
	Key   string // config key
	Name  string
	Short string
	Usage string
}

// NoName returns the name of the hidden inverted flag.
func (p BoolFlagPair) NoName() string {
	return "no-" + p.Name
}

// Build adds both flags to the persistent flags of cmd. The visible flag defaults
// to the config default for Key.
func (p BoolFlagPair) Build(cmd *cobra.Command) {
	def := config.New().GetBool(p.Key)

	cmd.PersistentFlags().BoolP(p.Name, p.Short, def, p.Usage)
	cmd.PersistentFlags().Bool(p.NoName(), false, "")
	cmd.PersistentFlags().MarkHidden(p.NoName())
}

// Bind binds the pair to the viper instance in the command context. An explicit
// `--no-name` wins over the config value.
func (p BoolFlagPair) Bind(cmd *cobra.Command) error {
	viper := config.Viper(cmd.Context())

	if err := CheckMutuallyExclusiveFlags(cmd, p.Name, p.NoName()); err != nil {
		return err
	}

	if flag := cmd.Flags().Lookup(p.Name); flag != nil {
		viper.BindPFlag(p.Key, flag)
	}

	if cmd.Flags().Changed(p.NoName()) {
		no, err := cmd.Flags().GetBool(p.NoName())
		if err != nil {
			return err
		}

		viper.Set(p.Key, !no)
	}

	return nil
}

// CheckMutuallyExclusiveFlags returns an error if more than one of the named flags is
// explicitly set.
func CheckMutuallyExclusiveFlags(cmd *cobra.Command, flags ...string) error {
	var set []string

	for _, name := range flags {
		if cmd.Flags().Changed(name) {
			set = append(set, "--"+name)
		}
	}

	if len(set) > 1 {
		return fmt.Errorf("mutually exclusive flags cannot be used together: %s", strings.Join(set, ", "))
	}

	return nil
}
