package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/cmd/run"
	"github.com/ryclarke/scriptcheck/config"
	"github.com/ryclarke/scriptcheck/logging"
	"github.com/ryclarke/scriptcheck/output"
	"github.com/ryclarke/scriptcheck/utils"

	// Register the script engines
	_ "github.com/ryclarke/scriptcheck/engine/fake"
	_ "github.com/ryclarke/scriptcheck/engine/jq"
	_ "github.com/ryclarke/scriptcheck/engine/shell"
)

const (
	configFlag         = "config"
	syncFlag           = "sync"
	maxConcurrencyFlag = "max-concurrency"
	outputHandlerFlag  = "style"
	logLevelFlag       = "log-level"
	workDirFlag        = "workdir"
	dataDirFlag        = "data-dir"
	artifactDirFlag    = "artifact-dir"
	engineFlag         = "engine"
)

var sortFlags = utils.BoolFlagPair{
	Key:   config.SortCases,
	Name:  "sort",
	Usage: "sort the provided cases",
}

// RootCmd configures the top-level root command along with all subcommands and flags
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scriptcheck",
		Short: "Fixture-driven test runner for data pipeline scripts",
		Long: `Fixture-driven test runner for data pipeline scripts

scriptcheck runs declarative test cases against a script engine. Each case writes
its fixtures into a sandbox, substitutes named parameters into a script, runs it
and compares the records of the named aliases with the expected values.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			viper := config.Viper(ctx)

			viper.BindPFlag(config.MaxConcurrency, cmd.Flags().Lookup(maxConcurrencyFlag))
			viper.BindPFlag(config.OutputStyle, cmd.Flags().Lookup(outputHandlerFlag))
			viper.BindPFlag(config.LogLevel, cmd.Flags().Lookup(logLevelFlag))
			viper.BindPFlag(config.WorkDir, cmd.Flags().Lookup(workDirFlag))
			viper.BindPFlag(config.DataDir, cmd.Flags().Lookup(dataDirFlag))
			viper.BindPFlag(config.ArtifactDir, cmd.Flags().Lookup(artifactDirFlag))
			viper.BindPFlag(config.DefaultEngine, cmd.Flags().Lookup(engineFlag))

			if err := sortFlags.Bind(cmd); err != nil {
				return err
			}

			if err := utils.ValidateEnumConfig(ctx, config.OutputStyle, output.AvailableStyles); err != nil {
				return err
			}

			// Allow the `--sync` flag to override max-concurrency to 1
			if sync, _ := cmd.Flags().GetBool(syncFlag); sync {
				viper.Set(config.MaxConcurrency, 1)
			}

			logging.Init(logging.FromContext(ctx))

			return nil
		},
		SilenceUsage: true,
		Version:      config.Version,
	}

	rootCmd.AddCommand(
		run.Cmd(),
		renderCmd(),
		pathsCmd(),
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration",
			Run: func(cmd *cobra.Command, _ []string) {
				config.Describe(cmd.Context(), cmd.OutOrStdout())
			},
		},
	)

	rootCmd.PersistentFlags().StringVar(&config.CfgFile, configFlag, "", "config file (default is scriptcheck.yaml)")
	rootCmd.PersistentFlags().StringP(outputHandlerFlag, "o", "", fmt.Sprintf("output format style: \"%v\" (default: tui on a terminal)", strings.Join(output.AvailableStyles, "\", \"")))
	rootCmd.PersistentFlags().String(logLevelFlag, "info", "log level: debug, info, warn or error")

	rootCmd.PersistentFlags().Bool(syncFlag, false, "run cases one at a time (alias for --max-concurrency=1)")
	rootCmd.PersistentFlags().Int(maxConcurrencyFlag, runtime.NumCPU(), "maximum number of concurrent cases")
	sortFlags.Build(rootCmd)

	rootCmd.PersistentFlags().String(workDirFlag, "", "working directory for the sandbox and default paths")
	rootCmd.PersistentFlags().String(dataDirFlag, "", "override the data directory (env SCRIPTCHECK_DATA_DIR)")
	rootCmd.PersistentFlags().String(artifactDirFlag, "", "override the artifact directory (env SCRIPTCHECK_ARTIFACT_DIR)")
	rootCmd.PersistentFlags().String(engineFlag, "", "script engine for cases that don't name one")

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	ctx := config.Init(context.Background())

	if err := RootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
