package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/entity"
	"github.com/jingkaihe/opencfg/pkg/logger"
	"github.com/jingkaihe/opencfg/pkg/presenter"
)

func init() {
	viper.SetEnvPrefix("OPENCFG")
	viper.AutomaticEnv()
	// The override layer keeps the upstream variable name
	_ = viper.BindEnv("override_config", config.OverrideEnvVar)

	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("output", "table")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.opencfg")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var tracingShutdown func(context.Context) error

var rootCmd = &cobra.Command{
	Use:   "opencfg",
	Short: "Inspect and edit opencode agent and command configuration",
	Long: `opencfg manages agents and commands that are configured either as Markdown
files with YAML frontmatter or as entries in layered opencode.json files.

Updates go to whichever record already holds each field, so editing through
opencfg never duplicates a setting across stores.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}
		if viper.GetBool("quiet") {
			presenter.SetQuiet(true)
		}

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			return err
		}
		tracingShutdown = shutdown
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().String("workdir", ".", "Project directory holding opencode.json and .opencode/")
	rootCmd.PersistentFlags().Bool("no-project", false, "Ignore the project directory and use user-level configuration only")
	rootCmd.PersistentFlags().String("config-dir", "", "User configuration directory (default ~/.config/opencode)")
	rootCmd.PersistentFlags().String("override-config", "", "Override JSON layer (default $"+config.OverrideEnvVar+")")
	rootCmd.PersistentFlags().StringP("output", "o", viper.GetString("output"), "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress informational messages")
	rootCmd.PersistentFlags().String("log-level", viper.GetString("log_level"), "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", viper.GetString("log_format"), "Log format (text, json)")

	viper.BindPFlag("workdir", rootCmd.PersistentFlags().Lookup("workdir"))
	viper.BindPFlag("no_project", rootCmd.PersistentFlags().Lookup("no-project"))
	viper.BindPFlag("config_dir", rootCmd.PersistentFlags().Lookup("config-dir"))
	viper.BindPFlag("override_config", rootCmd.PersistentFlags().Lookup("override-config"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(newEntityCmd(entity.Agent))
	rootCmd.AddCommand(newEntityCmd(entity.Command))
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if tracingShutdown != nil {
		if shutdownErr := tracingShutdown(context.Background()); shutdownErr != nil {
			logger.G(context.Background()).WithError(shutdownErr).Warn("failed to flush traces")
		}
	}

	if err != nil {
		presenter.Error(err, "")
		os.Exit(exitCode(err))
	}
}
