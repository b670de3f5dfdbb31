// Command adbond runs the AdBond marketplace backend: the REST API, the
// community chat WebSocket and the embedded frontend.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vignesh0909/adbond.net-sub002/config"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
)

var mainLog = logger.Component("main")

var rootCmd = &cobra.Command{
	Use:           "adbond",
	Short:         "AdBond affiliate marketplace server",
	SilenceUsage:  true,
	SilenceErrors: true,
	// No subcommand means serve.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant the admin role to an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPromote(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, promoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		mainLog.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadConfig reads the config and configures logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}
