package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sayam753/SendToS3/internal/constants"
	"github.com/Sayam753/SendToS3/internal/logger"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate SendToS3 configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file and check for errors without touching S3 or the backup directories.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}
		os.Exit(validateConfig(cmd, path))
	},
}

func validateConfig(cmd *cobra.Command, path string) int {
	cfg, code := loadConfig(cmd.ErrOrStderr(), path)
	if code != 0 {
		return code
	}

	fmt.Fprintln(cmd.OutOrStdout(), constants.MsgConfigValid)
	for _, f := range append([]logger.Field{{Key: "config", Value: path}}, cfg.Summary()...) {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", f.Key, f.Value)
	}
	return 0
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
