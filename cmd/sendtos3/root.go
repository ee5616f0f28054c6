package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sayam753/SendToS3/internal/config"
	"github.com/Sayam753/SendToS3/internal/constants"
)

var (
	configPath string
	envPath    string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   constants.AppName,
	Short: "SendToS3 - upload recent backup files to S3",
	Long: `SendToS3 scans the configured backup directories, uploads every file
modified within the lookback window to an S3 bucket under
SITE/TECHNOLOGY/HOSTNAME/YYYY/MM/<filename>, applies the per-technology
retention policy and emails a run report. It is meant to be run from cron.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigPath, "Path to configuration file (TOML or YAML)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", constants.DefaultEnvPath, "Path to optional .env file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(cronCmd)
}

// loadConfig загружает .env и конфигурацию, печатая ошибки в w.
// Возвращает код выхода 1 при любой ошибке конфигурации.
func loadConfig(w io.Writer, path string) (*config.Config, int) {
	if err := config.LoadEnvOptional(envPath); err != nil {
		fmt.Fprintf(w, constants.MsgEnvLoadError, err)
		return nil, 1
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(w, constants.MsgConfigLoadError, err)
		return nil, 1
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprint(w, constants.MsgConfigValidationError)
		for _, e := range errs {
			fmt.Fprintf(w, constants.MsgConfigValidatePrefix, e)
		}
		return nil, 1
	}

	if debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, 0
}
