package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sayam753/SendToS3/internal/constants"
	"github.com/Sayam753/SendToS3/internal/cron"
)

var cronBinary string

// cronCmd represents the cron command
var cronCmd = &cobra.Command{
	Use:   "cron [schedule]",
	Short: "Print the crontab entry for the backup job",
	Long: `Print the crontab line that runs the backup with the current --config,
plus the next few activation times. The default schedule is every night at 23:45.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		schedule := constants.CronDefaultSchedule
		if len(args) > 0 {
			schedule = args[0]
		}
		if err := printCron(cmd.OutOrStdout(), schedule, cronBinary, configPath, time.Now()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func printCron(w io.Writer, schedule, binary, config string, from time.Time) error {
	if binary == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to resolve executable path: %w", err)
		}
		binary = exe
	}
	if abs, err := filepath.Abs(config); err == nil {
		config = abs
	}

	line, err := cron.CrontabLine(schedule, binary, config)
	if err != nil {
		return err
	}
	runs, err := cron.NextRuns(schedule, from, constants.CronPreviewRuns)
	if err != nil {
		return err
	}

	fmt.Fprint(w, constants.MsgCronHeader)
	fmt.Fprintln(w, line)
	fmt.Fprint(w, constants.MsgCronNextRuns)
	for _, r := range runs {
		fmt.Fprintf(w, constants.MsgCronRun, r.Format(time.RFC1123))
	}
	return nil
}

func init() {
	cronCmd.Flags().StringVar(&cronBinary, "binary", "", "Path of the sendtos3 binary in the crontab line (default: current executable)")
}
