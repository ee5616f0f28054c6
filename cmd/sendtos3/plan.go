package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sayam753/SendToS3/internal/backup"
	"github.com/Sayam753/SendToS3/internal/constants"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the files the next run would upload",
	Long: `List, per technology, the files inside the lookback window and the
object keys they would be uploaded to. Nothing is uploaded or deleted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runPlan(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr()))
	},
}

func runPlan(ctx context.Context, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, code := loadConfig(stderr, configPath)
	if code != 0 {
		return code
	}

	params, err := backup.ParamsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(stderr, constants.MsgConfigLoadError, err)
		return 1
	}

	plans := backup.NewRunner(params, nil, nil).Plan(ctx)
	printPlan(stdout, cfg.Bucket, plans)
	return 0
}

func printPlan(w io.Writer, bucket string, plans []backup.PlannedTechnology) {
	fmt.Fprintf(w, constants.MsgPlanHeader, bucket)

	for _, p := range plans {
		t := p.Technology
		fmt.Fprintf(w, constants.MsgPlanTechnology, t.Name, t.Path, p.Prefix, t.Policy.LookbackDays, t.Policy.Action)
		if !p.Cutoff.IsZero() {
			fmt.Fprintf(w, constants.MsgPlanCutoff, p.Cutoff.Format(time.RFC3339))
		}

		if p.Err != nil {
			fmt.Fprintf(w, constants.MsgPlanSkipped, p.Err)
			continue
		}
		if len(p.Files) == 0 {
			fmt.Fprint(w, constants.MsgPlanNone)
		}
		for _, f := range p.Files {
			fmt.Fprintf(w, constants.MsgPlanFile, f.Candidate.Name, f.Key)
		}
		for _, err := range p.Errors {
			fmt.Fprintf(w, constants.MsgPlanSkipped, err)
		}
	}

	fmt.Fprintf(w, constants.MsgPlanTotal, backup.Count(plans))
}
