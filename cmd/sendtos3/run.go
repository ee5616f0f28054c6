package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sayam753/SendToS3/internal/backup"
	"github.com/Sayam753/SendToS3/internal/config"
	"github.com/Sayam753/SendToS3/internal/constants"
	"github.com/Sayam753/SendToS3/internal/logger"
	"github.com/Sayam753/SendToS3/internal/mailer"
	"github.com/Sayam753/SendToS3/internal/metrics"
	"github.com/Sayam753/SendToS3/internal/report"
	"github.com/Sayam753/SendToS3/internal/storage"
	"github.com/Sayam753/SendToS3/internal/version"
)

// Подменяются в тестах
var (
	newStore = func(ctx context.Context, cfg storage.S3Config) (storage.ObjectStore, error) {
		store, err := storage.NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	newSender = func(cfg mailer.Config) report.Sender {
		return mailer.New(cfg)
	}
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload recent backups and email the report",
	Long: `Run one backup pass: upload every file inside the lookback window of each
technology, apply the retention policy, email the report and write metrics.
The exit status is 0 when the run completed, even if some files failed, and
1 when the configuration is invalid.`,
	Args: cobra.NoArgs,
	Run:  runHandler,
}

func runHandler(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(runBackup(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr()))
}

func runBackup(ctx context.Context, stdout, stderr io.Writer) int {
	cfg, code := loadConfig(stderr, configPath)
	if code != 0 {
		return code
	}

	params, err := backup.ParamsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(stderr, constants.MsgConfigLoadError, err)
		return 1
	}

	rep := report.New(cfg.Site, cfg.Hostname, cfg.Bucket, time.Now())

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		Tee:    rep.LogWriter(),
	})
	if err != nil {
		fmt.Fprintf(stderr, constants.MsgConfigLoadError, err)
		return 1
	}
	logger.SetDefault(log)

	log.Info("Starting SendToS3", append([]logger.Field{
		{Key: "version", Value: version.Version},
		{Key: "git_commit", Value: version.GitCommit},
		{Key: "config", Value: configPath},
	}, cfg.Summary()...)...)

	m := metrics.New(cfg.Metrics.Namespace)

	store, err := newStore(ctx, storage.S3Config{
		Region:    cfg.S3.Region,
		Profile:   cfg.S3.Profile,
		Endpoint:  cfg.S3.Endpoint,
		PathStyle: cfg.S3.PathStyle,
		AppID:     version.UserAgent(),
	})
	if err != nil {
		log.Error("Unable to initialize S3 client", err)
		rep.Abort(err)
	} else {
		runner := backup.NewRunner(params, storage.NewUploader(store, log), log, backup.WithMetrics(m))
		runner.Run(ctx, rep)
	}

	text := rep.Finalize(time.Now())

	sender := newSender(mailConfig(cfg))
	// Отчёт отправляется даже после SIGINT/SIGTERM
	_ = report.Send(context.WithoutCancel(ctx), sender, rep, text, cfg.Mail.To, stdout, log)

	m.ObserveRun(rep)
	if cfg.Metrics.TextfilePath != "" {
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			log.Error("Unable to write metrics textfile", err,
				logger.Field{Key: "path", Value: cfg.Metrics.TextfilePath})
		}
	}

	c := rep.Counts()
	fmt.Fprintf(stdout, constants.MsgRunFinished, rep.ID, c.Success, c.Failure, c.Deleted)
	return 0
}

func mailConfig(cfg *config.Config) mailer.Config {
	return mailer.Config{
		Host:     cfg.Mail.Server,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.From,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		TLS:      cfg.Mail.TLS,
	}
}
