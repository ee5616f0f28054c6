// Package backup runs the upload pipeline: for each technology it selects
// the files inside the lookback window, uploads them under their object key,
// applies the retention policy and records every outcome in the run report.
//
// The run is strictly sequential. A fixed delay follows every upload attempt.
// Per-file and per-technology failures end up in the report; only the bucket
// preflight stops the run before any upload.
package backup

import (
	"context"
	"time"

	"github.com/Sayam753/SendToS3/internal/logger"
	"github.com/Sayam753/SendToS3/internal/metrics"
	"github.com/Sayam753/SendToS3/internal/objectkey"
	"github.com/Sayam753/SendToS3/internal/report"
	"github.com/Sayam753/SendToS3/internal/retention"
	"github.com/Sayam753/SendToS3/internal/selector"
	"github.com/Sayam753/SendToS3/internal/storage"
)

// Runner executes backup runs.
type Runner struct {
	params   Params
	uploader *storage.Uploader
	enforcer *retention.Enforcer
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the clock used for the lookback window.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithSleep overrides the delay between uploads.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithEnforcer overrides the retention enforcer.
func WithEnforcer(e *retention.Enforcer) Option {
	return func(r *Runner) { r.enforcer = e }
}

// WithMetrics records every outcome into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner for params.
func NewRunner(params Params, uploader *storage.Uploader, log *logger.Logger, opts ...Option) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	r := &Runner{
		params:   params,
		uploader: uploader,
		logger:   log,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.enforcer == nil {
		r.enforcer = retention.NewEnforcer(log)
	}
	return r
}

// NewReport starts an empty report for the runner's parameters.
func (r *Runner) NewReport() *report.Report {
	return report.New(r.params.Site, r.params.Hostname, r.params.Bucket, r.now())
}

// Run executes one backup run and returns its report. When rep is nil a new
// report is started. The report is not finalized.
func (r *Runner) Run(ctx context.Context, rep *report.Report) *report.Report {
	if rep == nil {
		rep = r.NewReport()
	}
	for _, t := range r.params.Technologies {
		rep.BeginTechnology(t.Name, t.Path, t.Policy.Action)
	}

	r.logger.InfoCtx(ctx, "Starting backup",
		logger.Field{Key: "run_id", Value: rep.ID},
		logger.Field{Key: "site", Value: r.params.Site},
		logger.Field{Key: "hostname", Value: r.params.Hostname},
		logger.Field{Key: "bucket", Value: r.params.Bucket})

	if err := r.uploader.CheckBucket(ctx, r.params.Bucket); err != nil {
		r.logger.ErrorCtx(ctx, "Bucket check failed, nothing uploaded", err,
			logger.Field{Key: "bucket", Value: r.params.Bucket})
		rep.Abort(err)
		return rep
	}

	for _, t := range r.params.Technologies {
		if err := ctx.Err(); err != nil {
			r.interrupted(rep, err)
			break
		}
		if err := r.runTechnology(ctx, rep, t); err != nil {
			r.interrupted(rep, err)
			break
		}
	}

	c := rep.Counts()
	r.logger.InfoCtx(ctx, "Backup finished",
		logger.Field{Key: "run_id", Value: rep.ID},
		logger.Field{Key: "uploaded", Value: c.Success},
		logger.Field{Key: "failed", Value: c.Failure},
		logger.Field{Key: "deleted", Value: c.Deleted})
	return rep
}

// runTechnology processes one directory. It returns an error only when the
// run was interrupted mid-way.
func (r *Runner) runTechnology(ctx context.Context, rep *report.Report, t Technology) error {
	log := r.logger.With(logger.Field{Key: "technology", Value: t.Name})

	seq, err := selector.Select(t.Path, t.Pattern, t.Policy.LookbackDays, r.now())
	if err != nil {
		log.Error("Unable to read backup directory, technology skipped", err,
			logger.Field{Key: "path", Value: t.Path})
		rep.Skip(t.Name, err)
		return nil
	}

	log.Info("Scanning directory",
		logger.Field{Key: "path", Value: t.Path},
		logger.Field{Key: "pattern", Value: t.Pattern.String()},
		logger.Field{Key: "lookback_days", Value: t.Policy.LookbackDays})

	for c, err := range seq {
		if err != nil {
			log.Warn("Skipping entry", logger.Field{Key: "error", Value: err})
			rep.NoteError(t.Name, report.LevelWarn, err)
			continue
		}

		outcome, err := r.process(ctx, c, t)
		rep.Record(outcome)
		if r.metrics != nil {
			r.metrics.ObserveOutcome(outcome)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// process uploads one candidate and enforces the policy. The error is set
// only when the delay after the upload was interrupted.
func (r *Runner) process(ctx context.Context, c selector.Candidate, t Technology) (retention.Outcome, error) {
	key, err := objectkey.Build(r.params.Site, t.Name, r.params.Hostname, c.ModifiedAt, c.Name)
	if err != nil {
		outcome := retention.Outcome{
			LocalPath:  c.Path,
			Technology: t.Name,
			Size:       c.Size,
			Status:     retention.StatusFailure,
		}
		outcome.AddDetail(err)
		r.logger.Error("Unable to build object key", err, logger.Field{Key: "file", Value: c.Name})
		return outcome, nil
	}

	outcome := r.uploader.Upload(ctx, c, t.Name, r.params.Bucket, key)
	sleepErr := r.sleep(ctx, r.params.Sleep)

	return r.enforcer.Enforce(outcome, t.Policy), sleepErr
}

func (r *Runner) interrupted(rep *report.Report, err error) {
	r.logger.Warn("Run interrupted", logger.Field{Key: "error", Value: err})
	rep.Note("", report.LevelWarn, "run interrupted before all technologies were processed: "+err.Error())
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
