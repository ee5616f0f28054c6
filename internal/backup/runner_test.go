package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sayam753/SendToS3/internal/apperr"
	"github.com/Sayam753/SendToS3/internal/config"
	"github.com/Sayam753/SendToS3/internal/logger"
	"github.com/Sayam753/SendToS3/internal/metrics"
	"github.com/Sayam753/SendToS3/internal/report"
	"github.com/Sayam753/SendToS3/internal/retention"
	"github.com/Sayam753/SendToS3/internal/selector"
	"github.com/Sayam753/SendToS3/internal/storage"
)

var now = time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	puts    []string
	failKey map[string]bool
	headErr error
}

func (f *fakeStore) PutObject(_ context.Context, _, key string, body io.Reader, _ string) error {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	if f.failKey[key] {
		return apperr.Transfer("put %s: %w", key, errors.New("connection reset by peer"))
	}
	f.puts = append(f.puts, key)
	return nil
}

func (f *fakeStore) HeadBucket(context.Context, string) error {
	return f.headErr
}

func touch(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("payload of "+name), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func technology(t *testing.T, name, dir, pattern string, days int, action retention.Action) Technology {
	t.Helper()
	p, err := selector.CompilePattern(pattern)
	require.NoError(t, err)
	return Technology{
		Name:    name,
		Path:    dir,
		Pattern: p,
		Policy:  retention.Policy{Technology: name, LookbackDays: days, Action: action},
	}
}

type sleepRecorder struct {
	calls int
	err   error
}

func (s *sleepRecorder) sleep(context.Context, time.Duration) error {
	s.calls++
	return s.err
}

func newRunner(store *fakeStore, sleeper *sleepRecorder, techs ...Technology) *Runner {
	params := Params{
		Site:         "acme",
		Hostname:     "web01",
		Bucket:       "acme-backups",
		Sleep:        5 * time.Second,
		Technologies: techs,
	}
	return NewRunner(params, storage.NewUploader(store, nil), nil,
		WithClock(func() time.Time { return now }),
		WithSleep(sleeper.sleep))
}

func TestRun_DeleteScenario(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "access.log", now.Add(-7*retention.Day))

	store := &fakeStore{}
	sleeper := &sleepRecorder{}
	r := newRunner(store, sleeper, technology(t, "nginx", dir, `^access\.log$`, 7, retention.ActionDelete))

	rep := r.Run(context.Background(), nil)

	outcomes := rep.Outcomes()
	require.Len(t, outcomes, 1)
	o := outcomes[0]
	assert.Equal(t, "acme/nginx/web01/2024/03/access.log", o.RemoteKey)
	assert.Equal(t, retention.StatusSuccess, o.Status)
	assert.True(t, o.DeletedLocally)
	assert.Equal(t, []string{"acme/nginx/web01/2024/03/access.log"}, store.puts)
	assert.NoFileExists(t, path)
	assert.Equal(t, 1, sleeper.calls)
}

func TestRun_KeepScenario(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "access.log", now.Add(-7*retention.Day))

	store := &fakeStore{}
	r := newRunner(store, &sleepRecorder{}, technology(t, "nginx", dir, `^access\.log$`, 7, retention.ActionKeep))

	rep := r.Run(context.Background(), nil)

	require.Len(t, rep.Outcomes(), 1)
	assert.Equal(t, retention.StatusSuccess, rep.Outcomes()[0].Status)
	assert.False(t, rep.Outcomes()[0].DeletedLocally)
	assert.FileExists(t, path)
}

func TestRun_UploadFailureContinues(t *testing.T) {
	nginxDir := t.TempDir()
	pgDir := t.TempDir()
	failed := touch(t, nginxDir, "a.log", now.Add(-time.Hour))
	touch(t, nginxDir, "b.log", now.Add(-2*time.Hour))
	touch(t, pgDir, "pg.dump", now.Add(-3*time.Hour))

	store := &fakeStore{failKey: map[string]bool{"acme/nginx/web01/2024/03/a.log": true}}
	sleeper := &sleepRecorder{}
	r := newRunner(store, sleeper,
		technology(t, "nginx", nginxDir, `\.log$`, 7, retention.ActionDelete),
		technology(t, "postgres", pgDir, `\.dump$`, 7, retention.ActionDelete))

	rep := r.Run(context.Background(), nil)

	byFile := map[string]retention.Outcome{}
	for _, o := range rep.Outcomes() {
		byFile[filepath.Base(o.LocalPath)] = o
	}
	require.Len(t, byFile, 3)

	bad := byFile["a.log"]
	assert.Equal(t, retention.StatusFailure, bad.Status)
	assert.False(t, bad.DeletedLocally)
	assert.Contains(t, bad.ErrorDetail, "connection reset by peer")
	assert.FileExists(t, failed)

	assert.True(t, byFile["b.log"].DeletedLocally)
	assert.True(t, byFile["pg.dump"].DeletedLocally)
	assert.ElementsMatch(t, []string{
		"acme/nginx/web01/2024/03/b.log",
		"acme/postgres/web01/2024/03/pg.dump",
	}, store.puts)

	// sleep follows every upload attempt, failed ones included
	assert.Equal(t, 3, sleeper.calls)

	c := rep.Counts()
	assert.Equal(t, 2, c.Success)
	assert.Equal(t, 1, c.Failure)
	assert.Contains(t, rep.Finalize(now), "connection reset by peer")
}

func TestRun_MissingDirectorySkipped(t *testing.T) {
	pgDir := t.TempDir()
	touch(t, pgDir, "pg.dump", now.Add(-time.Hour))
	missing := filepath.Join(t.TempDir(), "absent")

	store := &fakeStore{}
	r := newRunner(store, &sleepRecorder{},
		technology(t, "nginx", missing, `\.log$`, 7, retention.ActionKeep),
		technology(t, "postgres", pgDir, `\.dump$`, 7, retention.ActionKeep))

	rep := r.Run(context.Background(), nil)

	assert.Equal(t, []string{"acme/postgres/web01/2024/03/pg.dump"}, store.puts)

	summaries := rep.Summaries()
	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].Skipped)
	assert.False(t, summaries[1].Skipped)

	notes := rep.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "nginx", notes[0].Technology)
	assert.Equal(t, report.LevelError, notes[0].Level)
	assert.Equal(t, "io", notes[0].Kind)
	assert.Contains(t, notes[0].Message, "io error")
}

func TestRun_UnreadableDirectorySkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	locked := t.TempDir()
	touch(t, locked, "access.log", now.Add(-time.Hour))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	pgDir := t.TempDir()
	touch(t, pgDir, "pg.dump", now.Add(-time.Hour))

	store := &fakeStore{}
	r := newRunner(store, &sleepRecorder{},
		technology(t, "nginx", locked, `\.log$`, 7, retention.ActionKeep),
		technology(t, "postgres", pgDir, `\.dump$`, 7, retention.ActionKeep))

	rep := r.Run(context.Background(), nil)

	assert.Equal(t, []string{"acme/postgres/web01/2024/03/pg.dump"}, store.puts)

	summaries := rep.Summaries()
	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].Skipped)
	assert.False(t, summaries[0].OK())
	assert.True(t, summaries[1].OK())

	notes := rep.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "nginx", notes[0].Technology)
	assert.Equal(t, report.LevelError, notes[0].Level)
	assert.Equal(t, "io", notes[0].Kind)
	assert.Contains(t, notes[0].Message, "permission denied")
}

func TestRun_WindowAndInvariants(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "fresh.log", now.Add(-time.Hour))
	touch(t, dir, "edge.log", now.Add(-3*retention.Day))
	stale := touch(t, dir, "stale.log", now.Add(-3*retention.Day-time.Second))
	future := touch(t, dir, "future.log", now.Add(time.Hour))

	keepDir := t.TempDir()
	touch(t, keepDir, "keep.log", now.Add(-time.Hour))

	store := &fakeStore{failKey: map[string]bool{"acme/nginx/web01/2024/03/fresh.log": true}}
	r := newRunner(store, &sleepRecorder{},
		technology(t, "nginx", dir, `\.log$`, 3, retention.ActionDelete),
		technology(t, "java", keepDir, `\.log$`, 3, retention.ActionKeep))

	rep := r.Run(context.Background(), nil)

	got := map[string]bool{}
	for _, o := range rep.Outcomes() {
		got[filepath.Base(o.LocalPath)] = true
		if o.DeletedLocally {
			assert.Equal(t, retention.StatusSuccess, o.Status, "deleted implies success")
			assert.Equal(t, "nginx", o.Technology, "keep never deletes")
		}
	}
	assert.Equal(t, map[string]bool{"fresh.log": true, "edge.log": true, "keep.log": true}, got)
	assert.FileExists(t, stale)
	assert.FileExists(t, future)
}

func TestRun_BucketCheckFailure(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "access.log", now.Add(-time.Hour))

	store := &fakeStore{headErr: apperr.Transfer("bucket acme-backups does not exist")}
	sleeper := &sleepRecorder{}
	r := newRunner(store, sleeper, technology(t, "nginx", dir, `\.log$`, 7, retention.ActionDelete))

	rep := r.Run(context.Background(), nil)

	assert.Empty(t, store.puts)
	assert.Empty(t, rep.Outcomes())
	assert.Zero(t, sleeper.calls)
	assert.Contains(t, rep.Aborted(), "does not exist")
	require.Len(t, rep.Summaries(), 1)
	assert.Contains(t, rep.Finalize(now), "Run aborted before any upload")
}

func TestRun_InterruptedBySleep(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.log", now.Add(-time.Hour))
	touch(t, dir, "b.log", now.Add(-time.Hour))
	other := t.TempDir()
	touch(t, other, "c.log", now.Add(-time.Hour))

	store := &fakeStore{}
	sleeper := &sleepRecorder{err: context.Canceled}
	r := newRunner(store, sleeper,
		technology(t, "nginx", dir, `\.log$`, 7, retention.ActionDelete),
		technology(t, "java", other, `\.log$`, 7, retention.ActionKeep))

	rep := r.Run(context.Background(), nil)

	// the file whose upload finished is still recorded and enforced
	require.Len(t, rep.Outcomes(), 1)
	assert.True(t, rep.Outcomes()[0].DeletedLocally)
	assert.Len(t, store.puts, 1)

	notes := rep.Notes()
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[len(notes)-1].Message, "run interrupted")
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.log", now.Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{}
	r := newRunner(store, &sleepRecorder{}, technology(t, "nginx", dir, `\.log$`, 7, retention.ActionKeep))

	rep := r.Run(ctx, nil)

	assert.Empty(t, store.puts)
	assert.Empty(t, rep.Outcomes())
}

func TestRun_LogCapturedInReport(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "access.log", now.Add(-time.Hour))

	rep := report.New("acme", "web01", "acme-backups", now)
	log, err := logger.New(logger.Config{
		Level:  "info",
		Format: "text",
		Output: filepath.Join(t.TempDir(), "run.log"),
		Tee:    rep.LogWriter(),
	})
	require.NoError(t, err)

	params := Params{
		Site:         "acme",
		Hostname:     "web01",
		Bucket:       "acme-backups",
		Technologies: []Technology{technology(t, "nginx", dir, `\.log$`, 7, retention.ActionKeep)},
	}
	m := metrics.New("")
	r := NewRunner(params, storage.NewUploader(&fakeStore{}, log), log,
		WithClock(func() time.Time { return now }),
		WithSleep((&sleepRecorder{}).sleep),
		WithMetrics(m))

	got := r.Run(context.Background(), rep)
	require.Same(t, rep, got)

	text := rep.Finalize(now.Add(time.Minute))
	assert.Contains(t, text, "Starting backup")
	assert.Contains(t, text, "Uploaded file")

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPlan(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "access.log", now.Add(-2*retention.Day))
	touch(t, dir, "old.log", now.Add(-10*retention.Day))
	missing := filepath.Join(t.TempDir(), "absent")

	store := &fakeStore{}
	sleeper := &sleepRecorder{}
	r := newRunner(store, sleeper,
		technology(t, "nginx", dir, `\.log$`, 7, retention.ActionDelete),
		technology(t, "java", missing, `\.log$`, 7, retention.ActionKeep))

	plans := r.Plan(context.Background())

	require.Len(t, plans, 2)
	assert.Equal(t, "acme/nginx/web01/", plans[0].Prefix)
	assert.Equal(t, now.Add(-7*retention.Day), plans[0].Cutoff)
	require.Len(t, plans[0].Files, 1)
	assert.Equal(t, "acme/nginx/web01/2024/03/access.log", plans[0].Files[0].Key)
	assert.NoError(t, plans[0].Err)
	assert.True(t, errors.Is(plans[1].Err, apperr.ErrIO))
	assert.Equal(t, 1, Count(plans))

	assert.Empty(t, store.puts)
	assert.Zero(t, sleeper.calls)
	assert.FileExists(t, path)
}

func TestParamsFromConfig(t *testing.T) {
	override := 2
	cfg := &config.Config{
		Site:         "acme",
		Hostname:     "web01",
		Bucket:       "acme-backups",
		LookbackDays: 7,
		SleepSeconds: 1.5,
		Technologies: []config.TechnologyConfig{
			{Path: "/var/log/nginx", Pattern: `\.log$`, Name: "nginx", Action: "delete"},
			{Path: "/var/backups/pg", Pattern: `\.dump$`, Name: "postgres", RetentionDays: &override, Action: "KEEP"},
		},
	}

	p, err := ParamsFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, p.Sleep)
	require.Len(t, p.Technologies, 2)
	assert.Equal(t, retention.Policy{Technology: "nginx", LookbackDays: 7, Action: retention.ActionDelete}, p.Technologies[0].Policy)
	assert.Equal(t, retention.Policy{Technology: "postgres", LookbackDays: 2, Action: retention.ActionKeep}, p.Technologies[1].Policy)
	assert.True(t, p.Technologies[1].Pattern.Match("db.dump"))

	cfg.Technologies[0].Pattern = "(["
	_, err = ParamsFromConfig(cfg)
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), 0))
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

func ExampleCount() {
	plans := []PlannedTechnology{
		{Files: make([]PlannedFile, 2)},
		{Files: make([]PlannedFile, 1)},
	}
	fmt.Println(Count(plans))
	// Output: 3
}
