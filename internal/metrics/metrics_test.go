package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sayam753/SendToS3/internal/apperr"
	"github.com/Sayam753/SendToS3/internal/report"
	"github.com/Sayam753/SendToS3/internal/retention"
)

func TestObserveOutcome(t *testing.T) {
	m := New("")

	m.ObserveOutcome(retention.Outcome{Technology: "nginx", Status: retention.StatusSuccess, Size: 100, DeletedLocally: true})
	m.ObserveOutcome(retention.Outcome{Technology: "nginx", Status: retention.StatusSuccess, Size: 50})
	m.ObserveOutcome(retention.Outcome{Technology: "nginx", Status: retention.StatusFailure, Size: 999})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.filesTotal.WithLabelValues("nginx", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesTotal.WithLabelValues("nginx", "failure")))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.bytesTotal.WithLabelValues("nginx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletedTotal.WithLabelValues("nginx")))
}

func TestObserveRun(t *testing.T) {
	started := time.Unix(1_800_000_000, 0)
	r := report.New("acme", "web01", "backups", started)
	r.BeginTechnology("nginx", "/var/log/nginx", retention.ActionKeep)
	r.Record(retention.Outcome{Technology: "nginx", Status: retention.StatusSuccess})
	r.Finish(started.Add(42 * time.Second))

	m := New("")
	m.ObserveRun(r)

	assert.Equal(t, 42.0, testutil.ToFloat64(m.runDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.technologies))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.issues))
	assert.Equal(t, float64(started.Add(42*time.Second).Unix()), testutil.ToFloat64(m.lastSuccess))
}

func TestObserveRun_IssuesDoNotMarkSuccess(t *testing.T) {
	started := time.Unix(1_800_000_000, 0)
	r := report.New("acme", "web01", "backups", started)
	r.BeginTechnology("nginx", "/var/log/nginx", retention.ActionKeep)
	r.Finish(started.Add(time.Second))

	m := New("")
	m.ObserveRun(r)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.issues))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastSuccess))
}

func TestObserveRun_ErrorKinds(t *testing.T) {
	started := time.Unix(1_800_000_000, 0)
	r := report.New("acme", "web01", "backups", started)
	r.BeginTechnology("nginx", "/var/log/nginx", retention.ActionKeep)
	r.Skip("nginx", apperr.IO("open /var/log/nginx: permission denied"))
	r.Abort(apperr.Transfer("bucket backups is not reachable"))
	r.Finish(started.Add(time.Second))

	m := New("")
	m.ObserveRun(r)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("io")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("transfer")))
}

func TestWriteTextfile(t *testing.T) {
	m := New("backup")
	m.ObserveOutcome(retention.Outcome{Technology: "java", Status: retention.StatusSuccess, Size: 10})

	path := filepath.Join(t.TempDir(), "sendtos3.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `backup_files_total{status="success",technology="java"} 1`), string(data))
}
