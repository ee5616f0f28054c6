package cron

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sayam753/SendToS3/internal/apperr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "nightly", expr: "45 23 * * *"},
		{name: "ranges and steps", expr: "*/15 1-5 * * MON-FRI"},
		{name: "descriptor", expr: "@daily"},
		{name: "surrounding spaces", expr: "  0 2 * * *  "},
		{name: "empty", expr: "", wantErr: true},
		{name: "seconds field", expr: "0 45 23 * * *", wantErr: true},
		{name: "out of range", expr: "61 23 * * *", wantErr: true},
		{name: "every", expr: "@every 1h", wantErr: true},
		{name: "garbage", expr: "tonight", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.expr)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrConfiguration))
		})
	}
}

func TestNextRuns(t *testing.T) {
	from := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	runs, err := NextRuns("45 23 * * *", from, 3)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		time.Date(2024, 3, 10, 23, 45, 0, 0, time.UTC),
		time.Date(2024, 3, 11, 23, 45, 0, 0, time.UTC),
		time.Date(2024, 3, 12, 23, 45, 0, 0, time.UTC),
	}, runs)
}

func TestNextRuns_Invalid(t *testing.T) {
	_, err := NextRuns("bad", time.Now(), 1)
	assert.Error(t, err)
}

func TestCrontabLine(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		binary  string
		config  string
		want    string
		wantErr bool
	}{
		{
			name:   "default install",
			expr:   "45 23 * * *",
			binary: "/usr/local/bin/sendtos3",
			config: "/etc/sendtos3/config.toml",
			want:   "45 23 * * * /usr/local/bin/sendtos3 run --config /etc/sendtos3/config.toml",
		},
		{
			name:   "no config",
			expr:   "@daily",
			binary: "/usr/local/bin/sendtos3",
			want:   "@daily /usr/local/bin/sendtos3 run",
		},
		{
			name:   "collapses whitespace",
			expr:   "0  2 *   * *",
			binary: "/opt/sendtos3",
			want:   "0 2 * * * /opt/sendtos3 run",
		},
		{
			name:   "quotes paths",
			expr:   "0 2 * * *",
			binary: "/opt/send to s3/sendtos3",
			config: "/etc/100%.toml",
			want:   `0 2 * * * '/opt/send to s3/sendtos3' run --config '/etc/100\%.toml'`,
		},
		{name: "invalid schedule", expr: "x", binary: "/opt/sendtos3", wantErr: true},
		{name: "missing binary", expr: "0 2 * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CrontabLine(tt.expr, tt.binary, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
