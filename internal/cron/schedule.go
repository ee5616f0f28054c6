// Package cron validates crontab schedules for the backup job and renders
// the crontab entry that invokes it. SendToS3 has no daemon mode; the host's
// cron daemon owns the schedule.
package cron

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Sayam753/SendToS3/internal/apperr"
)

// parser accepts the five crontab fields and the @yearly..@hourly descriptors
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks that expr is a schedule the system crontab understands.
func Validate(expr string) error {
	_, err := parse(expr)
	return err
}

func parse(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, apperr.Configuration("invalid cron expression: empty schedule")
	}
	// @every is a robfig extension, crontab(5) has no equivalent
	if strings.HasPrefix(expr, "@every") {
		return nil, apperr.Configuration("invalid cron expression %q: @every is not supported by crontab", expr)
	}
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, apperr.Configuration("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// NextRuns returns the next n activation times of expr after from.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	schedule, err := parse(expr)
	if err != nil {
		return nil, err
	}

	runs := make([]time.Time, 0, n)
	next := from
	for range n {
		next = schedule.Next(next)
		if next.IsZero() {
			break
		}
		runs = append(runs, next)
	}
	return runs, nil
}

// CrontabLine renders a crontab(5) entry running the backup with configPath.
func CrontabLine(expr, binary, configPath string) (string, error) {
	if _, err := parse(expr); err != nil {
		return "", err
	}
	if binary == "" {
		return "", apperr.Configuration("binary path is required")
	}

	line := fmt.Sprintf("%s %s run", strings.Join(strings.Fields(expr), " "), quote(binary))
	if configPath != "" {
		line += " --config " + quote(configPath)
	}
	return line, nil
}

// quote экранирует аргумент для /bin/sh, если в нём есть пробелы или спецсимволы
func quote(arg string) string {
	if !strings.ContainsAny(arg, " \t'\"$`\\;&|<>()*?%") {
		return arg
	}
	// % имеет особый смысл в crontab и экранируется отдельно
	escaped := strings.ReplaceAll(arg, "'", `'\''`)
	escaped = strings.ReplaceAll(escaped, "%", `\%`)
	return "'" + escaped + "'"
}
