// Package config provides configuration loading and validation for SendToS3.
// It reads TOML (default) or YAML files, expands environment variables,
// applies defaults and validates the result before any upload starts.
//
// Configuration structure:
//   - top level: site, hostname, bucket, lookback_days, sleep_seconds
//   - [s3]: region, profile, custom endpoint and path-style addressing
//   - [[technologies]]: one entry per monitored directory
//   - [mail]: report recipient, sender credentials, SMTP server
//   - [logging]: logging level, format, and output
//   - [metrics]: Prometheus textfile output
//
// Environment variables:
// Values can reference environment variables using ${VAR} or ${VAR:default}
// syntax, e.g. password = "${SMTP_PASSWORD}". A .env file next to the
// binary is loaded first when present.
package config

import (
	"time"

	"github.com/Sayam753/SendToS3/internal/retention"
)

// Config represents the parameters of one backup run.
type Config struct {
	Site         string             `toml:"site" yaml:"site"`
	Hostname     string             `toml:"hostname" yaml:"hostname"`
	Bucket       string             `toml:"bucket" yaml:"bucket"`
	LookbackDays int                `toml:"lookback_days" yaml:"lookback_days"`
	SleepSeconds float64            `toml:"sleep_seconds" yaml:"sleep_seconds"`
	S3           S3Config           `toml:"s3" yaml:"s3"`
	Technologies []TechnologyConfig `toml:"technologies" yaml:"technologies"`
	Mail         MailConfig         `toml:"mail" yaml:"mail"`
	Logging      LoggingConfig      `toml:"logging" yaml:"logging"`
	Metrics      MetricsConfig      `toml:"metrics" yaml:"metrics"`
}

// S3Config представляет настройки подключения к S3
type S3Config struct {
	Region    string `toml:"region" yaml:"region"`
	Profile   string `toml:"profile" yaml:"profile"`
	Endpoint  string `toml:"endpoint" yaml:"endpoint"`
	PathStyle bool   `toml:"path_style" yaml:"path_style"`
}

// TechnologyConfig представляет одну отслеживаемую директорию
type TechnologyConfig struct {
	Path          string `toml:"path" yaml:"path"`
	Pattern       string `toml:"pattern" yaml:"pattern"`
	Name          string `toml:"name" yaml:"name"`
	RetentionDays *int   `toml:"retention_days" yaml:"retention_days"`
	Action        string `toml:"action" yaml:"action"`
}

// MailConfig представляет настройки отправки отчёта
type MailConfig struct {
	To       string `toml:"to" yaml:"to"`
	From     string `toml:"from" yaml:"from"`
	Password string `toml:"password" yaml:"password"`
	Server   string `toml:"server" yaml:"server"`
	Port     int    `toml:"port" yaml:"port"`
	TLS      string `toml:"tls" yaml:"tls"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	Output string `toml:"output" yaml:"output"`
}

// MetricsConfig представляет настройки Prometheus textfile
type MetricsConfig struct {
	TextfilePath string `toml:"textfile_path" yaml:"textfile_path"`
	Namespace    string `toml:"namespace" yaml:"namespace"`
}

// Sleep returns the fixed delay inserted after every upload attempt.
func (c *Config) Sleep() time.Duration {
	return time.Duration(c.SleepSeconds * float64(time.Second))
}

// LookbackDays returns the technology's own window, falling back to the
// global one when retention_days is not set.
func (t TechnologyConfig) LookbackDays(global int) int {
	if t.RetentionDays == nil {
		return global
	}
	return *t.RetentionDays
}

// Policy builds the retention policy of the technology. The action must
// already be validated.
func (t TechnologyConfig) Policy(globalLookback int) retention.Policy {
	action, err := retention.ParseAction(t.Action)
	if err != nil {
		action = retention.ActionKeep
	}
	return retention.Policy{
		Technology:   t.Name,
		LookbackDays: t.LookbackDays(globalLookback),
		Action:       action,
	}
}
