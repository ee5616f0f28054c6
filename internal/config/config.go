package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Sayam753/SendToS3/internal/apperr"
	"github.com/Sayam753/SendToS3/internal/logger"
	"github.com/Sayam753/SendToS3/internal/mailer"
	"github.com/Sayam753/SendToS3/internal/retention"
	"github.com/Sayam753/SendToS3/internal/selector"
)

const (
	defaultLookbackDays = 5
	defaultSleepSeconds = 5
	defaultMailPort     = 465
)

// hostnameFn подменяется в тестах
var hostnameFn = os.Hostname

// Load загружает конфигурацию из TOML или YAML файла (по расширению)
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Configuration("failed to read config file: %w", err)
	}

	cfg := newDefaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, apperr.Configuration("failed to parse config file: %w", err)
	}

	expandEnvVars(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// newDefaults возвращает конфигурацию со значениями, которые файл может переопределить,
// включая явные нули (lookback_days = 0, sleep_seconds = 0)
func newDefaults() *Config {
	return &Config{
		LookbackDays: defaultLookbackDays,
		SleepSeconds: defaultSleepSeconds,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyDefaults применяет производные значения по умолчанию
func applyDefaults(c *Config) {
	if c.Hostname == "" {
		if host, err := hostnameFn(); err == nil {
			c.Hostname = host
		}
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = defaultMailPort
	}
	if c.Mail.TLS == "" {
		c.Mail.TLS = mailer.DefaultTLS(c.Mail.Port)
	}
	c.Mail.TLS = strings.ToLower(c.Mail.TLS)

	for i := range c.Technologies {
		if c.Technologies[i].Action == "" {
			c.Technologies[i].Action = string(retention.ActionKeep)
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate проверяет валидность конфигурации
func (c *Config) Validate() []error {
	var errs []error

	if err := validateComponent(c.Site, "site"); err != nil {
		errs = append(errs, err)
	}
	if err := validateComponent(c.Hostname, "hostname"); err != nil {
		errs = append(errs, err)
	}
	if c.Bucket == "" {
		errs = append(errs, apperr.Configuration("bucket is required"))
	}
	if c.LookbackDays < 0 {
		errs = append(errs, apperr.Configuration("lookback_days must be >= 0, got %d", c.LookbackDays))
	}
	if c.SleepSeconds < 0 {
		errs = append(errs, apperr.Configuration("sleep_seconds must be >= 0, got %v", c.SleepSeconds))
	}

	errs = append(errs, c.validateTechnologies()...)
	errs = append(errs, c.validateMail()...)

	// Проверка logging config
	if !logger.ValidLevel(c.Logging.Level) {
		errs = append(errs, apperr.Configuration("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, apperr.Configuration("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}

	return errs
}

func (c *Config) validateTechnologies() []error {
	if len(c.Technologies) == 0 {
		return []error{apperr.Configuration("at least one [[technologies]] entry is required")}
	}

	var errs []error
	type source struct{ path, pattern string }
	seen := make(map[source]int, len(c.Technologies))
	names := make(map[string]int, len(c.Technologies))

	for i, t := range c.Technologies {
		field := fmt.Sprintf("technologies[%d]", i)

		if t.Path == "" {
			errs = append(errs, apperr.Configuration("%s.path is required", field))
		} else if !filepath.IsAbs(t.Path) {
			errs = append(errs, apperr.Configuration("%s.path must be absolute, got %q", field, t.Path))
		}

		if err := validateComponent(t.Name, field+".name"); err != nil {
			errs = append(errs, err)
		} else if prev, dup := names[t.Name]; dup {
			errs = append(errs, apperr.Configuration("%s.name %q duplicates technologies[%d].name", field, t.Name, prev))
		} else {
			names[t.Name] = i
		}

		if _, err := selector.CompilePattern(t.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("%s.pattern: %w", field, err))
		}

		if t.RetentionDays != nil && *t.RetentionDays < 0 {
			errs = append(errs, apperr.Configuration("%s.retention_days must be >= 0, got %d", field, *t.RetentionDays))
		}

		if _, err := retention.ParseAction(t.Action); err != nil {
			errs = append(errs, fmt.Errorf("%s.action: %w", field, err))
		}

		key := source{path: filepath.Clean(t.Path), pattern: t.Pattern}
		if prev, dup := seen[key]; dup && t.Path != "" {
			errs = append(errs, apperr.Configuration("%s duplicates technologies[%d] (same path and pattern)", field, prev))
		} else {
			seen[key] = i
		}
	}

	return errs
}

func (c *Config) validateMail() []error {
	var errs []error

	if c.Mail.To == "" {
		errs = append(errs, apperr.Configuration("mail.to is required"))
	}
	if c.Mail.From == "" {
		errs = append(errs, apperr.Configuration("mail.from is required"))
	}
	if c.Mail.Server == "" {
		errs = append(errs, apperr.Configuration("mail.server is required"))
	}
	if c.Mail.Port < 1 || c.Mail.Port > 65535 {
		errs = append(errs, apperr.Configuration("mail.port out of range: %d", c.Mail.Port))
	}
	switch c.Mail.TLS {
	case mailer.TLSImplicit, mailer.TLSStartTLS, mailer.TLSNone:
	default:
		errs = append(errs, apperr.Configuration("invalid mail.tls: %s (expected: implicit, starttls, none)", c.Mail.TLS))
	}
	if c.Mail.TLS == mailer.TLSNone && c.Mail.Password != "" && c.Mail.Server != "" && !mailer.IsLocalHost(c.Mail.Server) {
		errs = append(errs, apperr.Configuration("mail.tls = none cannot send a password to %s; use starttls or implicit", c.Mail.Server))
	}

	return errs
}

// validateComponent проверяет сегмент ключа объекта
func validateComponent(value, field string) error {
	if value == "" {
		return apperr.Configuration("%s is required", field)
	}
	if strings.Contains(value, "/") {
		return apperr.Configuration("%s must not contain '/', got %q", field, value)
	}
	return nil
}

// Summary возвращает поля для лога запуска; пароль маскируется
func (c *Config) Summary() []logger.Field {
	return []logger.Field{
		{Key: "site", Value: c.Site},
		{Key: "hostname", Value: c.Hostname},
		{Key: "bucket", Value: c.Bucket},
		{Key: "lookback_days", Value: c.LookbackDays},
		{Key: "sleep_seconds", Value: c.SleepSeconds},
		{Key: "technologies", Value: len(c.Technologies)},
		{Key: "mail_server", Value: fmt.Sprintf("%s:%d", c.Mail.Server, c.Mail.Port)},
		{Key: "mail_from", Value: c.Mail.From},
		{Key: "mail_password", Value: maskSecret(c.Mail.Password)},
	}
}

// expandEnvVars расширяет переменные окружения в конфигурации
func expandEnvVars(c *Config) {
	c.Site = expandEnv(c.Site)
	c.Hostname = expandEnv(c.Hostname)
	c.Bucket = expandEnv(c.Bucket)

	c.S3.Region = expandEnv(c.S3.Region)
	c.S3.Profile = expandEnv(c.S3.Profile)
	c.S3.Endpoint = expandEnv(c.S3.Endpoint)

	for i := range c.Technologies {
		c.Technologies[i].Path = expandHome(expandEnv(c.Technologies[i].Path))
	}

	c.Mail.To = expandEnv(c.Mail.To)
	c.Mail.From = expandEnv(c.Mail.From)
	c.Mail.Password = expandEnv(c.Mail.Password)
	c.Mail.Server = expandEnv(c.Mail.Server)

	c.Logging.Output = expandHome(expandEnv(c.Logging.Output))
	c.Metrics.TextfilePath = expandHome(expandEnv(c.Metrics.TextfilePath))
}

// expandEnv расширяет переменную окружения формата ${VAR:default}
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	// Без значения по умолчанию
	return os.Getenv(content)
}

// expandHome расширяет ~ в пути
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
