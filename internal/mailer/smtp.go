// Package mailer delivers plain-text messages over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/Sayam753/SendToS3/internal/apperr"
)

// TLS modes.
const (
	TLSImplicit = "implicit" // SMTPS, usually port 465
	TLSStartTLS = "starttls" // upgrade a plain connection, usually port 587
	TLSNone     = "none"
)

const defaultTimeout = 30 * time.Second

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string // also used as the envelope sender
	Password string
	From     string // header From; defaults to Username
	TLS      string // implicit, starttls, none; empty = implicit on 465, starttls otherwise
	Timeout  time.Duration
}

// Message is a plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer sends messages with the configured server.
type Mailer struct {
	cfg    Config
	sendFn func(ctx context.Context, msg Message) error
}

// New returns a Mailer for cfg.
func New(cfg Config) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.TLS == "" {
		cfg.TLS = DefaultTLS(cfg.Port)
	}
	m := &Mailer{cfg: cfg}
	m.sendFn = m.sendSMTP
	return m
}

// DefaultTLS returns the TLS mode conventionally used on port.
func DefaultTLS(port int) string {
	if port == 465 {
		return TLSImplicit
	}
	return TLSStartTLS
}

// IsLocalHost reports whether host is a loopback name that PLAIN auth
// accepts over an unencrypted connection.
func IsLocalHost(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// Send delivers msg. Errors are wrapped with apperr.ErrNotification.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return apperr.Notification("no recipients")
	}
	if err := m.sendFn(ctx, msg); err != nil {
		return apperr.Notification("send %q to %s: %w", msg.Subject, strings.Join(msg.To, ", "), err)
	}
	return nil
}

// formatMessage renders headers and body with CRLF line endings.
func (m *Mailer) formatMessage(msg Message) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	return b.String()
}

func (m *Mailer) sendSMTP(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))
	tlsConfig := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}

	conn, err := m.dial(ctx, addr, tlsConfig)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.cfg.TLS == TLSStartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("server %s does not support STARTTLS", m.cfg.Host)
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("the username and/or password is incorrect: %w", err)
		}
	}

	if err := client.Mail(m.cfg.Username); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range msg.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := w.Write([]byte(m.formatMessage(msg))); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// Сообщение уже принято сервером
	_ = client.Quit()
	return nil
}

func (m *Mailer) dial(ctx context.Context, addr string, tlsConfig *tls.Config) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: m.cfg.Timeout}

	if m.cfg.TLS == TLSImplicit {
		td := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		conn, err := td.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server %s: %w", addr, err)
		}
		return conn, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server %s: %w", addr, err)
	}
	return conn, nil
}
