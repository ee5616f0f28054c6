package report

import (
	"context"
	"fmt"
	"io"

	"github.com/Sayam753/SendToS3/internal/logger"
	"github.com/Sayam753/SendToS3/internal/mailer"
)

// Sender delivers a rendered report.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Send emails the report text to recipient. Delivery is best-effort: a
// failure is logged and the report is written to fallback instead. It is
// never retried.
func Send(ctx context.Context, sender Sender, r *Report, text, recipient string, fallback io.Writer, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	err := sender.Send(ctx, mailer.Message{
		To:      []string{recipient},
		Subject: r.Subject(),
		Body:    text,
	})
	if err != nil {
		log.Error("Unable to send email, printing the report to the console", err,
			logger.Field{Key: "recipient", Value: recipient})
		if fallback != nil {
			fmt.Fprint(fallback, text)
		}
		return err
	}

	log.Info("Report emailed", logger.Field{Key: "recipient", Value: recipient})
	return nil
}
