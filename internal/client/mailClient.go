package client

import (
	"context"
	"fmt"
	"log/slog"

	"binwahab-store/internal/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type MailClient interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendgridClientImpl struct {
	apiKey   string
	from     string
	fromName string
}

// NewMailClient returns a SendGrid client, or a log-only client when no API key is set.
func NewMailClient(cfg *config.Mail, log *slog.Logger) MailClient {
	if cfg.APIKey == "" {
		return &logMailClient{log: log}
	}
	return &sendgridClientImpl{
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (c *sendgridClientImpl) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(c.fromName, c.from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	response, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}

type logMailClient struct {
	log *slog.Logger
}

func (c *logMailClient) Send(ctx context.Context, to, subject, body string) error {
	c.log.InfoContext(ctx, "mail not sent, sendgrid disabled", "to", to, "subject", subject)
	return nil
}
