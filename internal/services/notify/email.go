package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/smtp"
)

// EmailChannel отправляет пакет одним письмом на адрес оператора.
type EmailChannel struct {
	transport smtp.TransportInterface
	to        string
	log       *slog.Logger
}

// NewEmailChannel создаёт почтовый канал.
func NewEmailChannel(transport smtp.TransportInterface, to string, log *slog.Logger) *EmailChannel {
	return &EmailChannel{
		transport: transport,
		to:        to,
		log:       log,
	}
}

// Name возвращает имя канала.
func (c *EmailChannel) Name() string {
	return "email"
}

// Send формирует письмо с перечнем подписчиков и отправляет его.
func (c *EmailChannel) Send(ctx context.Context, batch Batch) error {
	const op = "notify.EmailChannel.Send"
	if c.to == "" {
		return fmt.Errorf("%s: operator email is not configured", op)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	subject, body := renderEmail(batch)
	if err := c.sendEmail([]string{c.to}, subject, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func renderEmail(batch Batch) (string, string) {
	var b strings.Builder
	var subject string
	switch batch.Kind {
	case KindDeactivation:
		subject = fmt.Sprintf("Автоматически отключено подписчиков: %d", len(batch.Items))
		b.WriteString("Следующие подписчики отключены по истечении льготного периода:\n\n")
		for _, it := range batch.Items {
			fmt.Fprintf(&b, "- %s (%s): просрочка %d дн., оплачено до %s\n", it.Name, it.Contact, it.Days, it.EndDateDisplay)
		}
	default:
		subject = fmt.Sprintf("Напоминание о продлении: %d подписчиков", len(batch.Items))
		b.WriteString("У следующих подписчиков скоро заканчивается подписка:\n\n")
		for _, it := range batch.Items {
			fmt.Fprintf(&b, "- %s (%s): осталось %d дн., оплачено до %s\n", it.Name, it.Contact, it.Days, it.EndDateDisplay)
		}
	}
	return subject, b.String()
}

func (c *EmailChannel) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + c.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := c.transport.Connect()
	if err != nil {
		c.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(c.transport.GetSMTPUser()); err != nil {
		c.log.Error("failed to set MAIL FROM", slog.String("from", c.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			c.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		c.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		c.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		c.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		c.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	c.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
