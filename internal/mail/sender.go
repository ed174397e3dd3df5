package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/valora-app/order-invoicer/internal/common"
)

// Sender dispatches a rendered invoice to a recipient.
type Sender interface {
	Send(ctx context.Context, to, toName, attachmentPath string) error
}

// SMTPConfig configures the outbound mail session.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender sends the invoice mail with the PDF attached. The SMTP
// session is acquired, used and released inside one Send call.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *slog.Logger

	// Subject of every invoice mail.
	Subject string
}

func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{cfg: cfg, logger: logger, Subject: "SAMLA - Invoice"}
}

// Send mails the invoice at attachmentPath to the recipient with the
// fixed body template. Failures wrap common.ErrDispatch; the document is
// not retried.
func (s *SMTPSender) Send(ctx context.Context, to, toName, attachmentPath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send to %s: %w: %v", to, common.ErrDispatch, err)
	}
	start := time.Now()

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.Username, "")
	m.SetAddressHeader("To", to, toName)
	m.SetHeader("Subject", s.Subject)
	m.SetBody("text/plain", bodyTemplate(toName))
	m.Attach(attachmentPath)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send to %s: %w: %v", to, common.ErrDispatch, err)
	}

	s.logger.Info("mail.sent",
		"to", to,
		"attachment", attachmentPath,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func bodyTemplate(name string) string {
	return "Hello " + name + ", here is the invoice you requested. " +
		"If it does not meet requirements, please resend the email with the correct information."
}
