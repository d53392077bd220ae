package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/kereva-dev/duet/internal/config"
	"github.com/mbeoliero/kit/log"
)

// Sender delivers password reset mail over SMTP. When no host is
// configured the reset link is logged instead, which keeps local
// development working without a mail relay.
type Sender struct {
	cfg config.SMTPConfig
}

// NewSender creates a Sender
func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// SendPasswordReset mails a reset link for token to the given address
func (s *Sender) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s?token=%s", s.cfg.ResetBaseURL, token)

	if s.cfg.Host == "" {
		log.CtxInfo(ctx, "smtp not configured, reset link for %s: %s", to, link)
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	msg.WriteString("Subject: Reset your password\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&msg, "A password reset was requested for this address.\r\n\r\n")
	fmt.Fprintf(&msg, "Open the link below within 30 minutes to choose a new password:\r\n%s\r\n\r\n", link)
	msg.WriteString("If you did not request this, you can ignore this mail.\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}

	log.CtxInfo(ctx, "password reset mail sent to %s", to)
	return nil
}
