package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"citywatch-worker/internal/config"
)

// Service sends alert emails over SMTP.
type Service struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg *config.Config) (*Service, error) {
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SENDER_EMAIL is required for the SMTP notifier")
	}

	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPasswd)

	log.Info().
		Str("host", cfg.SMTPHost).
		Int("port", cfg.SMTPPort).
		Str("sender", cfg.SenderEmail).
		Msg("SMTP notifier initialized")

	return &Service{
		dialer: dialer,
		from:   cfg.SenderEmail,
	}, nil
}

// Send delivers one plain-text email. The context is checked before
// dialing; gomail owns the connection timeout itself.
func (s *Service) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}

// Nop is a no-op notifier useful in tests and local runs without SMTP.
type Nop struct{}

func (Nop) Send(_ context.Context, _, _, _ string) error { return nil }

// BuildAlertEmail renders the subject and plain-text body for one alert.
func BuildAlertEmail(label, location string, confidence float64) (subject, body string) {
	title := capitalize(label)
	subject = fmt.Sprintf("%s Alert", title)
	body = fmt.Sprintf(`URGENT ALERT

Dear User,

This is an automated notification from the CityWatch surveillance system.
An anomaly has been detected in a monitored zone and may require your
immediate attention.

Location: %s
Detected: %s
Confidence Level: %.2f%%

Recommended actions:
1. Review the live or recorded footage for verification.
2. If the alert appears to be a false positive, consider adjusting sensitivity settings.
3. If the threat is confirmed, initiate the appropriate emergency response protocols.

This is an automated message, replies are not monitored.

CityWatch Surveillance System
`, location, title, confidence)
	return subject, body
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
