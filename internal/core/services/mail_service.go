package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"sistema-vacunacion/internal/config"

	"github.com/sony/gobreaker"
)

// SMTPMailer sends mail through an SMTP relay behind a circuit breaker
type SMTPMailer struct {
	addr    string
	from    string
	auth    smtp.Auth
	breaker *gobreaker.CircuitBreaker
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer returns an SMTP mailer, or a log-only mailer when no host is configured
func NewMailer(cfg config.MailConfig, breaker *gobreaker.CircuitBreaker) Mailer {
	if cfg.Host == "" {
		log.Println("⚠️ MAIL_HOST not set, mails will only be logged")
		return &LogMailer{}
	}

	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:    cfg.From,
		auth:    auth,
		breaker: breaker,
		send:    smtp.SendMail,
	}
}

// Send delivers a plain-text message
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.from, to, subject, body)
	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.send(m.addr, m.auth, m.from, []string{to}, msg)
	})
	if err != nil {
		log.Printf("❌ Mail to %s failed: %v", to, err)
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// LogMailer writes mails to the log instead of sending them
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	log.Printf("📧 [mail disabled] to=%s subject=%q\n%s", to, subject, body)
	return nil
}
