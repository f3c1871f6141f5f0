package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

type SMTPSender struct {
	Host   string
	Port   string
	User   string
	Pass   string
	From   string
	UseTLS bool
}

func (s *SMTPSender) Send(ctx context.Context, to string, subject string, body string) error {
	addr := net.JoinHostPort(s.Host, s.Port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if s.UseTLS {
		conn = tls.Client(conn, &tls.Config{ServerName: s.Host})
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if !s.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if s.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.User, s.Pass, s.Host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := c.Mail(s.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(buildMessage(s.From, to, subject, body))); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

var headerValue = strings.NewReplacer("\r", "", "\n", "")

func buildMessage(from, to, subject, body string) string {
	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", subject},
		{"Date", time.Now().UTC().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=\"utf-8\""},
	}

	var msg strings.Builder
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], headerValue.Replace(h[1])))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.String()
}

// LogSender stands in for SMTP when no host is configured. It only records
// that a message would have been sent.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(ctx context.Context, to string, subject string, body string) error {
	s.Logger.Info("smtp not configured, mail not delivered",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}
