package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/pkg/logger"
)

// Mailer sends mail over SMTP. An empty host disables delivery; Send then
// silently succeeds so callers never have to care.
type Mailer struct {
	cfg *config.EmailConfig
}

func NewMailer(cfg *config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether SMTP is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// Send delivers one message. Both the text and HTML bodies are optional;
// HTML wins when present.
func (m *Mailer) Send(to, subject, text, html string) error {
	if !m.Enabled() {
		logger.Debug().Str("to", to).Msg("email not configured, skipping send")
		return nil
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	body := html
	contentType := "text/html; charset=UTF-8"
	if body == "" {
		body = text
		contentType = "text/plain; charset=UTF-8"
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", to))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString(fmt.Sprintf("Content-Type: %s\r\n", contentType))
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var err error
	if m.cfg.UseTLS {
		err = m.sendTLS(addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, []string{to}, []byte(message.String()))
	}

	if err != nil {
		logger.Warn().Err(err).Str("to", to).Msg("failed to send email")
		return err
	}

	logger.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

func (m *Mailer) sendTLS(addr string, auth smtp.Auth, from, to, message string) error {
	tlsConfig := &tls.Config{
		ServerName: m.cfg.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}
