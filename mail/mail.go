package mail

import (
	"gopkg.in/gomail.v2"

	"github.com/ezza-forms/backend/config"
	"github.com/ezza-forms/backend/log"
)

type Sender interface {
	Send(to, subject, body string) error
}

// NewSender returns an SMTP sender when a host is configured, otherwise a
// sender that only logs. Mail is best-effort throughout the app.
func NewSender(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		log.Warn("mail: SMTP not configured, outgoing mail will be logged only")
		return logSender{}
	}
	return &smtpSender{cfg}
}

type smtpSender struct {
	cfg config.SMTPConfig
}

func (s *smtpSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	return d.DialAndSend(m)
}

type logSender struct{}

func (logSender) Send(to, subject, body string) error {
	log.Infof("mail (not sent): to=%s subject=%q body=%q", to, subject, body)
	return nil
}
