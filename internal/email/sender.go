package email

import (
	"donation_backend/internal/logger"

	"gopkg.in/gomail.v2"
)

// Sender - исходящая почта. Ошибки отправки не фатальны для вызывающего.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender отправляет письма через gomail
type SMTPSender struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	return s.dialer.DialAndSend(s.buildMessage(to, subject, htmlBody))
}

func (s *SMTPSender) buildMessage(to, subject, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	if s.cfg.FromName != "" {
		m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	} else {
		m.SetHeader("From", s.cfg.FromEmail)
	}
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return m
}

// LogSender используется для локальной разработки, когда SMTP не настроен
type LogSender struct{}

func (LogSender) Send(to, subject, htmlBody string) error {
	logger.Info("email delivery skipped (smtp not configured)", "to", to, "subject", subject)
	return nil
}

// NewSender выбирает реализацию по конфигурации
func NewSender(cfg SMTPConfig) Sender {
	if !cfg.Enabled() {
		logger.Warn("SMTP is not configured, outgoing email is logged only")
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}
