package channels

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig là cấu hình SMTP cho kênh email fallback.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// EmailSender gửi email thông báo; SMTPEmailClient là implementation thật.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SMTPEmailClient gửi email qua SMTP bằng gomail.
type SMTPEmailClient struct {
	cfg SMTPConfig
}

// NewSMTPEmailClient tạo client email SMTP.
func NewSMTPEmailClient(cfg SMTPConfig) *SMTPEmailClient {
	return &SMTPEmailClient{cfg: cfg}
}

// Send gửi một email HTML đơn giản.
func (s *SMTPEmailClient) Send(ctx context.Context, recipient, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From))
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return dialer.DialAndSend(msg)
}
