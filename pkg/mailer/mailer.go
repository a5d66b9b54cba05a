package mailer

import (
	"context"
	"crypto/tls"
	"errors"

	mail "github.com/go-mail/mail/v2"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
)

// ErrNotConfigured SMTP 未配置
var ErrNotConfigured = errors.New("SMTP 未配置")

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// SMTPSender 基于 go-mail 的 SMTP 发送实现
type SMTPSender struct {
	cfg config.MailConfig
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send 发送 HTML 邮件（强制 STARTTLS）
func (s *SMTPSender) Send(ctx context.Context, to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if !s.cfg.Enabled() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d := mail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.Username, s.cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{ServerName: s.cfg.SMTPHost}

	return d.DialAndSend(BuildMessage(s.cfg.From, to, subject, html))
}

// BuildMessage 构造邮件
func BuildMessage(from string, to []string, subject, html string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	return m
}
