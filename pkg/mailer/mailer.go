package mailer

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"hr-dashboard/backend/config"
)

// ErrNoRecipient 收件人为空
var ErrNoRecipient = errors.New("收件人不能为空")

// Attachment 邮件附件
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message 待发送邮件（纯文本正文）
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer SMTP 发信器
// 未配置账号时进入仅记录日志模式：不发信、不报错
type Mailer struct {
	cfg    *config.MailConfig
	logger *zap.Logger
	send   func(*gomail.Message) error
}

// New 创建发信器；465 端口由 gomail 自动使用 SSL
func New(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	m := &Mailer{cfg: cfg, logger: logger}
	if cfg.Configured() {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
		m.send = func(msg *gomail.Message) error { return d.DialAndSend(msg) }
	}
	return m
}

// LogOnly 是否处于仅记录模式
func (m *Mailer) LogOnly() bool {
	return m.send == nil
}

// Send 发送邮件
func (m *Mailer) Send(ctx context.Context, msg *Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if m.LogOnly() {
		m.logger.Warn("SMTP 未配置，邮件仅记录不发送",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Int("attachments", len(msg.Attachments)),
		)
		return nil
	}

	if err := m.send(m.Build(msg)); err != nil {
		m.logger.Error("邮件发送失败", zap.String("to", msg.To), zap.Error(err))
		return err
	}
	m.logger.Info("邮件已发送", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// Build 组装 MIME 邮件
func (m *Mailer) Build(msg *Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.cfg.Username, m.cfg.FromName)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	for _, a := range msg.Attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		gm.Attach(a.Name, settings...)
	}
	return gm
}
