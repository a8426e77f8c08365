package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/fenilsonani/tidyd/internal/config"
)

// sendMailFunc matches smtp.SendMail
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type email struct {
	cfg      config.EmailConfig
	sendMail sendMailFunc
}

func newEmail(cfg config.EmailConfig) *email {
	return &email{cfg: cfg, sendMail: smtp.SendMail}
}

func (e *email) Name() string { return "email" }

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #2c3e50; color: white; padding: 20px; border-radius: 5px 5px 0 0; }
        .content { padding: 20px; border: 1px solid #ddd; border-top: none; }
        .footer { font-size: 12px; color: #666; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="header">
        <h2>{{.Title}}</h2>
    </div>
    <div class="content">
        <p>{{.Body}}</p>
        <p><strong>Time:</strong> {{.Timestamp.Format "2006-01-02 15:04:05"}}</p>
    </div>
    <div class="footer">
        <p>Sent by tidyd</p>
    </div>
</body>
</html>`))

func (e *email) Send(ctx context.Context, msg Message) error {
	if len(e.cfg.To) == 0 {
		return fmt.Errorf("no email recipients configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := emailTemplate.Execute(&body, msg); err != nil {
		return fmt.Errorf("failed to build email body: %w", err)
	}

	var raw bytes.Buffer
	fmt.Fprintf(&raw, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&raw, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&raw, "Subject: %s\r\n", msg.Title)
	raw.WriteString("MIME-Version: 1.0\r\n")
	raw.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	raw.Write(body.Bytes())

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, e.cfg.SMTPPort)

	return e.sendMail(addr, auth, e.cfg.From, e.cfg.To, raw.Bytes())
}
