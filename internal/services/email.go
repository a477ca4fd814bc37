package services

import (
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer sends the transactional emails of the account lifecycle.
type Mailer interface {
	SendVerificationEmail(to, username, code string) error
	SendPasswordResetEmail(to, code string) error
	SendSanctionNotice(to, username, action, reason string, until *time.Time) error
}

type EmailService struct {
	config *config.Config
}

func NewEmailService(config *config.Config) *EmailService {
	return &EmailService{config: config}
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	d.TLSConfig = &tls.Config{ServerName: s.config.SMTPHost}

	return d.DialAndSend(m)
}

const emailLayout = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .code { font-size: 28px; letter-spacing: 6px; font-weight: bold; text-align: center; margin: 20px 0; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>%s</h1></div>
        <div class="content">%s</div>
        <div class="footer">
            <p>This is an automated message, please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>`

func (s *EmailService) SendVerificationEmail(to, username, code string) error {
	subject := "Verify your email"
	content := fmt.Sprintf(`
            <p>Hi %s,</p>
            <p>Use this code to verify your email address:</p>
            <p class="code">%s</p>
            <p>The code expires in 15 minutes.</p>`, html.EscapeString(username), code)

	return s.SendEmail(to, subject, fmt.Sprintf(emailLayout, subject, content))
}

func (s *EmailService) SendPasswordResetEmail(to, code string) error {
	subject := "Password Reset Request"
	content := fmt.Sprintf(`
            <p>Hello,</p>
            <p>We received a request to reset the password of the account associated with <strong>%s</strong>.</p>
            <p class="code">%s</p>
            <p>The code expires in 1 hour. If you didn't request this password reset, please ignore this email.</p>
            <p>Or reset it from <a href="%s/reset-password">%s/reset-password</a>.</p>`,
		to, code, s.config.BaseURL, s.config.BaseURL)

	return s.SendEmail(to, subject, fmt.Sprintf(emailLayout, subject, content))
}

func (s *EmailService) SendSanctionNotice(to, username, action, reason string, until *time.Time) error {
	subject := "Notice about your account"
	var detail string
	switch action {
	case ActionWarning:
		detail = "This is a warning about your recent activity."
	case ActionSuspend:
		detail = "Your account has been suspended"
		if until != nil {
			detail += " until " + until.UTC().Format("2006-01-02 15:04 MST")
		}
		detail += "."
	case ActionBan:
		detail = "Your account has been permanently banned."
	default:
		detail = "Your account has been removed."
	}
	if reason != "" {
		detail += fmt.Sprintf("</p><p><strong>Reason:</strong> %s", html.EscapeString(reason))
	}
	content := fmt.Sprintf(`
            <p>Hi %s,</p>
            <p>%s</p>`, html.EscapeString(username), detail)

	return s.SendEmail(to, subject, fmt.Sprintf(emailLayout, subject, content))
}
