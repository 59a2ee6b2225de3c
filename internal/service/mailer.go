package service

import (
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/treenetra/treenetra/internal/config"
)

// Mailer delivers rendered emails over SMTP.  When no SMTP host is
// configured the mailer runs in drop mode: jobs are logged and discarded,
// which keeps local development working without a mail server.
type Mailer struct {
	client *mail.Client
	from   string
	log    *zap.Logger
}

// NewMailer builds the SMTP client from config.  A connection problem at
// client construction is returned so startup can decide; an empty SMTP
// host yields a drop-mode mailer and no error.
func NewMailer(cfg config.Config, log *zap.Logger) (*Mailer, error) {
	if cfg.SMTPHost == "" {
		return &Mailer{from: cfg.MailFrom, log: log}, nil
	}
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass))
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: client, from: cfg.MailFrom, log: log}, nil
}

// Send delivers one email.  Satisfies queue.Sender.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m.client == nil {
		m.log.Info("mail drop mode, not delivering",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return m.client.DialAndSend(msg)
}

// Email templates.  Kept as plain string building: the bodies are a few
// lines each and a template engine would be more code than the mails.

func verificationEmail(appURL, token string) (subject, html string) {
	link := fmt.Sprintf("%s/api/v1/auth/verify-email/%s", appURL, token)
	subject = "Verify Your Email - TreeNetra"
	html = fmt.Sprintf(`<h1>Welcome to TreeNetra!</h1>
<p>Please verify your email address by clicking the link below:</p>
<a href="%s">Verify Email</a>
<p>If you didn't create an account, please ignore this email.</p>`, link)
	return subject, html
}

func passwordResetEmail(appURL, token string) (subject, html string) {
	link := fmt.Sprintf("%s/reset-password/%s", appURL, token)
	subject = "Password Reset Request - TreeNetra"
	html = fmt.Sprintf(`<h1>Password Reset Request</h1>
<p>You requested to reset your password. Click the link below to proceed:</p>
<a href="%s">Reset Password</a>
<p>If you didn't request this, please ignore this email.</p>
<p>This link will expire in 1 hour.</p>`, link)
	return subject, html
}

func welcomeEmail(name string) (subject, html string) {
	subject = "Welcome to TreeNetra!"
	html = fmt.Sprintf(`<h1>Welcome %s!</h1>
<p>Thank you for joining TreeNetra.</p>
<p>You can now start managing and monitoring trees in your area.</p>`, name)
	return subject, html
}
