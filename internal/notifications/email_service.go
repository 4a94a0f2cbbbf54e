package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"bookly/pkg/logger"
)

// Mailer delivers a single email job.
type Mailer interface {
	Send(ctx context.Context, job *EmailJob) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

func (c *SMTPConfig) validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("SMTP host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	case c.Username == "":
		return fmt.Errorf("SMTP username is required")
	case c.FromEmail == "":
		return fmt.Errorf("from email is required")
	}
	return nil
}

// SMTPMailer sends mail through an SMTP relay using STARTTLS.
type SMTPMailer struct {
	config *SMTPConfig
}

func NewSMTPMailer(config *SMTPConfig) (*SMTPMailer, error) {
	if config == nil {
		return nil, fmt.Errorf("SMTP config is nil")
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	return &SMTPMailer{config: config}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, job *EmailJob) error {
	htmlBody, textBody, err := renderEmail(job)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	message := buildMessage(s.config.FromName, s.config.FromEmail, job.RecipientEmail, job.Subject, htmlBody, textBody)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, job.RecipientEmail, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{job.RecipientEmail}, message)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.GetDefault().InfoContext(ctx, "email sent",
		slog.String("type", string(job.Type)),
		slog.String("to", job.RecipientEmail))
	return nil
}

func (s *SMTPMailer) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

// buildMessage creates a multipart/alternative message with text and HTML parts.
func buildMessage(fromName, fromEmail, to, subject, htmlBody, textBody string) []byte {
	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	}
	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

var verificationHTML = template.Must(template.New("verification").Parse(`
<h1>Verify your Bookly Account</h1>
<p>Hi {{.Name}},</p>
<p>Please click this <a href="{{.Link}}">link</a> to verify your email address.</p>
<p>This link expires in 1 hour.</p>
`))

// renderEmail produces the HTML and plain text bodies for a job.
func renderEmail(job *EmailJob) (string, string, error) {
	name := job.RecipientName
	if name == "" {
		name = job.RecipientEmail
	}

	switch job.Type {
	case EmailTypeVerification:
		link := job.TemplateData["link"]
		if link == "" {
			return "", "", fmt.Errorf("verification email for %s has no link", job.RecipientEmail)
		}
		var html bytes.Buffer
		if err := verificationHTML.Execute(&html, map[string]string{"Name": name, "Link": link}); err != nil {
			return "", "", err
		}
		text := fmt.Sprintf("Hi %s,\n\nVerify your Bookly account by opening:\n%s\n\nThis link expires in 1 hour.", name, link)
		return html.String(), text, nil
	default:
		return "", "", fmt.Errorf("unknown email type %q", job.Type)
	}
}

// LogMailer writes emails to the log instead of sending them. Used when no
// SMTP relay is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(ctx context.Context, job *EmailJob) error {
	_, text, err := renderEmail(job)
	if err != nil {
		return err
	}
	logger.GetDefault().InfoContext(ctx, "email (not sent, no SMTP relay)",
		slog.String("type", string(job.Type)),
		slog.String("to", job.RecipientEmail),
		slog.String("subject", job.Subject),
		slog.String("body", text))
	return nil
}
