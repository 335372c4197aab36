package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// sender is the part of *mail.Client the mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer emails each new submission to the site owner over SMTP.
type Mailer struct {
	client sender
	from   string
	to     string
}

func NewMailer(cfg MailerConfig) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &Mailer{client: client, from: from, to: cfg.To}, nil
}

func (m *Mailer) Name() string {
	return "smtp"
}

func (m *Mailer) Send(ctx context.Context, n Notification) error {
	msg, err := m.buildMessage(n)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func (m *Mailer) buildMessage(n Notification) (*mail.Msg, error) {
	s := n.Submission

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if n.ReplyTo != "" {
		if err := msg.ReplyTo(n.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	msg.Subject("[Contact] " + s.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, plainBody(n))
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody(n))

	return msg, nil
}

// Fields are already HTML-escaped, so they are inserted into the HTML part as-is.
func htmlBody(n Notification) string {
	s := n.Submission

	var b strings.Builder
	b.WriteString("<h2>New contact message</h2>")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>", s.Name)
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>", s.Email)
	fmt.Fprintf(&b, "<p><strong>Subject:</strong> %s</p>", s.Subject)
	fmt.Fprintf(&b, "<p><strong>Message:</strong></p><p>%s</p>", strings.ReplaceAll(s.Message, "\n", "<br>"))
	fmt.Fprintf(&b, "<hr><p><small>Received %s from %s</small></p>",
		s.CreatedAt.UTC().Format(time.RFC1123), s.ClientAddress)
	return b.String()
}

func plainBody(n Notification) string {
	s := n.Submission

	var b strings.Builder
	b.WriteString("New contact message\n\n")
	fmt.Fprintf(&b, "Name: %s\n", s.Name)
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	fmt.Fprintf(&b, "Subject: %s\n\n", s.Subject)
	fmt.Fprintf(&b, "%s\n\n", s.Message)
	fmt.Fprintf(&b, "Received %s from %s\n", s.CreatedAt.UTC().Format(time.RFC1123), s.ClientAddress)
	return b.String()
}
