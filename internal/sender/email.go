package sender

import (
	"context"
	"net"
	"net/mail"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/config"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// EmailSender delivers outreach email over a direct SMTP connection via go-mail.
type EmailSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewEmailSender creates an EmailSender from SMTP configuration. Returns nil
// when the channel is disabled or unconfigured.
func NewEmailSender(cfg config.EmailSenderConfig) *EmailSender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return nil
	}

	return &EmailSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// Channel implements Sender.
func (s *EmailSender) Channel() domain.Channel { return domain.ChannelEmail }

// Send implements Sender. An unparseable recipient address is a permanent
// failure; dial and delivery problems are transient.
func (s *EmailSender) Send(ctx context.Context, lead domain.Lead, m Message) (Result, error) {
	to := lead.EmailAddress()
	if to == "" {
		return Result{}, Permanentf("lead %s has no email address", lead.ID)
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return Result{}, Permanentf("invalid email address %q: %v", to, err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return Result{}, Permanent(err)
	}
	if err := msg.To(to); err != nil {
		return Result{}, Permanent(err)
	}
	messageID := uuid.NewString()
	msg.SetMessageIDWithValue(messageID)
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return Result{}, Transient(err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return Result{}, Transient(err)
	}

	return Result{ProviderMessageID: messageID}, nil
}
