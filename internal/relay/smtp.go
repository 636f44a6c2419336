package relay

import (
	"context"
	"fmt"
	"html"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/microcosm-cc/bluemonday"
)

// SMTPConfig describes the mailbox the site sends contact messages through.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// To is where contact messages are delivered. Defaults to Username.
	To string
}

type sendMailFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// SMTP relays dispatches as plain-text email to the site owner. The
// dispatch's service and template identifiers are not used.
type SMTP struct {
	addr     string
	from     string
	to       string
	auth     sasl.Client
	policy   *bluemonday.Policy
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTP validates cfg and creates the relay.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: SMTP credentials not configured", ErrNotConfigured)
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: SMTP host not configured", ErrNotConfigured)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	to := cfg.To
	if to == "" {
		to = cfg.Username
	}
	return &SMTP{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:     cfg.Username,
		to:       to,
		auth:     sasl.NewPlainClient("", cfg.Username, cfg.Password),
		policy:   bluemonday.StrictPolicy(),
		sendMail: smtp.SendMail,
		now:      time.Now,
	}, nil
}

// Send composes and delivers the message. go-smtp has no context support,
// so ctx is only checked before dialing.
func (s *SMTP) Send(ctx context.Context, d contact.Dispatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := s.compose(d.Params)
	if err := s.sendMail(s.addr, s.auth, s.from, []string{s.to}, strings.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTP) compose(p contact.Payload) string {
	name := header(s.plain(p["from_name"]))
	email := header(s.plain(p["from_email"]))
	subject := header(s.plain(p["subject"]))
	message := strings.ReplaceAll(s.plain(p["message"]), "\r\n", "\n")

	body := fmt.Sprintf(`New contact form submission from your portfolio:

Name: %s
Email: %s
Subject: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, email, subject, message)

	var b strings.Builder
	b.WriteString("To: " + s.to + "\r\n")
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("Reply-To: " + email + "\r\n")
	b.WriteString("Subject: Portfolio Contact: " + subject + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.String()
}

// plain strips markup, keeping the text readable.
func (s *SMTP) plain(v string) string {
	return html.UnescapeString(s.policy.Sanitize(v))
}

// header flattens a value onto one line so it cannot inject headers.
func header(v string) string {
	return strings.Join(strings.Fields(v), " ")
}
