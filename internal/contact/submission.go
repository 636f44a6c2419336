package contact

import (
	"context"
	"errors"
	"strings"
)

// Field names accepted by UpdateField. They match the form input names.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldSubject  = "subject"
	FieldMessage  = "message"
	FieldHoneypot = "honeypot"
)

var (
	ErrUnknownField = errors.New("unknown contact field")
	ErrBusy         = errors.New("submission in flight")
	ErrRelayPanic   = errors.New("relay panicked")
)

// Submission holds the in-progress contact form. Honeypot is the hidden
// input only bots fill in.
type Submission struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Honeypot string `json:"-"`
}

// Complete reports whether every required field is non-empty.
func (s Submission) Complete() bool {
	for _, v := range []string{s.Name, s.Email, s.Subject, s.Message} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// IsSpam reports whether the honeypot was filled.
func (s Submission) IsSpam() bool {
	return s.Honeypot != ""
}

// Payload maps the real fields onto the relay template parameters.
func (s Submission) Payload() Payload {
	return Payload{
		"from_name":  s.Name,
		"from_email": s.Email,
		"subject":    s.Subject,
		"message":    s.Message,
	}
}

func (s *Submission) set(field, value string) error {
	switch field {
	case FieldName:
		s.Name = value
	case FieldEmail:
		s.Email = value
	case FieldSubject:
		s.Subject = value
	case FieldMessage:
		s.Message = value
	case FieldHoneypot:
		s.Honeypot = value
	default:
		return ErrUnknownField
	}
	return nil
}

// Payload is the flat key-value body handed to the relay.
type Payload map[string]string

// Dispatch is a single relay call: which service and template to use, the
// template parameters and the account token.
type Dispatch struct {
	ServiceID  string
	TemplateID string
	Params     Payload
	Token      string
}

// Relay delivers a dispatch as email on the site's behalf.
type Relay interface {
	Send(ctx context.Context, d Dispatch) error
}

// RelayFunc adapts a function to the Relay interface.
type RelayFunc func(ctx context.Context, d Dispatch) error

func (f RelayFunc) Send(ctx context.Context, d Dispatch) error {
	return f(ctx, d)
}
