// Package relay delivers contact dispatches through an external email
// service.
package relay

import (
	"errors"
	"fmt"

	"github.com/MohammedGhazal09/portfolio/internal/config"
	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	ProviderEmailJS = "emailjs"
	ProviderSMTP    = "smtp"
	ProviderLog     = "log"
)

var ErrNotConfigured = errors.New("relay not configured")

// Error is a non-success response from the relay service.
type Error struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s relay: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s relay: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// New builds the relay selected by relay.provider, wrapped in a tracing span.
func New(cfg *config.Config, logger *zap.Logger, tracer trace.Tracer) (contact.Relay, error) {
	provider := cfg.GetString("relay.provider")
	timeout := cfg.GetDuration("relay.timeout", defaultTimeout)

	var r contact.Relay
	switch provider {
	case ProviderEmailJS:
		for _, key := range []string{"emailjs.service_id", "emailjs.template_id", "emailjs.public_key"} {
			if cfg.GetString(key) == "" {
				return nil, fmt.Errorf("%w: %s is empty", ErrNotConfigured, key)
			}
		}
		r = NewEmailJS(cfg.GetString("emailjs.endpoint"), cfg.GetString("emailjs.private_key"), timeout)
	case ProviderSMTP:
		s, err := NewSMTP(SMTPConfig{
			Host:     cfg.GetString("smtp.host"),
			Port:     cfg.GetInt("smtp.port"),
			Username: cfg.GetString("smtp.user"),
			Password: cfg.GetString("smtp.pass"),
			To:       cfg.GetString("smtp.to"),
		})
		if err != nil {
			return nil, err
		}
		r = s
	case ProviderLog, "":
		provider = ProviderLog
		r = NewLog(logger)
	default:
		return nil, fmt.Errorf("unknown relay provider %q", provider)
	}

	logger.Info("Contact relay configured", zap.String("provider", provider))
	return NewTraced(r, tracer, provider), nil
}
