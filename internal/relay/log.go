package relay

import (
	"context"

	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"go.uber.org/zap"
)

// Log is a development relay that logs dispatches and reports success.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger.With(zap.String("component", "contact_relay"))}
}

func (l *Log) Send(ctx context.Context, d contact.Dispatch) error {
	l.logger.Info("contact message delivered to log",
		zap.String("template_id", d.TemplateID),
		zap.String("from_name", d.Params["from_name"]),
		zap.String("from_email", d.Params["from_email"]),
		zap.String("subject", d.Params["subject"]),
		zap.Int("message_len", len(d.Params["message"])),
	)
	return nil
}
