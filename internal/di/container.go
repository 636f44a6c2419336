package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/MohammedGhazal09/portfolio/internal/config"
	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"github.com/MohammedGhazal09/portfolio/internal/content"
	"github.com/MohammedGhazal09/portfolio/internal/logging"
	"github.com/MohammedGhazal09/portfolio/internal/media"
	"github.com/MohammedGhazal09/portfolio/internal/relay"
	"github.com/MohammedGhazal09/portfolio/internal/session"
	"github.com/MohammedGhazal09/portfolio/internal/telemetry"
	"github.com/MohammedGhazal09/portfolio/internal/web"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register tracing
	if err := container.Provide(telemetry.NewProvider); err != nil {
		return nil, err
	}

	// Register message relay
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger, tp *telemetry.Provider) (contact.Relay, error) {
		return relay.New(cfg, logger, tp.Tracer())
	}); err != nil {
		return nil, err
	}

	// Register page content
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*content.Content, error) {
		path := cfg.GetString("content.path")
		if path != "" {
			logger.Info("Loading content", zap.String("path", path))
		}
		return content.Load(path)
	}); err != nil {
		return nil, err
	}

	// Register image optimizer
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *media.Optimizer {
		return media.NewOptimizer(cfg.GetString("images.dir"), cfg.GetDuration("images.cache_ttl", time.Hour), logger)
	}); err != nil {
		return nil, err
	}

	// Register contact form factory
	if err := container.Provide(NewFormFactory); err != nil {
		return nil, err
	}

	// Register form sessions
	if err := container.Provide(func(f session.Factory, cfg *config.Config, logger *zap.Logger) *session.Store {
		return session.NewStore(f, cfg.GetDuration("session.ttl", 30*time.Minute), logger)
	}); err != nil {
		return nil, err
	}

	// Register web server
	if err := container.Provide(web.NewServer); err != nil {
		return nil, err
	}

	return container, nil
}

// NewFormFactory builds contact controllers wired to the relay and the
// EmailJS identifiers from configuration.
func NewFormFactory(cfg *config.Config, logger *zap.Logger, r contact.Relay) session.Factory {
	ccfg := contact.Config{
		ServiceID:  cfg.GetString("emailjs.service_id"),
		TemplateID: cfg.GetString("emailjs.template_id"),
		PublicKey:  cfg.GetString("emailjs.public_key"),
		ResetDelay: cfg.GetDuration("contact.reset_delay", contact.DefaultResetDelay),
	}
	return func(n contact.Notifier) *contact.Controller {
		return contact.New(r, n, ccfg,
			contact.WithLogger(logger),
			contact.WithObserver(func(from, to contact.Status) {
				logger.Debug("contact status", zap.Stringer("from", from), zap.Stringer("to", to))
			}),
		)
	}
}
