// Package web serves the portfolio page, its HTMX fragments and assets.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/config"
	"github.com/MohammedGhazal09/portfolio/internal/content"
	"github.com/MohammedGhazal09/portfolio/internal/media"
	"github.com/MohammedGhazal09/portfolio/internal/scene"
	"github.com/MohammedGhazal09/portfolio/internal/session"
	"github.com/MohammedGhazal09/portfolio/internal/theme"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	engine   *gin.Engine
	logger   *zap.Logger
	content  *content.Content
	sessions *session.Store
	images   *media.Optimizer
	hasher   *ipHasher

	port          int
	staticDir     string
	secureCookies bool
	rateLimit     int
	rateWindow    time.Duration

	sceneSeed    int64
	defaultScene atomic.Pointer[scene.Scene]
	stopObserve  func()
}

func NewServer(cfg *config.Config, logger *zap.Logger, c *content.Content, sessions *session.Store, images *media.Optimizer) (*Server, error) {
	hasher, err := newIPHasher()
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:        logger,
		content:       c,
		sessions:      sessions,
		images:        images,
		hasher:        hasher,
		port:          cfg.GetInt("server.port"),
		staticDir:     cfg.GetString("server.static_dir"),
		secureCookies: cfg.GetBool("server.secure_cookies"),
		rateLimit:     cfg.GetInt("contact.rate_limit"),
		rateWindow:    cfg.GetDuration("contact.rate_window", time.Minute),
		sceneSeed:     time.Now().UnixNano(),
	}

	s.rebuildScene(theme.Current())
	s.stopObserve = theme.Observe(s.rebuildScene)

	gin.SetMode(cfg.GetString("server.mode"))
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetStringSlice("server.trusted_proxies")); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(s.recovery())
	r.Use(requestLogger(logger, hasher))
	r.Use(securityHeaders())
	r.Use(compress("/images/"))

	s.engine = r
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.engine

	r.Static("/static", s.staticDir)

	r.GET("/privacy", s.handlePrivacy)
	r.GET("/health", s.handleHealth)
	r.POST("/theme", s.handleTheme)
	r.GET("/scene.json", s.handleScene)
	r.GET("/images/:name", s.handleImage)
	r.GET("/contact/status", s.handleContactStatus)

	forms := r.Group("/", s.formSession())
	forms.GET("/", s.handleIndex)
	forms.GET("/contact-form", s.handleContactForm)
	forms.POST("/contact/field", s.handleUpdateField)
	forms.POST("/contact", rateLimiter(s.rateLimit, s.rateWindow, s.hasher, s.tooManyRequests), s.handleSubmit)
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.Int("port", s.port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Close releases the theme observer. Sessions and images are owned by
// the caller.
func (s *Server) Close() {
	if s.stopObserve != nil {
		s.stopObserve()
	}
}

func (s *Server) rebuildScene(t theme.Theme) {
	sc := scene.Build(t, s.sceneSeed)
	s.defaultScene.Store(&sc)
	s.logger.Debug("default scene rebuilt", zap.Stringer("theme", t))
}
