package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config wraps the viper instance holding the site configuration.
type Config struct {
	v *viper.Viper
}

// New loads configuration from defaults, an optional config file and the
// environment. A missing config file is not an error.
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/portfolio/")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper wraps an existing viper instance.
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper returns a viper instance holding only the defaults.
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("relay.provider", "log")
	v.SetDefault("relay.timeout", "15s")

	v.SetDefault("emailjs.endpoint", "https://api.emailjs.com")
	v.SetDefault("emailjs.service_id", "")
	v.SetDefault("emailjs.template_id", "")
	v.SetDefault("emailjs.public_key", "")
	v.SetDefault("emailjs.private_key", "")

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.pass", "")
	v.SetDefault("smtp.to", "")

	v.SetDefault("contact.reset_delay", "3s")
	v.SetDefault("contact.rate_limit", 5)
	v.SetDefault("contact.rate_window", "1m")

	v.SetDefault("session.ttl", "30m")
	v.SetDefault("theme.default", "dark")
	v.SetDefault("content.path", "")

	v.SetDefault("images.dir", "./images")
	v.SetDefault("images.cache_ttl", "1h")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "portfolio")
}

// bindEnv maps keys to environment variables. Keys use their dotted name
// upper-cased with underscores; a few also accept the names the site used
// before the move to a Go server.
func bindEnv(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string][]string{
		"server.port":             {"SERVER_PORT", "PORT"},
		"emailjs.service_id":      {"EMAILJS_SERVICE_ID", "VITE_EMAILJS_SERVICE_ID"},
		"emailjs.template_id":     {"EMAILJS_TEMPLATE_ID", "VITE_EMAILJS_TEMPLATE_ID"},
		"emailjs.public_key":      {"EMAILJS_PUBLIC_KEY", "VITE_EMAILJS_PUBLIC_KEY"},
		"smtp.to":                 {"SMTP_TO", "TO_EMAIL"},
		"telemetry.otlp_endpoint": {"TELEMETRY_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
		"telemetry.service_name":  {"TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME"},
	}
	for key, names := range aliases {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Watch calls fn whenever the config file changes on disk. It is a no-op
// when no config file was found.
func (c *Config) Watch(fn func()) {
	if c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(fsnotify.Event) { fn() })
	c.v.WatchConfig()
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration parses a duration value, falling back to def when the value
// is missing or malformed.
func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	raw := c.v.GetString(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Set overrides a value. Used by tests and flag handling.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}
