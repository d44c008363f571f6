package config

import "time"

// Environment names recognised by the client. Anything other than
// development is treated as production.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds runtime settings for the TeamLoop CLI.
//
// Fields:
//   - ServerURL: base URL of the backend REST API.
//   - RequestTimeout: per-request deadline for API calls.
//   - Environment: "development" or "production"; controls development-only
//     behaviour such as reset-link previews.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	Environment    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.Environment = EnvProduction
}

// IsDevelopment reports whether the client runs against a development
// backend.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
