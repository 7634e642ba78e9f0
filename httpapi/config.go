package httpapi

import "pkt.systems/hackterm/schema"

// Config defines HTTP API and UI settings.
type Config struct {
	Addr               string
	SessionCookie      string
	SessionTTLHours    int
	BaseURL            string
	BasePath           string
	AllowedOrigins     []string
	RateLimit          float64
	RateBurst          int
	InitialBufferLines int
	UIMaxBufferLines   int
	Theme              schema.ThemeName
}

const (
	defaultSessionCookie = "hackterm_session"
	defaultSessionTTL    = 24
	defaultRateLimit     = 20
	defaultRateBurst     = 40
)

func (c Config) withDefaults() Config {
	if c.SessionCookie == "" {
		c.SessionCookie = defaultSessionCookie
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = defaultSessionTTL
	}
	if c.RateLimit <= 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = defaultRateBurst
	}
	if theme, ok := schema.NormalizeThemeName(string(c.Theme)); ok {
		c.Theme = theme
	} else {
		c.Theme = schema.DefaultTheme
	}
	return c
}
