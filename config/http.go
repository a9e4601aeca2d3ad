package config

import (
	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://kb.example.com").
	// Used for generating absolute URLs in external contexts.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}

	// A cookie domain that is itself a public suffix (e.g. "com", "co.uk")
	// would be rejected by browsers; fall back to the request domain.
	if h.CookieDomain != "" {
		if etld1, err := publicsuffix.EffectiveTLDPlusOne(h.CookieDomain); err != nil || etld1 == "" {
			h.CookieDomain = ""
		}
	}
}
