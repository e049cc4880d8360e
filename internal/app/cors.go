package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/lumen-agency/site-core/internal/config"
)

// originPatterns matches request origins by host. A pattern is an exact
// host[:port], a "*.domain" suffix or a "host:*" any-port form.
type originPatterns []string

func (p originPatterns) allows(origin string) bool {
	host := origin
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		host = u.Host
	}
	for _, pattern := range p {
		switch {
		case pattern == host:
			return true
		case strings.HasPrefix(pattern, "*.") && strings.HasSuffix(host, pattern[1:]):
			return true
		case strings.HasSuffix(pattern, ":*") && strings.HasPrefix(host, pattern[:len(pattern)-1]):
			return true
		}
	}
	return false
}

// corsConfig allows the configured origins plus the public site itself.
// Development mode and an empty allow list accept any origin.
func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Idempotence"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if cfg.IsDev() || len(cfg.AllowedOrigins) == 0 {
		c.AllowOriginFunc = func(string) bool { return true }
		return c
	}

	patterns := originPatterns(append([]string(nil), cfg.AllowedOrigins...))
	if u, err := url.Parse(cfg.Site.BaseURL); err == nil && u.Host != "" {
		patterns = append(patterns, u.Host)
	}
	c.AllowOriginFunc = patterns.allows
	return c
}
