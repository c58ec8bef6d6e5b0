package config

import (
	"os"
	"strings"
)

// expandEnv resolves a whole-value ${VAR_NAME} placeholder against the
// process environment. Anything else, including placeholders for unset
// variables, is returned unchanged; an unresolved placeholder stays the
// literal webhook target and fails at send time instead of load time.
func expandEnv(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "${") || !strings.HasSuffix(t, "}") {
		return s
	}
	key := t[2 : len(t)-1]
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s
}

// applyEnv expands environment placeholders in the fields that accept them.
func applyEnv(cfg *Config) {
	for i := range cfg.Streamers {
		cfg.Streamers[i].WebhookURL = expandEnv(cfg.Streamers[i].WebhookURL)
	}
}
