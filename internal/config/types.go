package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chzzkwatch/internal/detect"
)

// Config is the declarative monitor configuration (config.yaml).
//
// All durations are Go duration strings (e.g. "500ms", "1s").
type Config struct {
	// PollIntervalSeconds is informational in one-shot mode (the external
	// scheduler enforces it); daemon mode derives its default schedule from it.
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty"`

	// ViewerThresholds are deduplicated and sorted ascending before use.
	ViewerThresholds []int `json:"viewer_thresholds,omitempty"`

	Streamers []Streamer `json:"streamers"`

	StateFile string `json:"state_file,omitempty"` // default "./state.json"

	// SendSpacing is the minimum delay between two sends to the same webhook.
	SendSpacing string `json:"send_spacing,omitempty"` // default "1s"

	// Schedule is a cron spec for daemon mode. If empty, daemon mode runs
	// every poll_interval_seconds.
	Schedule string `json:"schedule,omitempty"`

	Logging LoggingConfig `json:"logging,omitempty"`
	History HistoryConfig `json:"history,omitempty"`
	Server  ServerConfig  `json:"server,omitempty"`
}

// Streamer describes one monitored channel.
type Streamer struct {
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
	ChzzkURL  string `json:"chzzk_url,omitempty"`

	// WebhookURL may be a ${ENV_VAR} placeholder, resolved at load time.
	// Unresolved placeholders are kept literally and will fail at send time.
	WebhookURL string `json:"webhook_url"`

	// DiscordRoleID is mentioned as <@&ID> when set. Accepts a YAML string,
	// number or null.
	DiscordRoleID RoleID `json:"discord_role_id,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console *bool       `json:"console,omitempty"` // default true
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// HistoryConfig controls the optional event audit log.
//
// Driver values: "file" (JSON Lines), "sqlite", "" / "none" (disabled).
type HistoryConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
}

// ServerConfig controls the optional daemon-mode status HTTP server.
type ServerConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Addr    string `json:"addr,omitempty"` // default "127.0.0.1:8590"
}

// RoleID is a Discord role id. Snowflakes are commonly written both quoted
// and bare in YAML, so both forms are accepted.
type RoleID string

func (r *RoleID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*r = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*r = RoleID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("discord_role_id: want string or number: %w", err)
	}
	*r = RoleID(n.String())
	return nil
}

var ErrNoStreamers = errors.New("config has no streamers")

// Validate checks the parts that must be right before any work starts.
func (c *Config) Validate() error {
	if c == nil || len(c.Streamers) == 0 {
		return ErrNoStreamers
	}
	for i, s := range c.Streamers {
		if strings.TrimSpace(s.ChannelID) == "" {
			return fmt.Errorf("streamers[%d] (%q): channel_id is required", i, s.Name)
		}
	}
	if _, err := ParseDurationField("send_spacing", c.SendSpacing); err != nil {
		return err
	}
	return nil
}

// Thresholds returns viewer_thresholds normalized (ascending, deduplicated).
func (c *Config) Thresholds() []int {
	return detect.NormalizeThresholds(c.ViewerThresholds)
}

// StatePath returns state_file with its default applied.
func (c *Config) StatePath() string {
	if strings.TrimSpace(c.StateFile) == "" {
		return "./state.json"
	}
	return c.StateFile
}

// Spacing returns send_spacing with its default applied.
func (c *Config) Spacing() time.Duration {
	d, err := ParseDurationOrDefault("send_spacing", c.SendSpacing, time.Second)
	if err != nil {
		return time.Second
	}
	return d
}

// PollInterval returns poll_interval_seconds with its default applied.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// CronSpec returns the daemon-mode schedule: the explicit cron spec when
// set, otherwise an @every interval derived from poll_interval_seconds.
func (c *Config) CronSpec() string {
	if s := strings.TrimSpace(c.Schedule); s != "" {
		return s
	}
	return "@every " + c.PollInterval().String()
}

// ConsoleLogging reports whether console output is enabled (default true).
func (c *Config) ConsoleLogging() bool {
	if c.Logging.Console == nil {
		return true
	}
	return *c.Logging.Console
}
