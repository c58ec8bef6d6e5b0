package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewManager(path)
}

const sampleYAML = `
poll_interval_seconds: 300
viewer_thresholds: [500, 100, 300, 100]
streamers:
  - name: Mbeung
    channel_id: a872c0594e60f943748d76c565dd3a07
    chzzk_url: https://chzzk.naver.com/a872c0594e60f943748d76c565dd3a07
    webhook_url: ${WEBHOOK_MBEUNG}
    discord_role_id: null
  - name: Nari
    channel_id: 1755e5012c4dcd4eb94aec03205d6201
    webhook_url: https://discord.com/api/webhooks/x/y
    discord_role_id: 123456789012345678
`

func TestLoadYAML(t *testing.T) {
	t.Setenv("WEBHOOK_MBEUNG", "https://discord.com/api/webhooks/a/b")

	m := writeConfig(t, "config.yaml", sampleYAML)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Streamers[0].WebhookURL != "https://discord.com/api/webhooks/a/b" {
		t.Fatalf("env placeholder not expanded: %q", cfg.Streamers[0].WebhookURL)
	}
	if cfg.Streamers[0].DiscordRoleID != "" {
		t.Fatalf("null role id = %q, want empty", cfg.Streamers[0].DiscordRoleID)
	}
	if cfg.Streamers[1].DiscordRoleID != "123456789012345678" {
		t.Fatalf("numeric role id = %q", cfg.Streamers[1].DiscordRoleID)
	}
	if got := cfg.Thresholds(); !reflect.DeepEqual(got, []int{100, 300, 500}) {
		t.Fatalf("Thresholds() = %v", got)
	}
	if cfg.PollInterval() != 5*time.Minute {
		t.Fatalf("PollInterval() = %v", cfg.PollInterval())
	}
	if m.Get() != cfg {
		t.Fatal("Get() should return committed config")
	}
}

func TestUnresolvedPlaceholderKeptLiteral(t *testing.T) {
	// Deliberately not setting WEBHOOK_MBEUNG.
	os.Unsetenv("WEBHOOK_MBEUNG")
	m := writeConfig(t, "config.yaml", sampleYAML)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Streamers[0].WebhookURL != "${WEBHOOK_MBEUNG}" {
		t.Fatalf("unresolved placeholder = %q, want literal", cfg.Streamers[0].WebhookURL)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "config.yaml", "streamers: []\nnot_a_field: 1\n")
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateEmpty(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}

	cfg = &Config{Streamers: []Streamer{{Name: "x"}}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for streamer without channel_id")
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := &Config{Streamers: []Streamer{{ChannelID: "abc"}}}

	if got := cfg.StatePath(); got != "./state.json" {
		t.Fatalf("StatePath() = %q", got)
	}
	if got := cfg.Spacing(); got != time.Second {
		t.Fatalf("Spacing() = %v", got)
	}
	if got := cfg.CronSpec(); got != "@every 5m0s" {
		t.Fatalf("CronSpec() = %q", got)
	}
	if !cfg.ConsoleLogging() {
		t.Fatal("ConsoleLogging() default should be true")
	}
}

func TestCronSpecExplicit(t *testing.T) {
	t.Parallel()
	cfg := &Config{Schedule: "*/5 * * * *"}
	if got := cfg.CronSpec(); got != "*/5 * * * *" {
		t.Fatalf("CronSpec() = %q", got)
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "config.json", `{"streamers":[{"name":"N","channel_id":"c1","webhook_url":"https://h/w"}],"send_spacing":"250ms"}`)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Spacing() != 250*time.Millisecond {
		t.Fatalf("Spacing() = %v", cfg.Spacing())
	}
}
