package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"logging": {"level": "DEBUG", "console": true, "file": {"enabled": false, "path": ""}, "webhook": {"enabled": false}},
		"webhooks": {"default": {"url": "https://example.com/webhook", "username": "relay"}},
		"dispatch": {"enabled": true, "workers": 3, "retry_base": "250ms", "default_route": "default"},
		"scheduler": {"enabled": false}
	}`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Fatalf("unexpected level %q", cfg.Logging.Level)
	}
	if cfg.Webhooks["default"].Username != "relay" {
		t.Fatalf("webhook not parsed: %+v", cfg.Webhooks)
	}
	if cfg.Dispatch == nil || cfg.Dispatch.Workers != 3 {
		t.Fatalf("dispatch not parsed: %+v", cfg.Dispatch)
	}
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: INFO
  console: true
  file: {enabled: false, path: ""}
  webhook: {enabled: false}
webhooks:
  ops:
    url: bypass
scheduler:
  enabled: true
  jobs:
    - {name: heartbeat, cron: "0 * * * *", route: ops, content: "still alive"}
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Webhooks["ops"].URL != "bypass" {
		t.Fatalf("yaml webhook not parsed: %+v", cfg.Webhooks)
	}
	if len(cfg.Scheduler.Jobs) != 1 || cfg.Scheduler.Jobs[0].Name != "heartbeat" {
		t.Fatalf("yaml jobs not parsed: %+v", cfg.Scheduler.Jobs)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.json", `{"logging": {"level": "INFO", "console": true, "file": {"enabled": false, "path": ""}, "webhook": {"enabled": false}}, "bogus": 1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatalf("expected unknown-field error")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	path := writeConfig(t, "config.json", `{"logging": {"level": "INFO", "console": true, "file": {"enabled": false, "path": ""}, "webhook": {"enabled": false}}}{"extra": true}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatalf("expected trailing-data error")
	}
}

func TestValidateUnknownRoute(t *testing.T) {
	cfg := &Config{
		Webhooks: map[string]WebhookConfig{"default": {URL: "bypass"}},
		Dispatch: &DispatchConfig{Enabled: true, DefaultRoute: "missing"},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected unknown-route error, got %v", err)
	}
}

func TestValidateSchedulerJob(t *testing.T) {
	cfg := &Config{
		Scheduler: SchedulerConfig{Enabled: true, Jobs: []ScheduleJob{{Name: "x", Cron: ""}}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing-cron error")
	}
}

func TestValidateBadDuration(t *testing.T) {
	cfg := &Config{
		Dispatch: &DispatchConfig{RetryBase: "soon"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected duration error")
	}
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", " 500ms "); err != nil || d != 500*time.Millisecond {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty should be zero, got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatalf("negative should fail")
	}
	if d, err := ParseDurationOrDefault("x", "", time.Minute); err != nil || d != time.Minute {
		t.Fatalf("default not applied: %v, %v", d, err)
	}
}

func TestSummarizeChange(t *testing.T) {
	oldCfg := &Config{
		Webhooks: map[string]WebhookConfig{"default": {URL: "https://example.com/a"}},
	}
	newCfg := &Config{
		Logging:  LoggingConfig{Level: "DEBUG"},
		Webhooks: map[string]WebhookConfig{"default": {URL: "https://example.com/b"}},
	}
	changed, attrs := SummarizeChange(oldCfg, newCfg)
	want := map[string]bool{"logging": true, "webhooks": true}
	for _, c := range changed {
		if !want[c] {
			t.Fatalf("unexpected changed section %q", c)
		}
		delete(want, c)
	}
	if len(want) != 0 {
		t.Fatalf("missing changed sections: %v", want)
	}
	if len(attrs) == 0 {
		t.Fatalf("expected attrs")
	}
}
