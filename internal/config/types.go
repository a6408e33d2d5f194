package config

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Webhooks maps a route name to a webhook target. Routes are how
	// the rest of the config (dispatch default, scheduler jobs, the
	// logging sink) refers to a destination without repeating URLs.
	Webhooks map[string]WebhookConfig `json:"webhooks"`

	// Dispatch controls the async delivery pipeline. If the whole
	// section is omitted, dispatch defaults to enabled.
	Dispatch *DispatchConfig `json:"dispatch,omitempty"`

	Scheduler SchedulerConfig `json:"scheduler"`

	Storage *StorageConfig `json:"storage,omitempty"`
}

// WebhookConfig describes one delivery target.
//
// URL is a Discord webhook URL, the literal "bypass" (no I/O, test
// mode), or ""/"print" (log-only, development mode).
type WebhookConfig struct {
	URL       string `json:"url"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	// Timeout is a Go duration string (e.g. "30s"). Zero keeps the
	// client default.
	Timeout string `json:"timeout,omitempty"`
	// Wait toggles the ?wait query parameter. Omitted means true so
	// delivery errors surface on the POST.
	Wait *bool `json:"wait,omitempty"`
}

type LoggingConfig struct {
	Level   string         `json:"level"`
	Console bool           `json:"console"`
	File    LoggingFile    `json:"file"`
	Webhook LoggingWebhook `json:"webhook"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingWebhook mirrors operator-facing log lines to a webhook route.
type LoggingWebhook struct {
	Enabled    bool   `json:"enabled"`
	Route      string `json:"route,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// DispatchConfig controls the async delivery pipeline.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type DispatchConfig struct {
	Enabled         bool   `json:"enabled"`
	Workers         int    `json:"workers,omitempty"`
	QueueSize       int    `json:"queue_size,omitempty"`
	RatePerSec      int    `json:"rate_per_sec,omitempty"`
	RetryMax        int    `json:"retry_max,omitempty"`
	RetryBase       string `json:"retry_base,omitempty"`
	RetryMaxDelay   string `json:"retry_max_delay,omitempty"`
	DedupWindow     string `json:"dedup_window,omitempty"`
	DedupMaxEntries int    `json:"dedup_max_entries,omitempty"`
	PersistDedup    bool   `json:"persist_dedup,omitempty"`
	// DefaultRoute receives messages that don't name a route. Falls
	// back to "default" when unset.
	DefaultRoute string `json:"default_route,omitempty"`
}

// SchedulerConfig controls cron-triggered notifications.
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`
	// Timezone is an IANA TZ name, e.g. "Asia/Jakarta". Empty means local.
	Timezone string        `json:"timezone,omitempty"`
	Jobs     []ScheduleJob `json:"jobs,omitempty"`
}

// ScheduleJob posts a fixed notification on a cron spec.
type ScheduleJob struct {
	Name     string `json:"name"`
	Cron     string `json:"cron"`
	Route    string `json:"route,omitempty"`
	Content  string `json:"content"`
	Priority int    `json:"priority,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./hookrelay_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
