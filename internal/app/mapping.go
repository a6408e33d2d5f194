package app

import (
	"fmt"
	"strings"
	"time"

	"hookrelay/internal/config"
	"hookrelay/internal/discord/webhook"
	"hookrelay/internal/dispatch"
	"hookrelay/internal/scheduler"
	"hookrelay/internal/storage"
	logx "hookrelay/pkg/logx"
)

func mapLogxConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Webhook: logx.WebhookConfig{
			Enabled:    cfg.Logging.Webhook.Enabled,
			MinLevel:   cfg.Logging.Webhook.MinLevel,
			RatePerSec: cfg.Logging.Webhook.RatePerSec,
		},
	}
}

func mapDispatchConfig(cfg *config.Config) (dispatch.Config, error) {
	// Omitting the whole section means "enabled with defaults".
	out := dispatch.Config{Enabled: true, DefaultRoute: "default"}
	d := cfg.Dispatch
	if d == nil {
		return out, nil
	}

	out.Enabled = d.Enabled
	out.Workers = d.Workers
	out.QueueSize = d.QueueSize
	out.RatePerSec = d.RatePerSec
	out.RetryMax = d.RetryMax
	out.DedupMaxEntries = d.DedupMaxEntries
	out.PersistDedup = d.PersistDedup
	if strings.TrimSpace(d.DefaultRoute) != "" {
		out.DefaultRoute = d.DefaultRoute
	}

	var err error
	if out.RetryBase, err = config.ParseDurationField("dispatch.retry_base", d.RetryBase); err != nil {
		return dispatch.Config{}, err
	}
	if out.RetryMaxDelay, err = config.ParseDurationField("dispatch.retry_max_delay", d.RetryMaxDelay); err != nil {
		return dispatch.Config{}, err
	}
	if out.DedupWindow, err = config.ParseDurationField("dispatch.dedup_window", d.DedupWindow); err != nil {
		return dispatch.Config{}, err
	}
	return out, nil
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	out := scheduler.Config{
		Enabled:  cfg.Scheduler.Enabled,
		Timezone: cfg.Scheduler.Timezone,
	}
	if tz := strings.TrimSpace(out.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler.timezone: invalid %q: %w", tz, err)
		}
	}
	for i, j := range cfg.Scheduler.Jobs {
		if err := scheduler.ValidateSpec(j.Cron); err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler.jobs[%d].cron: %w", i, err)
		}
		out.Jobs = append(out.Jobs, scheduler.Job{
			Name:     j.Name,
			Cron:     j.Cron,
			Route:    j.Route,
			Content:  j.Content,
			Priority: j.Priority,
		})
	}
	return out, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=file")
		}
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

// buildClient maps one webhook route to a delivery client.
func buildClient(name string, wc config.WebhookConfig, log logx.Logger) (*webhook.Client, error) {
	opts := []webhook.Option{
		webhook.WithDefaults(wc.Username, wc.AvatarURL),
		webhook.WithLogger(log.With(logx.String("route", name))),
	}
	if wc.Wait != nil {
		opts = append(opts, webhook.WithWait(*wc.Wait))
	}
	if strings.TrimSpace(wc.Timeout) != "" {
		d, err := config.ParseDurationField("webhooks."+name+".timeout", wc.Timeout)
		if err != nil {
			return nil, err
		}
		if d > 0 {
			opts = append(opts, webhook.WithTimeout(d))
		}
	}
	return webhook.New(wc.URL, opts...), nil
}

func buildClients(cfg *config.Config, log logx.Logger) (map[string]*webhook.Client, error) {
	out := make(map[string]*webhook.Client, len(cfg.Webhooks))
	for name, wc := range cfg.Webhooks {
		c, err := buildClient(name, wc, log)
		if err != nil {
			for _, built := range out {
				_ = built.Close()
			}
			return nil, err
		}
		out[name] = c
	}
	return out, nil
}

func routesFor(clients map[string]*webhook.Client) map[string]dispatch.Sender {
	routes := make(map[string]dispatch.Sender, len(clients))
	for name, c := range clients {
		routes[name] = c
	}
	return routes
}

func closeClients(clients map[string]*webhook.Client) {
	for _, c := range clients {
		_ = c.Close()
	}
}
