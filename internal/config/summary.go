package config

import (
	"reflect"
	"sort"
	"strings"

	logx "hookrelay/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections and safe
// structured attrs for logging. Webhook URLs never appear in the
// output; only route names do.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.webhook_enabled", newCfg.Logging.Webhook.Enabled),
		)
	}

	if routes := diffRoutes(oldCfg.Webhooks, newCfg.Webhooks); len(routes) > 0 {
		changed = append(changed, "webhooks")
		attrs = append(attrs,
			logx.String("webhooks.changed", strings.Join(routes, ",")),
			logx.Int("webhooks.count", len(newCfg.Webhooks)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Dispatch, newCfg.Dispatch) {
		changed = append(changed, "dispatch")
		if d := newCfg.Dispatch; d != nil {
			attrs = append(attrs,
				logx.Bool("dispatch.enabled", d.Enabled),
				logx.Int("dispatch.workers", d.Workers),
				logx.Int("dispatch.rate_per_sec", d.RatePerSec),
			)
		}
	}

	if !reflect.DeepEqual(oldCfg.Scheduler, newCfg.Scheduler) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.Int("scheduler.jobs", len(newCfg.Scheduler.Jobs)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		if s := newCfg.Storage; s != nil {
			attrs = append(attrs, logx.String("storage.driver", s.Driver))
		}
	}

	return changed, attrs
}

// diffRoutes lists route names whose webhook config changed, was added,
// or was removed.
func diffRoutes(oldM, newM map[string]WebhookConfig) []string {
	set := map[string]struct{}{}
	for k := range oldM {
		set[k] = struct{}{}
	}
	for k := range newM {
		set[k] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		o, okOld := oldM[name]
		n, okNew := newM[name]
		if okOld != okNew || !reflect.DeepEqual(o, n) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
