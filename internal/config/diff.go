package config

import (
	"reflect"
	"strings"

	"spawnbot/pkg/logx"
)

// Restart-only sections. A change is reported but not applied live.
var restartSections = map[string]bool{
	"telegram":  true,
	"storage":   true,
	"keepalive": true,
	"mqtt":      true,
	"catalog":   true,
	"timezone":  true,
}

// RequiresRestart reports whether a changed section only takes effect after a
// process restart.
func RequiresRestart(section string) bool { return restartSections[section] }

// SummarizeConfigChange returns the changed section names and safe log
// fields. Secrets (bot token, MQTT password) are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 8)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.Telegram.Token != newCfg.Telegram.Token ||
		strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout) ||
		strings.TrimSpace(oldCfg.Telegram.CommandTimeout) != strings.TrimSpace(newCfg.Telegram.CommandTimeout) ||
		oldCfg.Telegram.Workers != newCfg.Telegram.Workers {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.poll_timeout", strings.TrimSpace(newCfg.Telegram.PollTimeout)),
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
		)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	ot, nt := oldCfg.Tracker, newCfg.Tracker
	if strings.TrimSpace(ot.Timezone) != strings.TrimSpace(nt.Timezone) {
		changed = append(changed, "timezone")
		attrs = append(attrs, logx.String("tracker.timezone", nt.Timezone))
	}
	if strings.TrimSpace(ot.CatalogPath) != strings.TrimSpace(nt.CatalogPath) {
		changed = append(changed, "catalog")
		attrs = append(attrs, logx.String("tracker.catalog_path", nt.CatalogPath))
	}
	ot.Timezone, nt.Timezone = "", ""
	ot.CatalogPath, nt.CatalogPath = "", ""
	if ot != nt {
		changed = append(changed, "tracker")
		attrs = append(attrs,
			logx.String("tracker.tick_interval", nt.TickInterval),
			logx.String("tracker.lead_window", nt.LeadWindow),
			logx.Int64("tracker.notify_chat_id", nt.NotifyChatID),
		)
	}

	if !reflect.DeepEqual(oldCfg.Notifier, newCfg.Notifier) {
		changed = append(changed, "notifier")
		if n := newCfg.Notifier; n != nil {
			attrs = append(attrs,
				logx.Int("notifier.rate_per_sec", n.RatePerSec),
				logx.Int("notifier.retry_max", n.RetryMax),
			)
		}
	}

	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		if st := newCfg.Storage; st != nil {
			attrs = append(attrs, logx.String("storage.driver", st.Driver), logx.String("storage.path", st.Path))
		}
	}

	if !reflect.DeepEqual(oldCfg.KeepAlive, newCfg.KeepAlive) {
		changed = append(changed, "keepalive")
		if ka := newCfg.KeepAlive; ka != nil {
			attrs = append(attrs, logx.Bool("keepalive.enabled", ka.Enabled), logx.String("keepalive.addr", ka.Addr))
		}
	}

	if !reflect.DeepEqual(oldCfg.MQTT, newCfg.MQTT) {
		changed = append(changed, "mqtt")
		if mq := newCfg.MQTT; mq != nil {
			attrs = append(attrs, logx.Bool("mqtt.enabled", mq.Enabled), logx.String("mqtt.broker", mq.Broker))
		}
	}

	return changed, attrs
}
