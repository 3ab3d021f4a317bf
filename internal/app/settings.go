package app

import (
	"fmt"
	"strings"
	"time"

	"spawnbot/internal/config"
	"spawnbot/internal/keepalive"
	"spawnbot/internal/mqtt"
	"spawnbot/internal/notifier"
	"spawnbot/internal/storage"
	kit "spawnbot/internal/transport"
	"spawnbot/pkg/logx"
)

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
			path = "./spawnbot-state.json"
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

func mapLoggingConfig(cfg *config.Config) logx.Config {
	l := cfg.Logging
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			ChatID:     l.Telegram.ChatID,
			ThreadID:   l.Telegram.ThreadID,
			MinLevel:   l.Telegram.MinLevel,
			RatePerSec: l.Telegram.RatePerSec,
		},
	}
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	ns, err := config.ResolveNotifier(cfg.Notifier)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		Target: kit.ChatTarget{
			ChatID:   cfg.Tracker.NotifyChatID,
			ThreadID: cfg.Tracker.NotifyThreadID,
		},
		RatePerSec:    ns.RatePerSec,
		RetryMax:      ns.RetryMax,
		RetryBase:     ns.RetryBase,
		RetryMaxDelay: ns.RetryMaxDelay,
		SendTimeout:   ns.SendTimeout,
	}, nil
}

// mapKeepAliveConfig reports enabled=false when the section is absent.
func mapKeepAliveConfig(cfg *config.Config) (keepalive.Config, bool, error) {
	ka := cfg.KeepAlive
	if ka == nil || !ka.Enabled {
		return keepalive.Config{}, false, nil
	}
	out := keepalive.Config{
		Addr:    strings.TrimSpace(ka.Addr),
		Metrics: ka.Metrics,
		Pprof:   ka.Pprof,
	}
	if out.Addr == "" {
		out.Addr = config.DefaultKeepAliveAddr
	}
	var err error
	if out.ReadTimeout, err = config.ParseDurationField("keepalive.read_timeout", ka.ReadTimeout); err != nil {
		return keepalive.Config{}, false, err
	}
	if out.IdleTimeout, err = config.ParseDurationField("keepalive.idle_timeout", ka.IdleTimeout); err != nil {
		return keepalive.Config{}, false, err
	}
	return out, true, nil
}

func mapMQTTConfig(cfg *config.Config) (mqtt.ClientConfig, byte, bool) {
	mq := cfg.MQTT
	if mq == nil || !mq.Enabled {
		return mqtt.ClientConfig{}, 0, false
	}
	topic := strings.TrimSpace(mq.Topic)
	if topic == "" {
		topic = config.DefaultMQTTTopic
	}
	return mqtt.ClientConfig{
		Broker:   strings.TrimSpace(mq.Broker),
		ClientID: strings.TrimSpace(mq.ClientID),
		Username: mq.Username,
		Password: mq.Password,
		Topic:    topic,
	}, mq.QoS, true
}
