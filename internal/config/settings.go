package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultTimezone         = "Asia/Manila"
	DefaultTickInterval     = 30 * time.Second
	DefaultLeadWindow       = 10 * time.Minute
	DefaultAutosaveInterval = 5 * time.Minute
	DefaultPollTimeout      = 10 * time.Second
	DefaultCommandTimeout   = 15 * time.Second
	DefaultKeepAliveAddr    = ":8080"
	DefaultMQTTTopic        = "spawnbot/events"
)

// TrackerSettings is the resolved form of TrackerConfig.
type TrackerSettings struct {
	Location         *time.Location
	TickInterval     time.Duration
	LeadWindow       time.Duration
	AutosaveInterval time.Duration
	NotifyChatID     int64
	NotifyThreadID   int
	CatalogPath      string
	AnnounceStartup  bool
}

// NotifierSettings is the resolved form of NotifierConfig.
type NotifierSettings struct {
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	SendTimeout   time.Duration
}

// ResolveTracker parses durations and loads the timezone, applying defaults.
func ResolveTracker(c TrackerConfig) (TrackerSettings, error) {
	var (
		s   TrackerSettings
		err error
	)
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	if s.Location, err = time.LoadLocation(tz); err != nil {
		return s, fmt.Errorf("tracker.timezone: %w", err)
	}
	if s.TickInterval, err = ParseDurationOrDefault("tracker.tick_interval", c.TickInterval, DefaultTickInterval); err != nil {
		return s, err
	}
	if s.LeadWindow, err = ParseDurationOrDefault("tracker.lead_window", c.LeadWindow, DefaultLeadWindow); err != nil {
		return s, err
	}
	if s.AutosaveInterval, err = ParseDurationOrDefault("tracker.autosave_interval", c.AutosaveInterval, DefaultAutosaveInterval); err != nil {
		return s, err
	}
	if s.TickInterval < time.Second {
		return s, errors.New("tracker.tick_interval: must be at least 1s")
	}
	s.NotifyChatID = c.NotifyChatID
	s.NotifyThreadID = c.NotifyThreadID
	s.CatalogPath = strings.TrimSpace(c.CatalogPath)
	s.AnnounceStartup = c.AnnounceStartup
	return s, nil
}

// ResolveNotifier applies notifier defaults; a nil section yields defaults.
func ResolveNotifier(c *NotifierConfig) (NotifierSettings, error) {
	s := NotifierSettings{RatePerSec: 1, RetryMax: 3}
	if c == nil {
		c = &NotifierConfig{}
	}
	if c.RatePerSec > 0 {
		s.RatePerSec = c.RatePerSec
	}
	if c.RetryMax > 0 {
		s.RetryMax = c.RetryMax
	}
	var err error
	if s.RetryBase, err = ParseDurationOrDefault("notifier.retry_base", c.RetryBase, 500*time.Millisecond); err != nil {
		return s, err
	}
	if s.RetryMaxDelay, err = ParseDurationOrDefault("notifier.retry_max_delay", c.RetryMaxDelay, 10*time.Second); err != nil {
		return s, err
	}
	if s.SendTimeout, err = ParseDurationOrDefault("notifier.send_timeout", c.SendTimeout, 10*time.Second); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks everything that can be checked without side effects.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if _, err := ResolveTracker(cfg.Tracker); err != nil {
		errs = append(errs, err)
	}
	if _, err := ResolveNotifier(cfg.Notifier); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("telegram.command_timeout", cfg.Telegram.CommandTimeout); err != nil {
		errs = append(errs, err)
	}
	if st := cfg.Storage; st != nil {
		switch strings.ToLower(strings.TrimSpace(st.Driver)) {
		case "", "none", "file", "sqlite":
		default:
			errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", st.Driver))
		}
		if _, err := ParseDurationField("storage.busy_timeout", st.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	if ka := cfg.KeepAlive; ka != nil {
		if _, err := ParseDurationField("keepalive.read_timeout", ka.ReadTimeout); err != nil {
			errs = append(errs, err)
		}
		if _, err := ParseDurationField("keepalive.idle_timeout", ka.IdleTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	if mq := cfg.MQTT; mq != nil && mq.Enabled {
		if strings.TrimSpace(mq.Broker) == "" {
			errs = append(errs, errors.New("mqtt.broker: required when mqtt is enabled"))
		}
		if mq.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos: must be 0, 1 or 2, got %d", mq.QoS))
		}
	}
	return errors.Join(errs...)
}
