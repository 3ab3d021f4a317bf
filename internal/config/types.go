package config

// Config is the on-disk configuration, JSON or YAML.
//
// All durations are Go duration strings ("30s", "10m"). Empty durations fall
// back to the defaults documented on each field.
type Config struct {
	Telegram  TelegramConfig   `json:"telegram"`
	Logging   LoggingConfig    `json:"logging"`
	Tracker   TrackerConfig    `json:"tracker"`
	Notifier  *NotifierConfig  `json:"notifier,omitempty"`
	Storage   *StorageConfig   `json:"storage,omitempty"`
	KeepAlive *KeepAliveConfig `json:"keepalive,omitempty"`
	MQTT      *MQTTConfig      `json:"mqtt,omitempty"`
}

type TelegramConfig struct {
	// Token may be left empty and supplied through SPAWNBOT_TELEGRAM_TOKEN.
	Token string `json:"token"`
	// PollTimeout defaults to 10s.
	PollTimeout string `json:"poll_timeout"`
	// CommandTimeout bounds a single command handler. Defaults to 15s.
	CommandTimeout string `json:"command_timeout,omitempty"`
	Workers        int    `json:"workers,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     int64  `json:"chat_id"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// TrackerConfig drives the spawn tracker core.
type TrackerConfig struct {
	// Timezone is the single calendar zone. Defaults to Asia/Manila.
	Timezone string `json:"timezone,omitempty"`
	// TickInterval is the notification poll cadence. Defaults to 30s.
	TickInterval string `json:"tick_interval,omitempty"`
	// LeadWindow is how far ahead of an occurrence the alert fires. Defaults to 10m.
	LeadWindow string `json:"lead_window,omitempty"`
	// AutosaveInterval re-requests a state save. Defaults to 5m.
	AutosaveInterval string `json:"autosave_interval,omitempty"`

	// NotifyChatID is where spawn alerts go.
	NotifyChatID   int64 `json:"notify_chat_id"`
	NotifyThreadID int   `json:"notify_thread_id,omitempty"`

	// CatalogPath overrides the embedded entity catalog with a YAML file.
	CatalogPath string `json:"catalog_path,omitempty"`

	AnnounceStartup bool `json:"announce_startup,omitempty"`
}

// NotifierConfig controls spawn alert delivery.
type NotifierConfig struct {
	RatePerSec    int    `json:"rate_per_sec"`
	RetryMax      int    `json:"retry_max"`
	RetryBase     string `json:"retry_base"`
	RetryMaxDelay string `json:"retry_max_delay"`
	SendTimeout   string `json:"send_timeout,omitempty"`
}

// StorageConfig selects the persistence driver.
//
//	"storage": { "driver": "sqlite", "path": "./spawnbot.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// KeepAliveConfig controls the HTTP liveness server. Pprof handlers are only
// mounted when Pprof is true.
type KeepAliveConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default ":8080"
	Pprof   bool   `json:"pprof,omitempty"`
	Metrics bool   `json:"metrics,omitempty"`

	ReadTimeout string `json:"read_timeout,omitempty"`
	IdleTimeout string `json:"idle_timeout,omitempty"`
}

// MQTTConfig enables the tracker event bridge.
type MQTTConfig struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id,omitempty"`
	Topic    string `json:"topic,omitempty"` // default "spawnbot/events"
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	QoS      byte   `json:"qos,omitempty"`
}
