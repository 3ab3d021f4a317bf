package app

import (
	"testing"
	"time"

	"spawnbot/internal/config"
	"spawnbot/internal/notifier"
	"spawnbot/internal/task/scheduler"
	"spawnbot/internal/tracker"
	"spawnbot/pkg/logx"
)

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      *config.StorageConfig
		enabled bool
		driver  string
		path    string
		wantErr bool
	}{
		{name: "absent"},
		{name: "none", in: &config.StorageConfig{Driver: "none"}},
		{name: "file default path", in: &config.StorageConfig{Driver: "file"}, enabled: true, driver: "file", path: "./spawnbot-state.json"},
		{name: "sqlite", in: &config.StorageConfig{Driver: "SQLite", Path: "./s.db"}, enabled: true, driver: "sqlite", path: "./s.db"},
		{name: "sqlite without path", in: &config.StorageConfig{Driver: "sqlite"}, wantErr: true},
		{name: "bad busy timeout", in: &config.StorageConfig{Driver: "sqlite", Path: "x", BusyTimeout: "soon"}, wantErr: true},
		{name: "unknown", in: &config.StorageConfig{Driver: "redis"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, enabled, err := mapStorageConfig(&config.Config{Storage: tt.in})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if enabled != tt.enabled || sc.Driver != tt.driver || sc.Path != tt.path {
				t.Fatalf("got (%+v, %v)", sc, enabled)
			}
		})
	}
}

func TestMapKeepAliveAndMQTT(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		KeepAlive: &config.KeepAliveConfig{Enabled: true, Metrics: true, ReadTimeout: "5s"},
		MQTT:      &config.MQTTConfig{Enabled: true, Broker: " tcp://broker:1883 ", QoS: 1},
	}
	kc, enabled, err := mapKeepAliveConfig(cfg)
	if err != nil || !enabled {
		t.Fatalf("keepalive: %v %v", enabled, err)
	}
	if kc.Addr != config.DefaultKeepAliveAddr || !kc.Metrics || kc.ReadTimeout != 5*time.Second {
		t.Fatalf("keepalive config = %+v", kc)
	}

	mc, qos, ok := mapMQTTConfig(cfg)
	if !ok || qos != 1 || mc.Broker != "tcp://broker:1883" || mc.Topic != config.DefaultMQTTTopic {
		t.Fatalf("mqtt config = %+v qos=%d ok=%v", mc, qos, ok)
	}

	if _, enabled, _ := mapKeepAliveConfig(&config.Config{}); enabled {
		t.Fatal("absent keepalive section should be disabled")
	}
	if _, _, ok := mapMQTTConfig(&config.Config{MQTT: &config.MQTTConfig{Broker: "x"}}); ok {
		t.Fatal("mqtt without enabled flag should be off")
	}
}

func TestMapNotifierConfigUsesTrackerTarget(t *testing.T) {
	t.Parallel()
	nc, err := mapNotifierConfig(&config.Config{
		Tracker:  config.TrackerConfig{NotifyChatID: -100123, NotifyThreadID: 7},
		Notifier: &config.NotifierConfig{RatePerSec: 2, RetryBase: "1s"},
	})
	if err != nil {
		t.Fatalf("mapNotifierConfig: %v", err)
	}
	if nc.Target.ChatID != -100123 || nc.Target.ThreadID != 7 {
		t.Fatalf("target = %+v", nc.Target)
	}
	if nc.RatePerSec != 2 || nc.RetryBase != time.Second || nc.RetryMax != 3 {
		t.Fatalf("config = %+v", nc)
	}
}

func newReloadApp(t *testing.T) *App {
	t.Helper()
	logs, log := logx.New(logx.Config{Level: "error"})
	t.Cleanup(func() { _ = logs.Close() })

	manila, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		t.Fatal(err)
	}
	a := &App{
		log:     log,
		logs:    logs,
		tracker: tracker.New(tracker.DefaultCatalog(), tracker.Options{LeadWindow: 10 * time.Minute}),
		notif:   notifier.New(notifier.Config{}, nil, logx.Nop()),
		sched:   scheduler.New(manila, logx.Nop()),
		settings: config.TrackerSettings{
			Location:         manila,
			TickInterval:     30 * time.Second,
			LeadWindow:       10 * time.Minute,
			AutosaveInterval: 5 * time.Minute,
		},
	}
	if err := a.registerJobs(); err != nil {
		t.Fatalf("registerJobs: %v", err)
	}
	return a
}

func TestApplyConfigHotReloadsTrackerAndNotifier(t *testing.T) {
	t.Parallel()
	a := newReloadApp(t)

	oldCfg := &config.Config{Tracker: config.TrackerConfig{TickInterval: "30s", LeadWindow: "10m"}}
	newCfg := &config.Config{
		Tracker: config.TrackerConfig{
			Timezone:     "UTC",
			TickInterval: "15s",
			LeadWindow:   "20m",
			NotifyChatID: 42,
		},
	}
	a.applyConfig(oldCfg, newCfg)

	if got := a.tracker.LeadWindow(); got != 20*time.Minute {
		t.Fatalf("lead window = %v, want 20m", got)
	}
	var tick scheduler.Entry
	for _, e := range a.sched.Snapshot() {
		if e.Name == jobTick {
			tick = e
		}
	}
	if tick.Schedule != "@every 15s" {
		t.Fatalf("tick schedule = %q, want @every 15s", tick.Schedule)
	}
	if got := a.notif.Target().ChatID; got != 42 {
		t.Fatalf("notifier target = %d, want 42", got)
	}
	if got := a.settings.Location.String(); got != "Asia/Manila" {
		t.Fatalf("timezone changed live to %q; it needs a restart", got)
	}
}

func TestApplyConfigKeepsPreviousOnInvalidTracker(t *testing.T) {
	t.Parallel()
	a := newReloadApp(t)
	a.applyConfig(&config.Config{}, &config.Config{Tracker: config.TrackerConfig{LeadWindow: "-"}})
	if got := a.tracker.LeadWindow(); got != 10*time.Minute {
		t.Fatalf("lead window = %v, want unchanged 10m", got)
	}
}
