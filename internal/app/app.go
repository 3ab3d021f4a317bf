package app

import (
	"context"
	"fmt"
	"time"

	"spawnbot/internal/commands"
	"spawnbot/internal/config"
	"spawnbot/internal/eventbus"
	"spawnbot/internal/keepalive"
	"spawnbot/internal/mqtt"
	"spawnbot/internal/notifier"
	rtsup "spawnbot/internal/runtime/supervisor"
	"spawnbot/internal/storage"
	"spawnbot/internal/task/scheduler"
	"spawnbot/internal/tracker"
	kit "spawnbot/internal/transport"
	telegram "spawnbot/internal/transport/telegram/adapter"
	"spawnbot/internal/transport/telegram/router"
	"spawnbot/pkg/logx"
	"spawnbot/pkg/systemd"
)

// Scheduler job names.
const (
	jobTick     = "tracker.tick"
	jobAutosave = "tracker.autosave"
	jobWatchdog = "systemd.watchdog"
)

const tickTimeout = 2 * time.Minute

type App struct {
	cfgm *config.ConfigManager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  *eventbus.Bus

	store   storage.Store
	catalog *tracker.Catalog
	tracker *tracker.Tracker
	notif   *notifier.Service

	adapter *telegram.Adapter
	cmdm    *router.CommandManager
	sched   *scheduler.Service
	ka      *keepalive.Server
	sd      systemd.Notifier

	settings config.TrackerSettings
	updates  chan kit.Update
}

// New loads cfgPath and builds every component. Background work starts with
// Start.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	ts, err := config.ResolveTracker(cfg.Tracker)
	if err != nil {
		return nil, err
	}
	catalog := tracker.DefaultCatalog()
	if ts.CatalogPath != "" {
		if catalog, err = tracker.LoadCatalog(ts.CatalogPath); err != nil {
			return nil, fmt.Errorf("tracker.catalog_path: %w", err)
		}
	}

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		if store, err = storage.Open(sc, log); err != nil {
			return nil, err
		}
		log.Info("storage enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	} else {
		log.Warn("storage disabled; state will not survive a restart")
	}

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, config.DefaultPollTimeout)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logs.Logger())
	if err != nil {
		closeStore(store)
		return nil, err
	}
	logs.AttachSender(ad)

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	notif := notifier.New(ncfg, ad, logs.Logger().With(logx.String("comp", "notifier")))

	bus := eventbus.New()
	opts := tracker.Options{
		Clock:      tracker.SystemClock{Location: ts.Location},
		Sink:       notif,
		Events:     bus,
		Log:        logs.Logger(),
		LeadWindow: ts.LeadWindow,
	}
	if store != nil {
		opts.Store = store
	}
	tr := tracker.New(catalog, opts)

	cmdTimeout, err := config.ParseDurationOrDefault("telegram.command_timeout", cfg.Telegram.CommandTimeout, config.DefaultCommandTimeout)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	hopts := commands.Options{Log: logs.Logger()}
	if store != nil {
		hopts.Audit = store
	}
	handlers := commands.New(tr, hopts)
	cmdm := router.NewCommandManager(logs.Logger().With(logx.String("comp", "router")), ad, router.Options{
		Workers:        cfg.Telegram.Workers,
		DefaultTimeout: cmdTimeout,
	})
	cmdm.SetRegistry(handlers.Commands(), handlers.Callbacks())

	a := &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logs,
		bus:      bus,
		store:    store,
		catalog:  catalog,
		tracker:  tr,
		notif:    notif,
		adapter:  ad,
		cmdm:     cmdm,
		sched:    scheduler.New(ts.Location, logs.Logger()),
		settings: ts,
		updates:  make(chan kit.Update, 256),
	}
	if kc, enabled, err := mapKeepAliveConfig(cfg); err != nil {
		closeStore(store)
		return nil, err
	} else if enabled {
		a.ka = keepalive.New(kc, logs.Logger())
	}
	return a, nil
}

func closeStore(s storage.Store) {
	if s != nil {
		_ = s.Close()
	}
}

// Done is closed when the app supervisor context is cancelled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	run := a.sup.Context()

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if _, _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		_, _, err := mapKeepAliveConfig(cfg)
		return err
	})

	loadCtx, cancel := context.WithTimeout(run, 10*time.Second)
	err := a.tracker.Load(loadCtx)
	cancel()
	if err != nil {
		// Start with empty state rather than refuse to run; resets can be
		// reported again.
		a.log.Error("state load failed; starting empty", logx.Err(err))
	}

	if err := a.adapter.Start(run, a.updates); err != nil {
		return err
	}
	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.cmdm.DispatchLoop(c, a.updates)
	})
	a.sup.GoRestart("tracker.persist", a.tracker.RunPersister,
		rtsup.WithRestartBackoff(time.Second, 30*time.Second),
	)

	if err := a.registerJobs(); err != nil {
		return err
	}
	a.sched.Start()

	if a.ka != nil {
		a.registerHealth()
		a.sup.GoRestart("keepalive.http", a.ka.Run, rtsup.WithRestartBackoff(time.Second, time.Minute))
	}
	if mc, qos, ok := mapMQTTConfig(a.cfgm.Get()); ok {
		a.startMQTT(mc, qos)
	}

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.sup.Go0("telegram.menu", func(c context.Context) {
		mctx, cancel := context.WithTimeout(c, 15*time.Second)
		defer cancel()
		if err := a.cmdm.PublishMenu(mctx); err != nil {
			a.log.Warn("command menu not published", logx.Err(err))
		}
	})
	if a.settings.AnnounceStartup {
		a.sup.Go0("startup.announce", func(c context.Context) {
			actx, cancel := context.WithTimeout(c, 30*time.Second)
			defer cancel()
			if err := a.notif.Announce(actx, commands.StartupMessage(a.catalog, a.tracker.Now())); err != nil {
				a.log.Warn("startup announcement failed", logx.Err(err))
			}
		})
	}

	if sent, err := a.sd.Ready(); err != nil {
		a.log.Warn("sd_notify READY failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify READY sent")
	}
	a.log.Info("app started",
		logx.Int("entities", a.catalog.Len()),
		logx.String("timezone", a.settings.Location.String()),
		logx.Duration("tick", a.settings.TickInterval),
		logx.Duration("lead_window", a.settings.LeadWindow),
	)
	return nil
}

func (a *App) tickJob(ctx context.Context) error {
	rep := a.tracker.Tick(ctx)
	if len(rep.Fired)+len(rep.Rearmed)+len(rep.Failed) > 0 {
		a.log.Debug("tick",
			logx.Strs("fired", rep.Fired),
			logx.Strs("rearmed", rep.Rearmed),
			logx.Strs("failed", rep.Failed),
		)
	}
	return nil
}

func (a *App) autosaveJob(context.Context) error {
	a.tracker.Autosave()
	return nil
}

func (a *App) registerJobs() error {
	if err := a.sched.AddInterval(jobTick, a.settings.TickInterval, tickTimeout, a.tickJob); err != nil {
		return err
	}
	if err := a.sched.AddInterval(jobAutosave, a.settings.AutosaveInterval, 0, a.autosaveJob); err != nil {
		return err
	}
	iv, err := a.sd.WatchdogInterval()
	if err != nil {
		a.log.Warn("systemd watchdog config unreadable", logx.Err(err))
	}
	if iv > 0 {
		ping := func(context.Context) error {
			_, err := a.sd.Ping()
			return err
		}
		if err := a.sched.AddInterval(jobWatchdog, max(iv, time.Second), 0, ping); err != nil {
			return err
		}
		a.log.Info("systemd watchdog enabled", logx.Duration("interval", iv))
	}
	return nil
}

func (a *App) registerHealth() {
	a.ka.AddHealth("tracker", func() any {
		return map[string]any{
			"entities":    a.catalog.Len(),
			"lead_window": a.tracker.LeadWindow().String(),
			"dirty":       a.tracker.Dirty(),
			"now":         a.tracker.Now(),
		}
	})
	a.ka.AddHealth("supervisor", func() any { return a.sup.Snapshot() })
	a.ka.AddHealth("telegram", func() any {
		if sup := a.adapter.Supervisor(); sup != nil {
			return sup.Snapshot()
		}
		return nil
	})
	a.ka.AddHealth("scheduler", func() any { return a.sched.Snapshot() })
	a.ka.AddHealth("notifier", func() any { return a.notif.History() })
	a.ka.AddHealth("eventbus", func() any { return map[string]uint64{"dropped": a.bus.Dropped()} })
}

// startMQTT dials in the background so a missing broker never delays
// startup; failed dials are retried by the supervisor.
func (a *App) startMQTT(mc mqtt.ClientConfig, qos byte) {
	log := a.logs.Logger()
	a.sup.GoRestart("mqtt.bridge", func(c context.Context) error {
		pub, err := mqtt.Dial(mc, log.With(logx.String("comp", "mqtt")))
		if err != nil {
			return err
		}
		defer pub.Close()
		events, unsub := a.bus.Subscribe(64,
			tracker.EventReset, tracker.EventNotified, tracker.EventRearmed, tracker.EventCleared,
		)
		defer unsub()
		return mqtt.NewBridge(pub, mc.Topic, qos, log).Run(c, events)
	}, rtsup.WithRestartBackoff(5*time.Second, 5*time.Minute))
}
