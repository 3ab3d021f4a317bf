package app

import (
	"context"
	"strings"

	"spawnbot/internal/config"
	"spawnbot/pkg/logx"
)

// reloadLoop applies published configs until ctx is done. Bursts coalesce
// to the newest config.
func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					break drain
				}
			}
			a.applyConfig(lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

// applyConfig pushes the hot-reloadable parts of newCfg into the running
// components. Restart-only sections are reported and left alone.
func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	a.log.Debug("config change summary", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)

	var restart []string
	for _, s := range sections {
		if config.RequiresRestart(s) {
			restart = append(restart, s)
		}
	}
	if len(restart) > 0 {
		a.log.Warn("config sections changed; restart required for changes to take effect", logx.Strs("sections", restart))
	}

	a.logs.Apply(mapLoggingConfig(newCfg))

	if ts, err := config.ResolveTracker(newCfg.Tracker); err != nil {
		a.log.Warn("invalid tracker config; keeping previous", logx.Err(err))
	} else {
		if ts.LeadWindow != a.settings.LeadWindow {
			a.tracker.SetLeadWindow(ts.LeadWindow)
			a.log.Info("lead window updated", logx.Duration("lead_window", ts.LeadWindow))
		}
		if ts.TickInterval != a.settings.TickInterval {
			if err := a.sched.Replace(jobTick, ts.TickInterval, tickTimeout, a.tickJob); err != nil {
				a.log.Warn("tick interval not applied", logx.Err(err))
				ts.TickInterval = a.settings.TickInterval
			} else {
				a.log.Info("tick interval updated", logx.Duration("tick", ts.TickInterval))
			}
		}
		if ts.AutosaveInterval != a.settings.AutosaveInterval {
			if err := a.sched.Replace(jobAutosave, ts.AutosaveInterval, 0, a.autosaveJob); err != nil {
				a.log.Warn("autosave interval not applied", logx.Err(err))
				ts.AutosaveInterval = a.settings.AutosaveInterval
			}
		}
		// Location and catalog stay as loaded until restart.
		ts.Location = a.settings.Location
		ts.CatalogPath = a.settings.CatalogPath
		a.settings = ts
	}

	if ncfg, err := mapNotifierConfig(newCfg); err != nil {
		a.log.Warn("invalid notifier config; keeping previous", logx.Err(err))
	} else {
		a.notif.Apply(ncfg)
	}

	a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
}
