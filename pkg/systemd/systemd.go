// Package systemd reports service state to systemd through sd_notify.
// Outside systemd (no NOTIFY_SOCKET) every call is a silent no-op.
package systemd

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify states. The zero value talks to the real socket.
type Notifier struct {
	// notify replaces daemon.SdNotify in tests.
	notify func(unsetEnv bool, state string) (bool, error)
	// watchdog replaces daemon.SdWatchdogEnabled in tests.
	watchdog func(unsetEnv bool) (time.Duration, error)
}

func (n Notifier) send(state string) (bool, error) {
	if n.notify != nil {
		return n.notify(false, state)
	}
	return daemon.SdNotify(false, state)
}

// Ready reports READY=1. sent is false when not running under systemd.
func (n Notifier) Ready() (sent bool, err error) { return n.send(daemon.SdNotifyReady) }

func (n Notifier) Stopping() (bool, error) { return n.send(daemon.SdNotifyStopping) }

func (n Notifier) Reloading() (bool, error) { return n.send(daemon.SdNotifyReloading) }

// Ping sends one WATCHDOG=1 keep-alive.
func (n Notifier) Ping() (bool, error) { return n.send(daemon.SdNotifyWatchdog) }

// WatchdogInterval returns how often Ping should run: half of WatchdogSec,
// or 0 when the watchdog is off.
func (n Notifier) WatchdogInterval() (time.Duration, error) {
	fn := n.watchdog
	if fn == nil {
		fn = daemon.SdWatchdogEnabled
	}
	d, err := fn(false)
	if err != nil || d <= 0 {
		return 0, err
	}
	return d / 2, nil
}
