// Package notifier delivers spawn alerts to the configured Telegram chat.
//
// Delivery is synchronous: Send returns only after the transport accepted
// the message or every retry failed. The tracker relies on that to commit
// its fired marker only for confirmed alerts. Sends share one token bucket
// so a burst of simultaneous spawns does not trip Telegram's flood limits.
package notifier
