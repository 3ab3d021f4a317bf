// Package tgui holds the Telegram UI helpers used by the command layer:
// HTML-safe text builders, inline keyboards, callback data encoding and a
// reply payload that can be sent or edited in place.
package tgui
