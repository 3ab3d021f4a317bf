// Package logx wraps zerolog for spawnbot.
//
// Console output is human readable, file output is JSON lines, and an
// optional Telegram sink forwards warnings to a chat under a rate limit.
// The zero Logger discards everything, so components can hold one
// unconditionally.
package logx
