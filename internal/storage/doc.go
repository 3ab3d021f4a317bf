// Package storage persists tracker state between restarts.
//
// Two drivers exist: "file" (an atomically replaced JSON snapshot plus a
// JSON Lines audit log) and "sqlite" (modernc.org/sqlite, no cgo).
package storage
