// Package scheduler fires named periodic jobs from cron expressions or
// fixed intervals. Jobs never overlap with themselves and a panicking job
// is recovered and logged.
package scheduler
