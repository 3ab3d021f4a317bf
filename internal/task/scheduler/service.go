package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"spawnbot/pkg/logx"
)

var ErrDuplicateName = errors.New("scheduler: job name already registered")

// JobFunc is one unit of scheduled work. ctx is cancelled on Stop or when
// the per-job timeout elapses.
type JobFunc func(ctx context.Context) error

// Entry describes a registered job for health output.
type Entry struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next,omitzero"`
	Prev     time.Time `json:"prev,omitzero"`
	Runs     int64     `json:"runs"`
	Failures int64     `json:"failures"`
	LastErr  string    `json:"last_err,omitempty"`
}

type job struct {
	name     string
	schedule string
	timeout  time.Duration
	fn       JobFunc
	id       cron.EntryID

	runs     atomic.Int64
	failures atomic.Int64
	lastErr  atomic.Pointer[string]
}

// Service wraps a cron runner. Every job runs behind a recover and a
// skip-if-still-running chain, so a slow job drops its next firing instead
// of stacking up.
type Service struct {
	log    logx.Logger
	parser cron.Parser
	c      *cron.Cron

	mu      sync.Mutex
	jobs    map[string]*job
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

func New(loc *time.Location, log logx.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "scheduler"))
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		log:    log,
		parser: parser,
		c: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		jobs:   map[string]*job{},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a job from a schedule string accepted by ParseSchedule.
func (s *Service) Add(name, schedule string, timeout time.Duration, fn JobFunc) error {
	ps, err := ParseSchedule(schedule)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	switch ps.Kind {
	case SpecInterval:
		return s.AddInterval(name, ps.Every, timeout, fn)
	default:
		return s.AddCron(name, ps.Cron, timeout, fn)
	}
}

// AddInterval registers a job that fires every d, first after d.
func (s *Service) AddInterval(name string, every time.Duration, timeout time.Duration, fn JobFunc) error {
	if every <= 0 {
		return fmt.Errorf("job %s: interval must be > 0", name)
	}
	return s.add(name, "@every "+every.String(), cron.Every(every), timeout, fn)
}

func (s *Service) AddCron(name, expr string, timeout time.Duration, fn JobFunc) error {
	sched, err := s.parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return fmt.Errorf("job %s: invalid cron %q: %w", name, expr, err)
	}
	return s.add(name, expr, sched, timeout, fn)
}

// Replace swaps the job registered under name for one firing every d. The
// old entry stays scheduled when the new one is invalid. Used when a reload
// changes an interval.
func (s *Service) Replace(name string, every time.Duration, timeout time.Duration, fn JobFunc) error {
	if every <= 0 {
		return fmt.Errorf("job %s: interval must be > 0", name)
	}
	j, err := newJob(name, "@every "+every.String(), timeout, fn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old, ok := s.jobs[j.name]
	j.id = s.c.Schedule(cron.Every(every), cron.FuncJob(func() { s.run(j) }))
	s.jobs[j.name] = j
	s.mu.Unlock()
	if ok {
		s.c.Remove(old.id)
	}
	s.log.Debug("job replaced", logx.String("job", j.name), logx.String("schedule", j.schedule))
	return nil
}

func newJob(name, label string, timeout time.Duration, fn JobFunc) (*job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("scheduler: job name required")
	}
	if fn == nil {
		return nil, fmt.Errorf("job %s: nil func", name)
	}
	return &job{name: name, schedule: label, timeout: timeout, fn: fn}, nil
}

func (s *Service) add(name, label string, sched cron.Schedule, timeout time.Duration, fn JobFunc) error {
	j, err := newJob(name, label, timeout, fn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, j.name)
	}
	j.id = s.c.Schedule(sched, cron.FuncJob(func() { s.run(j) }))
	s.jobs[j.name] = j
	s.log.Debug("job registered", logx.String("job", j.name), logx.String("schedule", label))
	return nil
}

// Remove unregisters a job. It reports whether one existed.
func (s *Service) Remove(name string) bool {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if ok {
		delete(s.jobs, name)
	}
	s.mu.Unlock()
	if ok {
		s.c.Remove(j.id)
	}
	return ok
}

func (s *Service) run(j *job) {
	ctx := s.ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	start := time.Now()
	err := j.fn(ctx)
	j.runs.Add(1)
	if err != nil {
		j.failures.Add(1)
		msg := err.Error()
		j.lastErr.Store(&msg)
		s.log.Warn("job failed", logx.String("job", j.name), logx.Duration("took", time.Since(start)), logx.Err(err))
		return
	}
	j.lastErr.Store(nil)
}

// RunNow executes a registered job synchronously, outside the cron chain.
func (s *Service) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("scheduler: unknown job %q", name)
	}
	s.run(j)
	if p := j.lastErr.Load(); p != nil {
		return errors.New(*p)
	}
	return nil
}

func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.c.Start()
	s.log.Info("scheduler started", logx.Int("jobs", len(s.jobs)))
}

// Stop halts new firings, cancels running jobs and waits for them until
// ctx is done.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		s.cancel()
		return nil
	}
	done := s.c.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot lists jobs sorted by name.
func (s *Service) Snapshot() []Entry {
	s.mu.Lock()
	jobs := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	out := make([]Entry, 0, len(jobs))
	for _, j := range jobs {
		ce := s.c.Entry(j.id)
		e := Entry{
			Name:     j.name,
			Schedule: j.schedule,
			Next:     ce.Next,
			Prev:     ce.Prev,
			Runs:     j.runs.Load(),
			Failures: j.failures.Load(),
		}
		if p := j.lastErr.Load(); p != nil {
			e.LastErr = *p
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// cronLogger routes cron's own messages into logx. Skips and recovered
// panics are the interesting ones.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	if msg == "skip" {
		l.log.Info("job skipped; previous run still active", kvFields(kv)...)
		return
	}
	l.log.Debug("cron "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		out = append(out, logx.Any(k, kv[i+1]))
	}
	return out
}
