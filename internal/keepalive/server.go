// Package keepalive serves the liveness page hosting platforms poll, a JSON
// health report and, optionally, Prometheus metrics and pprof.
package keepalive

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spawnbot/pkg/logx"
)

const AliveText = "Bot is alive and running!"

type Config struct {
	Addr    string
	Metrics bool
	Pprof   bool

	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

// HealthFunc contributes one section to the /healthz report.
type HealthFunc func() any

type Server struct {
	cfg     Config
	log     logx.Logger
	started time.Time

	mu     sync.Mutex
	health map[string]HealthFunc
	order  []string
	addr   string
}

func New(cfg Config, log logx.Logger) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{
		cfg:     cfg,
		log:     log.With(logx.String("comp", "keepalive")),
		started: time.Now(),
		health:  map[string]HealthFunc{},
	}
}

// AddHealth registers a named section. Sections appear in registration
// order; re-registering a name replaces its func.
func (s *Server) AddHealth(name string, fn HealthFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.health[name]; !ok {
		s.order = append(s.order, name)
	}
	s.health[name] = fn
}

// Addr is the bound address while Run is serving, or "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(AliveText))
	})
	mux.HandleFunc("/healthz", s.serveHealth)
	if s.cfg.Metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	if s.cfg.Pprof {
		mux.HandleFunc("/debug/pprof/", hpprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", hpprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", hpprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", hpprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", hpprof.Trace)
	}
	return mux
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := append([]string(nil), s.order...)
	fns := make([]HealthFunc, len(names))
	for i, n := range names {
		fns[i] = s.health[n]
	}
	s.mu.Unlock()

	report := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	for i, n := range names {
		report[n] = fns[i]()
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		s.log.Warn("health encode failed", logx.Err(err))
	}
}

// Run listens and serves until ctx is done. A listen failure is returned so
// a supervisor can retry it.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.addr = ""
		s.mu.Unlock()
	}()

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(sctx)
		cancel()
	}()

	s.log.Info("keep-alive server started",
		logx.String("addr", ln.Addr().String()),
		logx.Bool("metrics", s.cfg.Metrics),
		logx.Bool("pprof", s.cfg.Pprof),
	)
	err = srv.Serve(ln)
	if ctx.Err() != nil || errors.Is(err, http.ErrServerClosed) {
		s.log.Info("keep-alive server stopped")
		return nil
	}
	return err
}
