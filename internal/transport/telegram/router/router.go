// Package router turns transport updates into command and callback handler
// calls on a bounded worker pool.
package router

import (
	"context"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	rtsup "spawnbot/internal/runtime/supervisor"
	kit "spawnbot/internal/transport"
	"spawnbot/pkg/logx"
	"spawnbot/pkg/tgui"
)

type Options struct {
	Workers        int
	QueueSize      int
	DefaultTimeout time.Duration
}

type CommandManager struct {
	log    logx.Logger
	sender kit.Sender
	opts   Options

	mu        sync.RWMutex
	cmds      map[string]*Command // name and aliases
	ordered   []*Command
	callbacks map[string]map[string]CallbackRoute // namespace -> action

	runMu   sync.Mutex
	running bool
	sup     *rtsup.Supervisor

	jobs chan func()
}

func NewCommandManager(log logx.Logger, sender kit.Sender, opts Options) *CommandManager {
	if log.IsZero() {
		log = logx.Nop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	return &CommandManager{
		log:       log,
		sender:    sender,
		opts:      opts,
		cmds:      map[string]*Command{},
		callbacks: map[string]map[string]CallbackRoute{},
		jobs:      make(chan func(), opts.QueueSize),
	}
}

// Supervisor returns the worker pool supervisor, nil when not running.
func (m *CommandManager) Supervisor() *rtsup.Supervisor {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if !m.running {
		return nil
	}
	return m.sup
}

func (m *CommandManager) setSupervisor(sup *rtsup.Supervisor, running bool) {
	m.runMu.Lock()
	m.sup = sup
	m.running = running
	m.runMu.Unlock()
}

// tryEnqueue reports false when the queue is full or already closed.
func (m *CommandManager) tryEnqueue(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	select {
	case m.jobs <- fn:
		return true
	default:
		return false
	}
}

// SetRegistry replaces the command and callback tables. A /help command is
// always added.
func (m *CommandManager) SetRegistry(cmds []Command, cbs []CallbackRoute) {
	cmds = append(cmds, Command{
		Name:        "help",
		Aliases:     []string{"h", "start"},
		Description: "Show available commands",
		Usage:       "/help [command]",
		Handle: func(ctx context.Context, req *Request) error {
			return req.Reply(ctx, m.helpMessage(req.Args))
		},
	})

	table := map[string]*Command{}
	ordered := make([]*Command, 0, len(cmds))
	for i := range cmds {
		c := &cmds[i]
		name := sanitizeTelegramCommand(c.Name)
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		table[name] = c
		ordered = append(ordered, c)
	}
	// aliases never shadow a real command name
	for _, c := range ordered {
		for _, a := range c.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" {
				continue
			}
			if _, exists := table[a]; !exists {
				table[a] = c
			}
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	cb := map[string]map[string]CallbackRoute{}
	for _, r := range cbs {
		ns := strings.TrimSpace(r.Namespace)
		a := strings.TrimSpace(r.Action)
		if ns == "" || a == "" || r.Handle == nil {
			continue
		}
		if cb[ns] == nil {
			cb[ns] = map[string]CallbackRoute{}
		}
		cb[ns][a] = r
	}

	m.mu.Lock()
	m.cmds = table
	m.ordered = ordered
	m.callbacks = cb
	m.mu.Unlock()
}

// PublishMenu pushes the visible commands to the platform menu when the
// sender supports it.
func (m *CommandManager) PublishMenu(ctx context.Context) error {
	up, ok := m.sender.(kit.CommandMenuUpdater)
	if !ok {
		return nil
	}
	return up.UpdateMenuCommands(ctx, m.menuCommands())
}

func (m *CommandManager) menuCommands() []kit.BotCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]kit.BotCommand, 0, len(m.ordered))
	for _, c := range m.ordered {
		if c.Hidden {
			continue
		}
		desc := strings.ReplaceAll(strings.TrimSpace(c.Description), "\n", " ")
		out = append(out, kit.BotCommand{Command: c.Name, Description: desc})
	}
	return out
}

func (m *CommandManager) lookup(word string) (*Command, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cmds[word]
	return c, ok
}

func (m *CommandManager) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	sup := rtsup.New(ctx,
		rtsup.WithLogger(m.log.With(logx.String("comp", "telegram.router"))),
		rtsup.WithCancelOnError(false),
	)
	m.setSupervisor(sup, true)
	m.log.Info("command dispatcher started", logx.Int("workers", m.opts.Workers), logx.Int("job_queue_cap", cap(m.jobs)))

	for i := 0; i < m.opts.Workers; i++ {
		idx := i
		sup.GoRestart("command.worker."+strconv.Itoa(idx), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job, ok := <-m.jobs:
					if !ok {
						return nil
					}
					m.runJob(idx, job)
				}
			}
		}, rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second))
	}

	defer func() {
		m.setSupervisor(nil, false)
		close(m.jobs)
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		m.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			m.routeUpdate(ctx, up)
		}
	}
}

func (m *CommandManager) runJob(worker int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("panic in command job", logx.Int("worker", worker), logx.Any("panic", r), logx.Stack(string(debug.Stack())))
		}
	}()
	job()
}

func (m *CommandManager) routeUpdate(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		m.routeMessage(ctx, up)
	case kit.UpdateCallback:
		m.routeCallback(ctx, up)
	}
}

func (m *CommandManager) newRequest(up kit.Update, chat kit.ChatTarget, fromID int64, reporter, command string) *Request {
	rid := uuid.NewString()[:8]
	return &Request{
		Update:   up,
		Chat:     chat,
		FromID:   fromID,
		Reporter: reporter,
		Command:  command,
		ReqID:    rid,
		Sender:   m.sender,
		Logger: m.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", chat.ChatID),
			logx.Int("thread_id", chat.ThreadID),
			logx.Int64("from_id", fromID),
			logx.String("cmd", command),
		),
	}
}

func (m *CommandManager) timeout(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return m.opts.DefaultTimeout
}

func (m *CommandManager) routeMessage(ctx context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil {
		return
	}
	word, rest, ok := splitCommand(msg.Text)
	if !ok {
		return
	}
	chat := kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}

	cmd, ok := m.lookup(word)
	if !ok {
		// in groups other bots' commands are none of our business
		if msg.IsGroup {
			return
		}
		_, _ = tgui.Text("Unknown command. Try /help").Send(ctx, m.sender, chat)
		return
	}

	req := m.newRequest(up, chat, msg.FromID, msg.Reporter(), cmd.Name)
	req.Args = tokenizeCommandLine(rest)
	req.ArgText = rest

	final := Chain(cmd.Handle,
		MWPanicRecover(m.log),
		MWRequestLog(m.log),
		MWTimeout(m.timeout(cmd.Timeout)),
	)
	if !m.tryEnqueue(func() { _ = final(ctx, req) }) {
		_, _ = tgui.Text("Busy, try again in a moment.").Send(ctx, m.sender, chat)
	}
}

func (m *CommandManager) routeCallback(ctx context.Context, up kit.Update) {
	cb := up.Callback
	if cb == nil {
		return
	}
	ns, action, payload, ok := tgui.ParseData(cb.Data)
	if !ok {
		_ = m.sender.AnswerCallback(ctx, cb.ID, "")
		return
	}

	m.mu.RLock()
	route, ok := m.callbacks[ns][action]
	m.mu.RUnlock()
	if !ok {
		_ = m.sender.AnswerCallback(ctx, cb.ID, "This button is no longer supported.")
		return
	}

	name := reporterName(cb)
	req := m.newRequest(up, kit.ChatTarget{ChatID: cb.ChatID, ThreadID: cb.ThreadID}, cb.FromID, name, "cb:"+ns+":"+action)
	req.Payload = payload
	req.Ref = kit.MessageRef{ChatID: cb.ChatID, ThreadID: cb.ThreadID, MessageID: cb.MessageID}

	h := func(ctx context.Context, r *Request) error { return route.Handle(ctx, r, payload) }
	final := Chain(h,
		MWPanicRecover(m.log),
		MWRequestLog(m.log),
		MWTimeout(m.timeout(route.Timeout)),
	)
	if !m.tryEnqueue(func() {
		text := ""
		if err := final(ctx, req); err != nil {
			text = "Something went wrong."
		}
		// stops the client's loading spinner
		_ = m.sender.AnswerCallback(ctx, cb.ID, text)
	}) {
		_ = m.sender.AnswerCallback(ctx, cb.ID, "Busy, try again.")
	}
}

func reporterName(cb *kit.Callback) string {
	msg := kit.Message{FromName: cb.FromName, FromUsername: cb.FromUsername}
	return msg.Reporter()
}
