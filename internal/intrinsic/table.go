package intrinsic

import (
	"time"

	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/session"
	"github.com/hollowgrid/engine/internal/syscall"
	"github.com/hollowgrid/engine/internal/world"
)

// Table is the script-facing intrinsic surface bound to one world: the
// fs/net/ssh/ftp groups share one rate limiter (spec §4.9); term is
// exempt and is dispatched straight through without touching it.
type Table struct {
	w        *world.World
	events   *event.System
	sessions *session.Manager
	disp     *syscall.Dispatcher
	limiter  *Limiter
}

// NewTable builds the intrinsic surface. disp supplies the same command
// handlers the terminal command line dispatches, so fs.* and net.*
// calls behave identically whether typed or scripted.
func NewTable(w *world.World, sys *event.System, sessions *session.Manager, disp *syscall.Dispatcher) *Table {
	return &Table{w: w, events: sys, sessions: sessions, disp: disp, limiter: NewLimiter(CallsPerSecond)}
}

// CallOpts carries the optional `session`/`route`-scoped arguments every
// network-facing intrinsic accepts as its first argument (spec §4.9):
// a terminal key identifying whose connection-frame stack to resolve
// against, and which hop of that stack to use.
type CallOpts struct {
	TerminalKey string
	HopIndex    int // hop position; -1 or any out-of-range value selects the last hop, the zero value selects the first
}

// resolveContext builds an *syscall.ExecContext for the given terminal
// and options: the current (deepest) hop unless HopIndex selects an
// earlier one explicitly, matching "session|route" first-argument
// semantics from spec §4.9.
func (t *Table) resolveContext(terminalKey string, opts CallOpts, userKey string) (*syscall.ExecContext, bool) {
	stack := t.sessions.StackFor(terminalKey)
	frames := stack.Frames()
	if len(frames) == 0 {
		return nil, false
	}
	idx := len(frames) - 1
	if opts.HopIndex >= 0 && opts.HopIndex < len(frames) {
		idx = opts.HopIndex
	}
	f := frames[idx]
	srv, ok := t.w.ServerList[f.NodeID]
	if !ok {
		return nil, false
	}
	sess, ok := srv.Sessions[f.SessionID]
	if !ok {
		return nil, false
	}
	uk := userKey
	if uk == "" {
		uk = sess.UserKey
	}
	return &syscall.ExecContext{
		World: t.w, NodeID: f.NodeID, UserKey: uk, Cwd: sess.Cwd, RemoteIP: sess.RemoteIP,
		TerminalSessionID: terminalKey,
	}, true
}

// allow charges one call against the shared limiter; term/time callers
// never invoke this.
func (t *Table) allow(now time.Time) bool {
	return t.limiter.Allow(now)
}
