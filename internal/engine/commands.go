package engine

import (
	"strconv"

	"github.com/hollowgrid/engine/internal/session"
	"github.com/hollowgrid/engine/internal/syscall"
)

// registerEngineCommands adds the handlers internal/syscall's own
// RegisterBuiltins doc comment defers to this package: connect/
// disconnect (need internal/session), save/load (need internal/save),
// and DEBUG_miniscript (needs the ScriptRunner seam). Registered once,
// against e.disp, which survives world rebuilds untouched — each
// closure reads e's fields at call time, not at registration time.
func (e *Engine) registerEngineCommands() {
	e.disp.Commands.MustRegister("connect", e.handleConnect)
	e.disp.Commands.MustRegister("disconnect", e.handleDisconnect)
	e.disp.Commands.MustRegister("save", e.handleSaveCommand)
	e.disp.Commands.MustRegister("load", e.handleLoadCommand)
	e.disp.Commands.MustRegister("DEBUG_miniscript", e.handleDebugScript)
}

// handleConnect implements the `connect` system call (spec §4.7/§4.8):
// `connect [-p port] <host> <userId> <password>`, default port 22.
func (e *Engine) handleConnect(ctx *syscall.ExecContext, args []string) syscall.Result {
	const usage = "usage: connect [-p port] <host> <userId> <password>"

	port := 22
	rest := args
	if len(rest) >= 2 && rest[0] == "-p" {
		p, err := strconv.Atoi(rest[1])
		if err != nil {
			return syscall.Err(syscall.ErrInvalidArgs, usage)
		}
		port = p
		rest = rest[2:]
	}
	if len(rest) != 3 {
		return syscall.Err(syscall.ErrInvalidArgs, usage)
	}
	host, userID, password := rest[0], rest[1], rest[2]

	cur := e.contextFrom(ctx)
	next, res := e.sessions.Connect(ctx.TerminalSessionID, cur, session.ConnectRequest{
		HostOrIP: host, UserID: userID, Password: password, Port: port,
	})
	if !res.OK {
		return res
	}
	return res.WithCwd(next.Cwd).WithData(mergeData(res.Data, map[string]interface{}{
		"nodeId": next.NodeID, "userKey": next.UserKey,
		"promptUser": next.PromptUser, "promptHost": next.PromptHost,
	}))
}

// handleDisconnect implements the `disconnect` system call (spec §4.8):
// pops the top connection frame, returning a transition to the previous
// context.
func (e *Engine) handleDisconnect(ctx *syscall.ExecContext, args []string) syscall.Result {
	prev, ok := e.sessions.Disconnect(ctx.TerminalSessionID)
	if !ok {
		return syscall.Err(syscall.ErrInvalidArgs, "not connected")
	}
	return syscall.Ok().WithCwd(prev.Cwd).WithData(map[string]interface{}{
		"nodeId": prev.NodeID, "userKey": prev.UserKey,
		"promptUser": prev.PromptUser, "promptHost": prev.PromptHost,
	})
}

// handleSaveCommand implements the in-universe `save` system call
// (spec §4.7's "prototype gate"): round-trips through an in-memory slot
// rather than a real file path, since resolving a platform save path is
// explicitly an external dependency (spec §1) outside this package;
// cmd/enginectl's own `save <path>` subcommand writes the same bytes to
// disk directly instead of going through this command.
func (e *Engine) handleSaveCommand(ctx *syscall.ExecContext, args []string) syscall.Result {
	if !e.PrototypeSaveLoad {
		return syscall.Err(syscall.ErrUnknownCommand, "unknown command: save")
	}
	data, err := e.saveLocked()
	if err != nil {
		return syscall.Err(syscall.ErrInternalError, err.Error())
	}
	e.lastSave = data
	return syscall.Ok("saved").WithData(map[string]interface{}{"bytes": len(data)})
}

// handleLoadCommand implements the in-universe `load` system call,
// reloading the world from the slot the last `save` populated.
func (e *Engine) handleLoadCommand(ctx *syscall.ExecContext, args []string) syscall.Result {
	if !e.PrototypeSaveLoad {
		return syscall.Err(syscall.ErrUnknownCommand, "unknown command: load")
	}
	if e.lastSave == nil {
		return syscall.Err(syscall.ErrNotFound, "no save data available")
	}
	if err := e.loadLocked(e.lastSave); err != nil {
		return syscall.Err(syscall.ErrInternalError, err.Error())
	}
	// The ctx this handler ran under points at the now-replaced world;
	// the caller must re-fetch a terminal context via
	// GetDefaultTerminalContext, signaled by reloaded=true.
	return syscall.Ok("loaded").WithData(map[string]interface{}{"reloaded": true})
}

// handleDebugScript implements `DEBUG_miniscript <scriptId>` (spec
// §4.7, "debug builds only"): runs a scenario script to completion
// synchronously and returns its captured terminal output, for smoke-
// testing guard/action scripts without a full async program flow.
func (e *Engine) handleDebugScript(ctx *syscall.ExecContext, args []string) syscall.Result {
	if !e.DebugMode {
		return syscall.Err(syscall.ErrUnknownCommand, "unknown command: DEBUG_miniscript")
	}
	if len(args) != 1 {
		return syscall.Err(syscall.ErrInvalidArgs, "usage: DEBUG_miniscript <scriptId>")
	}
	source, ok := e.bp.Scripts[args[0]]
	if !ok {
		return syscall.Err(syscall.ErrNotFound, "unknown script id: "+args[0])
	}

	handle, err := e.scriptRunner.Start(source, *ctx, e.intrinsics)
	if err != nil {
		return syscall.Err(syscall.ErrInternalError, err.Error())
	}
	const maxSlices = 1000
	for i := 0; i < maxSlices; i++ {
		done, err := handle.RunUntilDone(scriptTimeSlice)
		if err != nil {
			return syscall.Err(syscall.ErrInternalError, err.Error())
		}
		if done {
			break
		}
	}
	handle.Stop()

	lines := e.sys.Terminal.Drain(ctx.NodeID, ctx.UserKey)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return syscall.Ok(out...)
}

// mergeData shallow-merges b into a (b wins on key collision), returning
// a fresh map so neither argument is mutated.
func mergeData(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
