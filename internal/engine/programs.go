package engine

import "github.com/hollowgrid/engine/internal/syscall"

// TryStartResult is try_start_terminal_program's response shape (spec
// §6): handled reports whether commandLine resolved to something this
// call owns (an async program start); when false the caller falls
// through to the normal execute_system_call path instead.
type TryStartResult struct {
	Handled  bool
	Started  bool
	Response syscall.Result
}

// TryStartTerminalProgram starts req.CommandLine as an async terminal
// program if (and only if) it resolves to an ExecutableScript (spec
// §4.9): the per-terminal-session single-program invariant rejects a
// second concurrent start. Commands that aren't script starts are left
// untouched — this call never executes them, so the caller can safely
// fall back to ExecuteSystemCall for anything with Handled=false.
func (e *Engine) TryStartTerminalProgram(req Request) TryStartResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, running := e.running[req.TerminalSessionID]; running {
		return TryStartResult{
			Handled:  true,
			Response: syscall.Err(syscall.ErrInvalidArgs, "a program is already running in this terminal"),
		}
	}

	ctx := e.buildContext(req)
	source, path, ok := e.disp.PeekScript(ctx, req.CommandLine)
	if !ok {
		return TryStartResult{}
	}

	handle, err := e.scriptRunner.Start(source, *ctx, e.intrinsics)
	if err != nil {
		return TryStartResult{Handled: true, Response: syscall.Err(syscall.ErrInternalError, err.Error())}
	}
	e.running[req.TerminalSessionID] = handle
	return TryStartResult{
		Handled: true, Started: true,
		Response: syscall.Ok().WithData(map[string]interface{}{"startedProgram": path}),
	}
}

// IsTerminalProgramRunning reports whether an async program is still
// in flight for sessionID.
func (e *Engine) IsTerminalProgramRunning(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[sessionID]
	return ok
}

// InterruptTerminalProgram implements Ctrl+C cancellation (spec §4.9):
// stops the running program for sessionID, if any, and forgets it.
func (e *Engine) InterruptTerminalProgram(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h, ok := e.running[sessionID]; ok {
		h.Stop()
		delete(e.running, sessionID)
	}
}
