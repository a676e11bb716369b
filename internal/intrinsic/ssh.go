package intrinsic

import (
	"time"

	"github.com/hollowgrid/engine/internal/session"
	"github.com/hollowgrid/engine/internal/syscall"
)

// SSHConnect implements ssh.connect(opts?, host, user, password?) ->
// {ok, nodeId, sessionId} (spec §4.9): identical rules to the
// `connect` command (auth modes, exposure, 8-hop cap), chaining off
// the terminal's current route.
func (t *Table) SSHConnect(terminalKey string, opts CallOpts, host, user, password string, port int) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	cur := t.currentContext(terminalKey, opts)
	next, res := t.sessions.Connect(terminalKey, cur, session.ConnectRequest{
		HostOrIP: host, UserID: user, Password: password, Port: port,
	})
	if !res.OK {
		return FromSyscallResult(res, 1)
	}
	out := FromSyscallResult(res, 1)
	out["nodeId"] = next.NodeID
	return out
}

// currentContext reads the terminal's current route context without
// requiring an active session (ssh.connect is valid on an otherwise
// bare terminal), falling back to the world's root/terminal stance.
func (t *Table) currentContext(terminalKey string, opts CallOpts) session.Context {
	stack := t.sessions.StackFor(terminalKey)
	frames := stack.Frames()
	if len(frames) == 0 {
		return session.Context{}
	}
	idx := len(frames) - 1
	if opts.HopIndex >= 0 && opts.HopIndex < len(frames) {
		idx = opts.HopIndex
	}
	f := frames[idx]
	cur := session.Context{NodeID: f.NodeID}
	if srv, ok := t.w.ServerList[f.NodeID]; ok {
		if sess, ok := srv.Sessions[f.SessionID]; ok {
			cur.UserKey, cur.Cwd = sess.UserKey, sess.Cwd
		}
	}
	return cur
}

// SSHExecResult is the payload for ssh.exec: either it completed
// synchronously (Sync true, Stdout/ExitCode populated) or it was
// dispatched as a background process (JobID populated, Stdout/ExitCode
// left unset) per spec §4.9.
type SSHExecResult struct {
	Stdout   *string
	ExitCode *int
	JobID    *int
}

// SSHExec implements ssh.exec(opts?, command) -> {ok, stdout, exitCode,
// jobId} (spec §4.9): runs command on the resolved endpoint through the
// same dispatcher the terminal uses. For a command that hands back a
// startScript (ExecutableScript), the result carries a fresh jobId from
// the world's process counter and no stdout/exitCode; the script is not
// started here and no process record is created. Everything else is
// synchronous.
func (t *Table) SSHExec(terminalKey string, opts CallOpts, command string) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	res := t.disp.Execute(ctx, command)
	if !res.OK {
		return FromSyscallResult(res, 1)
	}
	if _, async := res.Data["startScript"]; async {
		jobID := t.w.NextProcessID()
		return Success(1, map[string]interface{}{"stdout": nil, "exitCode": nil, "jobId": jobID})
	}
	stdout := ""
	for i, line := range res.Lines {
		if i > 0 {
			stdout += "\n"
		}
		stdout += line
	}
	return Success(1, map[string]interface{}{"stdout": stdout, "exitCode": 0, "jobId": nil})
}
