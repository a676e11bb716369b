package intrinsic

import (
	"time"

	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/syscall"
	"github.com/hollowgrid/engine/internal/vfs"
	"github.com/hollowgrid/engine/internal/world"
)

// FTPGet implements ftp.get(opts, host, remotePath) -> {ok, content}
// (spec §4.9): requires an FTP port open and exposed on the target,
// reads remotePath from the target's filesystem directly (no cwd
// context — ftp paths are absolute), and emits fileAcquire on success.
func (t *Table) FTPGet(terminalKey string, opts CallOpts, host, remotePath string) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	target, _, ok := t.ftpTarget(ctx, host)
	if !ok {
		return Failure(syscall.ErrPortClosed, "ftp unavailable", 1)
	}
	meta, ok := target.FS.Resolve(remotePath)
	if !ok || meta.IsDir() {
		return Failure(syscall.ErrNotFound, "no such file: "+remotePath, 1)
	}
	data, err := t.w.BlobStore.Get(meta.ContentID)
	if err != nil {
		return Failure(syscall.ErrInternalError, err.Error(), 1)
	}

	if t.events != nil {
		t.events.Enqueue(event.GameEvent{
			EventType: event.FileAcquire,
			Seq:       t.w.NextEventSeq(),
			Payload: event.FileAcquirePayload{
				FromNodeID: target.NodeID, UserKey: ctx.UserKey, FileName: vfs.BaseName(remotePath),
				RemotePath: remotePath, LocalPath: remotePath,
			},
		})
	}
	return Success(1, map[string]interface{}{"content": string(data)})
}

// FTPPut implements ftp.put(opts, host, remotePath, content) -> {ok}
// (spec §4.9): same gating as FTPGet, direction reversed, no
// fileAcquire (acquisition is defined as pulling a file toward the
// player, not pushing one out).
func (t *Table) FTPPut(terminalKey string, opts CallOpts, host, remotePath, content string) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	target, _, ok := t.ftpTarget(ctx, host)
	if !ok {
		return Failure(syscall.ErrPortClosed, "ftp unavailable", 1)
	}
	target.FS.WriteFile(remotePath, []byte(content), vfs.Text, int64(len(content)))
	return Success(1, nil)
}

// ftpTarget resolves host to a server with an exposed open ftp port.
func (t *Table) ftpTarget(ctx *syscall.ExecContext, host string) (*world.Server, int, bool) {
	targetID, ok := resolveHost(ctx, host)
	if !ok {
		return nil, 0, false
	}
	target, ok := ctx.World.ServerList[targetID]
	if !ok {
		return nil, 0, false
	}
	for port, pc := range target.Ports {
		if pc.Type != world.PortFTP {
			continue
		}
		if ctx.World.ExposureAllowed(ctx.NodeID, targetID, port) {
			return target, port, true
		}
	}
	return nil, 0, false
}
