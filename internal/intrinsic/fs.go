package intrinsic

import (
	"time"

	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/syscall"
	"github.com/hollowgrid/engine/internal/vfs"
)

// FsList implements fs.list(opts?, path) -> {ok, entries} (spec §4.9).
func (t *Table) FsList(terminalKey string, opts CallOpts, path string) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	res := t.disp.Execute(ctx, "ls "+path)
	return FromSyscallResult(res, 1)
}

// FsRead implements fs.read(opts?, path) -> {ok, content} (spec §4.9).
func (t *Table) FsRead(terminalKey string, opts CallOpts, path string) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	res := t.disp.Execute(ctx, "cat "+path)
	return FromSyscallResult(res, 1)
}

// FsStat implements fs.stat(opts?, path) -> {ok, kind, size} (spec
// §4.9).
func (t *Table) FsStat(terminalKey string, opts CallOpts, path string) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	fs, ok := ctx.FS()
	if !ok {
		return Failure(syscall.ErrInternalError, "no filesystem", 0)
	}
	p := ctx.Resolve(path)
	meta, ok := fs.Resolve(p)
	if !ok {
		return Failure(syscall.ErrNotFound, "no such path: "+p, 1)
	}
	kind := "file"
	if meta.IsDir() {
		kind = "dir"
	}
	payload := map[string]interface{}{"kind": kind, "fileKind": string(meta.FileKind), "size": meta.Size}
	if !meta.IsDir() && meta.FileKind == vfs.Image {
		if p, ok := t.w.BlobStore.ImagePreview(meta.ContentID); ok {
			payload["preview"] = map[string]interface{}{"width": p.Width, "height": p.Height, "asciiHash": p.AsciiHash}
		}
	}
	return Success(1, payload)
}

// FsWrite implements fs.write(opts?, path, content) -> {ok} (spec
// §4.9): permission-checked against the resolved endpoint's write
// privilege, then emits fileAcquire on every successful write.
func (t *Table) FsWrite(terminalKey string, opts CallOpts, path, content string) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	user, ok := ctx.User()
	if !ok || !user.Privileges.Write {
		return Failure(syscall.ErrPermissionDenied, "write privilege required", 1)
	}
	fs, ok := ctx.FS()
	if !ok {
		return Failure(syscall.ErrInternalError, "no filesystem", 1)
	}
	p := ctx.Resolve(path)
	fs.WriteFile(p, []byte(content), vfs.Text, int64(len(content)))

	if t.events != nil {
		t.events.Enqueue(event.GameEvent{
			EventType: event.FileAcquire,
			Seq:       t.w.NextEventSeq(),
			Payload: event.FileAcquirePayload{
				FromNodeID: ctx.NodeID, UserKey: ctx.UserKey, FileName: vfs.BaseName(p), RemotePath: p,
			},
		})
	}
	return Success(1, nil)
}

// FsDelete implements fs.delete(opts?, path, recursive?) -> {ok} (spec
// §4.9).
func (t *Table) FsDelete(terminalKey string, opts CallOpts, path string, recursive bool) ResultMap {
	now := time.Now()
	if !t.allow(now) {
		return Failure(syscall.ErrRateLimited, "rate limit exceeded", 0)
	}
	ctx, ok := t.resolveContext(terminalKey, opts, "")
	if !ok {
		return Failure(syscall.ErrNotFound, "no active session", 0)
	}
	user, ok := ctx.User()
	if !ok || !user.Privileges.Write {
		return Failure(syscall.ErrPermissionDenied, "write privilege required", 1)
	}
	cmd := "rm "
	if recursive {
		cmd = "rm -r "
	}
	res := t.disp.Execute(ctx, cmd+path)
	return FromSyscallResult(res, 1)
}
