package syscall

import (
	"strings"

	"github.com/hollowgrid/engine/internal/vfs"
)

// HardcodeRegistry resolves the ids referenced by an ExecutableHardcode
// file's "exec:<id>" body to a handler (spec §4.7).
type HardcodeRegistry struct {
	byID map[string]Handler
}

// NewHardcodeRegistry returns an empty hardcoded-executable registry.
func NewHardcodeRegistry() *HardcodeRegistry {
	return &HardcodeRegistry{byID: map[string]Handler{}}
}

// Register adds a hardcoded executable under id.
func (r *HardcodeRegistry) Register(id string, h Handler) {
	r.byID[id] = h
}

// Dispatcher ties the registry, the executable-fallback path resolver,
// and the hardcoded-executable registry together (spec §4.7).
type Dispatcher struct {
	Commands  *Registry
	Hardcoded *HardcodeRegistry
}

// NewDispatcher builds a dispatcher with empty registries.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{Commands: NewRegistry(), Hardcoded: NewHardcodeRegistry()}
}

// Execute tokenizes line, dispatches to a registered handler, or falls
// back to resolving it as an executable path (spec §4.7).
func (d *Dispatcher) Execute(ctx *ExecContext, line string) Result {
	tokens, err := Tokenize(line)
	if err != nil {
		return Err(ErrInvalidArgs, err.Error())
	}
	if len(tokens) == 0 {
		return Ok()
	}

	cmd, args := tokens[0], tokens[1:]

	if h, ok := d.Commands.Lookup(cmd); ok {
		return h(ctx, args)
	}

	return d.executeFallback(ctx, cmd, args)
}

// resolveExecutable implements the candidate-path half of spec §4.7's
// "Fallback to executables": if cmd contains "/", normalize against cwd
// only; otherwise try Normalize(cwd, cmd) then "/opt/bin/<cmd>". Shared
// by executeFallback and PeekScript so both see identical resolution
// and permission rules.
func (d *Dispatcher) resolveExecutable(ctx *ExecContext, cmd string) (vfs.EntryMeta, string, Result, bool) {
	var candidates []string
	if strings.Contains(cmd, "/") {
		candidates = []string{ctx.Resolve(cmd)}
	} else {
		candidates = []string{ctx.Resolve(cmd), "/opt/bin/" + cmd}
	}

	fs, ok := ctx.FS()
	if !ok {
		return vfs.EntryMeta{}, "", Err(ErrInternalError, "no filesystem for current context"), false
	}

	var (
		meta  vfs.EntryMeta
		path  string
		found bool
	)
	for _, cand := range candidates {
		if m, ok := fs.Resolve(cand); ok && m.Kind == vfs.KindFile {
			meta, path, found = m, cand, true
			break
		}
	}
	if !found {
		return vfs.EntryMeta{}, "", Err(ErrUnknownCommand, "unknown command: "+cmd), false
	}

	user, ok := ctx.User()
	if !ok || !user.Privileges.Read || !user.Privileges.Execute {
		return vfs.EntryMeta{}, "", Err(ErrPermissionDenied, "permission denied: "+cmd), false
	}
	if !meta.FileKind.Executable() {
		return vfs.EntryMeta{}, "", Err(ErrPermissionDenied, "not executable: "+cmd), false
	}
	return meta, path, Result{}, true
}

// executeFallback implements spec §4.7's "Fallback to executables".
func (d *Dispatcher) executeFallback(ctx *ExecContext, cmd string, args []string) Result {
	meta, path, errResult, ok := d.resolveExecutable(ctx, cmd)
	if !ok {
		return errResult
	}

	switch meta.FileKind {
	case vfs.ExecutableHardcode:
		return d.dispatchHardcode(ctx, path, meta, args)
	case vfs.ExecutableScript:
		return d.dispatchScript(ctx, path, meta)
	default:
		return Err(ErrInternalError, "unexpected executable file kind")
	}
}

// PeekScript resolves line's command token as a fallback executable
// without running anything, reporting whether it would start an
// ExecutableScript (and, if so, its source and resolved path).
// internal/engine uses this so TryStartTerminalProgram can decide to
// hand the command to the async ScriptRunner without also executing it
// through Execute (spec §4.9's "async terminal program" path is
// distinct from the synchronous execute_system_call path).
func (d *Dispatcher) PeekScript(ctx *ExecContext, line string) (source, path string, ok bool) {
	tokens, err := Tokenize(line)
	if err != nil || len(tokens) == 0 {
		return "", "", false
	}
	cmd := tokens[0]
	if _, registered := d.Commands.Lookup(cmd); registered {
		return "", "", false
	}

	meta, resolvedPath, _, found := d.resolveExecutable(ctx, cmd)
	if !found || meta.FileKind != vfs.ExecutableScript {
		return "", "", false
	}
	src, err := readSource(ctx, meta)
	if err != nil {
		return "", "", false
	}
	return src, resolvedPath, true
}

func (d *Dispatcher) dispatchHardcode(ctx *ExecContext, path string, meta vfs.EntryMeta, args []string) Result {
	src, err := readSource(ctx, meta)
	if err != nil {
		return Err(ErrInternalError, err.Error())
	}
	id, ok := strings.CutPrefix(src, "exec:")
	if !ok || id == "" {
		return Err(ErrUnknownCommand, "unknown command: "+path)
	}
	h, ok := d.Hardcoded.byID[id]
	if !ok {
		return Err(ErrUnknownCommand, "unknown command: "+path)
	}
	return h(ctx, args)
}

// dispatchScript hands an ExecutableScript's source back to the caller
// rather than running it: internal/engine owns the ScriptRunner seam
// (SPEC_FULL.md §6.1) and starts the interpreter, since this package has
// no dependency on a concrete interpreter.
func (d *Dispatcher) dispatchScript(ctx *ExecContext, path string, meta vfs.EntryMeta) Result {
	src, err := readSource(ctx, meta)
	if err != nil {
		return Err(ErrInternalError, err.Error())
	}
	return Result{
		OK:   true,
		Code: OK,
		Data: map[string]interface{}{"startScript": true, "source": src, "path": path},
	}
}

func readSource(ctx *ExecContext, meta vfs.EntryMeta) (string, error) {
	data, err := ctx.World.BlobStore.Get(meta.ContentID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
