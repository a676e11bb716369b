// Package engine wires world, event, sched, session, syscall, intrinsic,
// save, and builder into the single stateful object spec.md §4/§5/§6
// describes: one coarse-locked tick loop driving a deterministic world,
// fronted by the terminal-facing command interface. Grounded on
// sandia-minimega-minimega's own top-level composition root
// (cmd/minimega wires vm.go, scheduler, and the minicli dispatcher
// behind one mutex-guarded struct) — see DESIGN.md.
package engine

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hollowgrid/engine/internal/blueprint"
	"github.com/hollowgrid/engine/internal/builder"
	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/intrinsic"
	"github.com/hollowgrid/engine/internal/sched"
	"github.com/hollowgrid/engine/internal/session"
	"github.com/hollowgrid/engine/internal/syscall"
	"github.com/hollowgrid/engine/internal/world"
	"github.com/hollowgrid/engine/pkg/minilog"
)

// ticksPerSecond is the fixed tick rate spec §5 runs the world at.
const ticksPerSecond = 60

// scriptTimeSlice is the per-tick budget handed to a running async
// terminal program (spec §4.9: "maximum time slice ≈ 10 ms").
const scriptTimeSlice = 10 * time.Millisecond

// Engine owns one world and every collaborator bound to it, behind a
// single coarse mutex (SPEC_FULL.md §5): Tick and every call that
// touches world state take mu, matching the teacher's one-lock-per-
// stateful-object convention (miniplumber.Plumber.lock).
type Engine struct {
	mu sync.Mutex

	w          *world.World
	sys        *event.System
	scheduler  *sched.Scheduler
	sessions   *session.Manager
	disp       *syscall.Dispatcher
	intrinsics *intrinsic.Table

	bp       *blueprint.ScenarioBlueprint
	compiler *builder.ScriptGuardCompiler
	hmacKey  []byte

	scriptRunner ScriptRunner
	running      map[string]RunHandle // terminalSessionId -> in-flight async program

	// DebugMode gates DEBUG_miniscript; PrototypeSaveLoad gates the
	// in-universe save/load terminal commands (spec §4.7's "debug
	// builds only" / "prototype gate" annotations).
	DebugMode         bool
	PrototypeSaveLoad bool

	lastSave []byte // in-memory slot the prototype save/load commands round-trip through

	// pendingSys is set by the save.Rebuilder this engine supplies to
	// save.Load and consumed immediately by load(): save.Rebuilder's
	// interface returns only a *world.World (internal/save has no
	// dependency on internal/event), so the freshly compiled
	// *event.System that comes out of the same builder.Build call is
	// smuggled through here rather than discarded.
	pendingSys *event.System

	log *minilog.Logger
}

// New builds an engine from bp at worldSeed. scriptEval backs the
// scenario's guard scripts (builder.ScriptGuardCompiler); runner drives
// async terminal programs. hmacKeyBase64 is the platform-supplied save
// integrity key (spec §4.10 "Environment": "must be configured before
// any save/load call; the key is base64-decoded and required
// non-empty").
func New(bp *blueprint.ScenarioBlueprint, worldSeed int64, scriptEval builder.ScriptEvaluator, runner ScriptRunner, hmacKeyBase64 string) (*Engine, error) {
	hmacKey, err := base64.StdEncoding.DecodeString(hmacKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("engine: decoding SaveHmacKeyBase64: %w", err)
	}
	if len(hmacKey) == 0 {
		return nil, errors.New("engine: SaveHmacKeyBase64 must be configured and non-empty")
	}

	e := &Engine{
		bp:           bp,
		hmacKey:      hmacKey,
		scriptRunner: runner,
		running:      map[string]RunHandle{},
		log:          minilog.Get("engine"),
	}
	e.compiler = &builder.ScriptGuardCompiler{Scripts: bp.Scripts, Evaluator: scriptEval}

	if err := e.rebuildFromScratch(worldSeed); err != nil {
		return nil, err
	}
	return e, nil
}

// rebuildFromScratch builds a brand-new world (and every collaborator
// bound to it) from e.bp, replacing whatever was there before. Used by
// New and, via engineRebuilder + load, by the save/load apply path.
func (e *Engine) rebuildFromScratch(worldSeed int64) error {
	w, sys, err := builder.Build(e.bp, worldSeed, e.compiler)
	if err != nil {
		return err
	}
	e.w = w
	e.sys = sys
	e.wireCollaborators()
	return nil
}

// wireCollaborators (re)builds every collaborator that closes over
// e.w/e.sys, reusing e.disp across rebuilds: Dispatcher holds no world
// pointer (every Handler takes its ExecContext per call), so it and its
// registered engine commands survive a reload unchanged.
func (e *Engine) wireCollaborators() {
	e.scheduler = sched.New(e.w, e.sys)
	e.scheduler.Rebuild()
	e.sessions = session.New(e.w, e.sys)

	if e.disp == nil {
		e.disp = syscall.NewDispatcher()
		syscall.RegisterBuiltins(e.disp.Commands)
		e.registerEngineCommands()
	}
	e.intrinsics = intrinsic.NewTable(e.w, e.sys, e.sessions, e.disp)
	e.running = map[string]RunHandle{}
}

// Request is one execute_system_call / try_start_terminal_program input
// (spec §6's Command interface): the terminal UI tracks its own current
// location and passes it in on every call.
type Request struct {
	NodeID            string
	UserKey           string
	Cwd               string
	CommandLine       string
	TerminalSessionID string
}

func (e *Engine) buildContext(req Request) *syscall.ExecContext {
	return &syscall.ExecContext{
		World: e.w, NodeID: req.NodeID, UserKey: req.UserKey, Cwd: req.Cwd,
		TerminalSessionID: req.TerminalSessionID,
	}
}

// contextFrom reconstructs a session.Context (with display-facing
// prompt strings) from the exec context a Handler runs under.
func (e *Engine) contextFrom(ctx *syscall.ExecContext) session.Context {
	promptUser, promptHost := ctx.UserKey, ctx.NodeID
	if u, ok := ctx.User(); ok {
		promptUser = u.UserID
	}
	if s, ok := ctx.Server(); ok {
		promptHost = s.Name
	}
	return session.Context{NodeID: ctx.NodeID, UserKey: ctx.UserKey, Cwd: ctx.Cwd, PromptUser: promptUser, PromptHost: promptHost}
}

// Tick advances the world one fixed step (spec §4/§5): scheduler due-
// pop, event drain, then a poll slice for every in-flight async
// terminal program.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.w.WorldTickIndex++
	nowMs := e.w.WorldTickIndex * 1000 / ticksPerSecond
	e.scheduler.PopDue(nowMs)
	e.sys.Drain()

	for sid, h := range e.running {
		done, err := h.RunUntilDone(scriptTimeSlice)
		if err != nil {
			e.log.Warn("engine: terminal %s script errored: %v", sid, err)
			delete(e.running, sid)
			continue
		}
		if done {
			delete(e.running, sid)
		}
	}
}

// ExecuteSystemCall runs one command line to completion against req's
// context (spec §6).
func (e *Engine) ExecuteSystemCall(req Request) syscall.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disp.Execute(e.buildContext(req), req.CommandLine)
}

// DefaultTerminalContext is get_default_terminal_context's response
// shape (spec §6).
type DefaultTerminalContext struct {
	OK                bool
	NodeID            string
	UserKey           string
	Cwd               string
	PromptUser        string
	PromptHost        string
	TerminalSessionID string
	MotdLines         []string
}

// GetDefaultTerminalContext places a fresh terminal on the blueprint's
// myWorkstation, as preferredUserKey (or the blueprint's
// preferredUserKey when blank), and mints it a new terminal session id.
func (e *Engine) GetDefaultTerminalContext(preferredUserKey string) DefaultTerminalContext {
	e.mu.Lock()
	defer e.mu.Unlock()

	userKey := preferredUserKey
	if userKey == "" {
		userKey = e.bp.PreferredUserKey
	}

	s, ok := e.w.ServerList[e.bp.MyWorkstation]
	if !ok {
		return DefaultTerminalContext{}
	}
	user, ok := s.Users[userKey]
	if !ok {
		return DefaultTerminalContext{}
	}

	return DefaultTerminalContext{
		OK: true, NodeID: e.bp.MyWorkstation, UserKey: userKey, Cwd: "/",
		PromptUser: user.UserID, PromptHost: s.Name,
		TerminalSessionID: uuid.NewString(),
		MotdLines:         e.readMotd(s),
	}
}

// readMotd returns /etc/motd split into lines, or nil if the workstation
// carries none — spec §4.7 says "help loads its page from a text
// resource and prints line-by-line" but leaves motdLines itself
// unspecified; reading the workstation's own /etc/motd through the same
// overlay-resolution path as `cat` is the natural reading (DESIGN.md).
func (e *Engine) readMotd(s *world.Server) []string {
	meta, ok := s.FS.Resolve("/etc/motd")
	if !ok || meta.IsDir() || !meta.FileKind.Editable() {
		return nil
	}
	data, err := e.w.BlobStore.Get(meta.ContentID)
	if err != nil {
		return nil
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// EditorSaveResult is save_editor_content's response shape (spec §6).
type EditorSaveResult struct {
	OK        bool
	Code      string
	Lines     []string
	SavedPath string
}

// SaveEditorContent applies an editor session's content to path under
// the given context, normalizing path against cwd first.
func (e *Engine) SaveEditorContent(nodeID, userKey, cwd, path, content string) EditorSaveResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx := &syscall.ExecContext{World: e.w, NodeID: nodeID, UserKey: userKey, Cwd: cwd}
	resolved := ctx.Resolve(path)
	res := syscall.SaveEditorContent(ctx, resolved, content)
	return EditorSaveResult{OK: res.OK, Code: string(res.Code), Lines: res.Lines, SavedPath: resolved}
}

// DrainTerminalEventLines returns and clears every event-triggered
// output line queued for (nodeId, userKey) since the last drain.
func (e *Engine) DrainTerminalEventLines(nodeID, userKey string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := e.sys.Terminal.Drain(nodeID, userKey)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}
