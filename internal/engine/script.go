package engine

import (
	"time"

	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/intrinsic"
	"github.com/hollowgrid/engine/internal/syscall"
)

// ScriptRunner starts an async terminal program against an execution
// context and intrinsic table (SPEC_FULL.md §6.1, the Go shape of
// spec.md §6's embedded-interpreter dependency). The real interpreter
// is an external black box (spec.md §1); this package only depends on
// the seam.
type ScriptRunner interface {
	Start(source string, ctx syscall.ExecContext, intrinsics *intrinsic.Table) (RunHandle, error)
}

// RunHandle drives one started program forward in bounded time slices
// (spec §4.9's worker/main-thread polling protocol).
type RunHandle interface {
	RunUntilDone(slice time.Duration) (done bool, err error)
	Stop()
}

// FakeScriptRunner is the deterministic in-process stand-in
// SPEC_FULL.md §5 calls for: it never calls a real interpreter, so it's
// safe for tests and for cmd/enginectl, which has no embedded
// interpreter to wire in. A run completes unconditionally on its first
// RunUntilDone call.
type FakeScriptRunner struct{}

// NewFakeScriptRunner returns a FakeScriptRunner.
func NewFakeScriptRunner() *FakeScriptRunner { return &FakeScriptRunner{} }

// Start implements ScriptRunner.
func (r *FakeScriptRunner) Start(source string, ctx syscall.ExecContext, intrinsics *intrinsic.Table) (RunHandle, error) {
	return &fakeRunHandle{nodeID: ctx.NodeID, userKey: ctx.UserKey, source: source}, nil
}

type fakeRunHandle struct {
	nodeID, userKey, source string
	stopped                 bool
}

// RunUntilDone implements RunHandle: completes immediately.
func (h *fakeRunHandle) RunUntilDone(slice time.Duration) (bool, error) {
	return true, nil
}

// Stop implements RunHandle.
func (h *fakeRunHandle) Stop() { h.stopped = true }

// FakeScriptEvaluator is the deterministic stand-in for builder.ScriptEvaluator
// used where no real interpreter exists: it treats "true"/"return true"
// as passing and everything else as failing, never touching state.
func FakeScriptEvaluator(source string, evt event.GameEvent, state event.ReadOnlyState) (bool, error) {
	switch source {
	case "true", "return true":
		return true, nil
	default:
		return false, nil
	}
}
