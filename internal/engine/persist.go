package engine

import (
	"time"

	"github.com/hollowgrid/engine/internal/builder"
	"github.com/hollowgrid/engine/internal/save"
	"github.com/hollowgrid/engine/internal/world"
)

// engineRebuilder implements save.Rebuilder by delegating to
// builder.Build through the owning Engine. internal/save only needs a
// *world.World back; the *event.System that builder.Build also
// produces is stashed on e.pendingSys for loadLocked to pick up right
// after save.Load returns (see Engine.pendingSys doc comment), since
// internal/save never imports internal/event.
type engineRebuilder struct{ e *Engine }

func (r *engineRebuilder) Rebuild(scenarioID string, worldSeed int64) (*world.World, error) {
	w, sys, err := builder.Build(r.e.bp, worldSeed, r.e.compiler)
	if err != nil {
		return nil, err
	}
	r.e.pendingSys = sys
	return w, nil
}

// Save snapshots the current world into a save-container byte stream
// (spec §4.10). scenarioId, runId, and savedAt are save-file metadata,
// not simulation state — spec §4.10's write path takes them as caller
// inputs specifically so internal/save never touches wall-clock or
// randomness itself; Engine.Save is the one place in this module
// allowed to call time.Now and mint a fresh run id, since neither feeds
// back into tick/world determinism (DESIGN.md).
func (e *Engine) Save() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked()
}

func (e *Engine) saveLocked() ([]byte, error) {
	return save.Save(e.w, e.bp.ScenarioID, save.NewRunID(), time.Now().UnixMilli(), save.Options{
		Brotli:  true,
		HMACKey: e.hmacKey,
	})
}

// Load parses data and replaces the engine's world with the result
// (spec §4.10's load path). Failure never touches live state: the
// delta is applied to a freshly rebuilt world object (via
// engineRebuilder), never to e.w in place, so a failed load leaves the
// running world untouched with no explicit snapshot/restore step
// needed — the "restore the backup" invariant spec §4.10 describes is
// realized structurally here rather than by an explicit copy (see
// DESIGN.md, `internal/engine` design decisions: save/load rollback).
func (e *Engine) Load(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(data)
}

func (e *Engine) loadLocked(data []byte) error {
	rebuilder := &engineRebuilder{e: e}
	w, _, err := save.Load(data, e.hmacKey, rebuilder)
	if err != nil {
		e.pendingSys = nil
		return err
	}

	e.w = w
	e.sys = e.pendingSys
	e.pendingSys = nil
	e.wireCollaborators()
	return nil
}
