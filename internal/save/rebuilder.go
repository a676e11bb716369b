package save

import "github.com/hollowgrid/engine/internal/world"

// Rebuilder constructs the initial (blueprint-applied, pre-session)
// world for a scenario, per spec §4.10's load path: "reconstruct the
// initial world from saveMeta (blueprint re-load + scenario id), apply
// delta". internal/engine supplies one backed by internal/builder; this
// package only depends on the interface, so internal/save never imports
// internal/builder.
type Rebuilder interface {
	Rebuild(scenarioID string, worldSeed int64) (*world.World, error)
}
