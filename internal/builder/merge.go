package builder

import "github.com/hollowgrid/engine/internal/blueprint"

// resolvedServer is one spawn's fully-merged, pre-allocation state:
// the named spec cloned, then spawn overrides applied under strict
// key-replace semantics (spec §4.11 step 4). Grounded on
// sandia-minimega-minimega's BaseConfig.Copy()-then-override shape
// (vm.go): deep-copy every map/slice field off the template so spawns
// never alias each other's state, then let the spawn's own fields win.
//
// Disk state is deliberately NOT merged here: a spec's Disk fields build
// the shared, immutable Base tree every spawn of that spec reuses
// (vfs.Base's own doc comment: "shared by every server built from the
// same blueprint disk image"), while spawn.DiskOverlay is replayed as
// this node's initial per-server Overlay writes — the two never mix
// into one flat file list.
type resolvedServer struct {
	NodeID        string
	Hostname      string
	Role          string
	InitialStatus string
	InitialReason string

	Interfaces []blueprint.InterfaceSpec
	Ports      map[int]blueprint.PortSpec
	Daemons    map[string]blueprint.DaemonSpec
	Users      map[string]blueprint.UserSpec

	Overlay blueprint.DiskSpec // spawn's own initial overlay; Tombstones also carry the spec's

	LogCapacity int
}

// mergeSpawn clones spec and layers spawn's overrides on top under
// strict replace-key semantics: a key present in an override map with a
// nil pointer value deletes the cloned key; a non-nil value replaces it
// wholesale (the override value is never merged field-by-field into the
// clone's value). disk.tombstones is the one unioned collection.
func mergeSpawn(spec *blueprint.ServerSpecBlueprint, spawn *blueprint.ServerSpawn) *resolvedServer {
	r := &resolvedServer{
		NodeID:        spawn.NodeID,
		Hostname:      spec.Hostname,
		Role:          spec.Role,
		InitialStatus: spec.InitialStatus,
		InitialReason: spec.InitialReason,
		Interfaces:    append([]blueprint.InterfaceSpec(nil), spec.Interfaces...),
		Ports:         cloneMap(spec.Ports),
		Daemons:       cloneMap(spec.Daemons),
		Users:         cloneMap(spec.Users),
		LogCapacity:   spec.LogCapacity,
	}
	if r.LogCapacity <= 0 {
		r.LogCapacity = 200
	}

	if spawn.Hostname != nil {
		r.Hostname = *spawn.Hostname
	}
	if spawn.InitialStatus != nil {
		r.InitialStatus = *spawn.InitialStatus
	}
	if spawn.InitialReason != nil {
		r.InitialReason = *spawn.InitialReason
	}

	for port, override := range spawn.PortOverrides {
		if override == nil {
			delete(r.Ports, port)
			continue
		}
		r.Ports[port] = *override
	}
	for daemonType, override := range spawn.DaemonOverrides {
		if override == nil {
			delete(r.Daemons, daemonType)
			continue
		}
		r.Daemons[daemonType] = *override
	}
	for userKey, override := range spawn.UserOverrides {
		if override == nil {
			delete(r.Users, userKey)
			continue
		}
		r.Users[userKey] = *override
	}

	r.Overlay = spawn.DiskOverlay
	r.Overlay.Tombstones = append(append([]string(nil), spec.Disk.Tombstones...), spawn.DiskOverlay.Tombstones...)

	return r
}

// cloneMap copies m's entries into a fresh map so a spawn's key-level
// edits never touch its spec template's map. The copy is shallow: slice
// or map fields inside the values stay shared with the template.
func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
