package vfs

import (
	"sort"

	"github.com/hollowgrid/engine/internal/blob"
)

// EntrySnapshot is one overlay entry's save-container representation:
// the path plus its metadata and (for files) the raw content, so that
// restoring an overlay never depends on blob ids surviving a reload
// (internal/save re-derives content ids via Put on restore).
type EntrySnapshot struct {
	Path    string
	Kind    Kind
	FileKind FileKind
	Size    int64
	Content []byte // empty for directories
}

// OverlaySnapshot is the ordered, deterministic save-container
// representation of one overlay (spec §4.10's `diskOverlay`).
type OverlaySnapshot struct {
	Entries    []EntrySnapshot
	Tombstones []string
}

// Snapshot captures the overlay's current state for serialization.
// Entries and tombstones are sorted so identical overlays produce
// identical snapshots byte-for-byte (spec §4.10's determinism rule).
func (o *Overlay) Snapshot() OverlaySnapshot {
	paths := make([]string, 0, len(o.overlayEntries))
	for p := range o.overlayEntries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	entries := make([]EntrySnapshot, 0, len(paths))
	for _, p := range paths {
		m := o.overlayEntries[p]
		es := EntrySnapshot{Path: p, Kind: m.Kind, FileKind: m.FileKind, Size: m.Size}
		if m.Kind == KindFile {
			if data, err := o.store.Get(m.ContentID); err == nil {
				es.Content = data
			}
		}
		entries = append(entries, es)
	}

	tombstones := make([]string, 0, len(o.tombstones))
	for p := range o.tombstones {
		tombstones = append(tombstones, p)
	}
	sort.Strings(tombstones)

	return OverlaySnapshot{Entries: entries, Tombstones: tombstones}
}

// RestoreOverlay rebuilds an overlay atop base/store by replaying a
// snapshot's writes and deletes, per spec §4.10's "rebuild-then-apply-
// delta" restore strategy: this keeps blob refcounts, tombstones, and
// dir-deltas internally consistent exactly as if the player had issued
// the original write/mkdir/delete calls.
func RestoreOverlay(base *Base, store *blob.Store, snap OverlaySnapshot) *Overlay {
	o := NewOverlay(base, store)
	o.ApplySnapshot(snap)
	return o
}

// ApplySnapshot discards this overlay's current additive/tombstone
// state and replays snap atop the same base/store, used when restoring
// a save onto a freshly blueprint-built world (the base tree is
// rebuilt by the blueprint load; only the per-server overlay delta
// comes from the save).
func (o *Overlay) ApplySnapshot(snap OverlaySnapshot) {
	for _, m := range o.overlayEntries {
		if m.Kind == KindFile {
			o.store.Release(m.ContentID)
		}
	}
	o.overlayEntries = map[string]EntryMeta{}
	o.tombstones = map[string]struct{}{}
	o.dirDelta = map[string]*dirDelta{}

	for _, e := range snap.Entries {
		switch e.Kind {
		case KindDir:
			o.Mkdir(e.Path)
		case KindFile:
			o.WriteFile(e.Path, e.Content, e.FileKind, e.Size)
		}
	}
	for _, p := range snap.Tombstones {
		_ = o.Delete(p)
	}
}
