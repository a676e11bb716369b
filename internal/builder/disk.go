package builder

import (
	"sort"

	"github.com/hollowgrid/engine/internal/blob"
	"github.com/hollowgrid/engine/internal/blueprint"
	"github.com/hollowgrid/engine/internal/vfs"
)

func parseFileKind(s string) vfs.FileKind {
	switch s {
	case "binary":
		return vfs.Binary
	case "image":
		return vfs.Image
	case "script":
		return vfs.ExecutableScript
	case "hardcode":
		return vfs.ExecutableHardcode
	default:
		return vfs.Text
	}
}

// buildBaseTree materializes one spec's Disk fields into an immutable
// vfs.Base, pinning every file's content into store as a base blob
// (spec §4.2: "base references are pinned and never decremented").
// Directories are inserted before files so parent lookups never race
// insertion order; sorted iteration keeps two builds of the same spec
// byte-identical.
func buildBaseTree(disk blueprint.DiskSpec, store *blob.Store) *vfs.Base {
	base := vfs.NewBase()

	dirs := append([]string(nil), disk.Dirs...)
	sort.Strings(dirs)
	for _, d := range dirs {
		base.Put(d, vfs.EntryMeta{Kind: vfs.KindDir})
	}

	paths := make([]string, 0, len(disk.Files))
	for p := range disk.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		f := disk.Files[p]
		id := store.PutBase(f.Content)
		size := f.Size
		if size == 0 {
			size = int64(len(f.Content))
		}
		base.Put(p, vfs.EntryMeta{Kind: vfs.KindFile, FileKind: parseFileKind(f.FileKind), ContentID: id, Size: size})
	}

	return base
}

// applyInitialOverlay replays a spawn's DiskOverlay onto a fresh overlay
// atop base, in the same deterministic order buildBaseTree uses.
// Directories first, then files, then tombstones last so a spawn can
// tombstone a path its own overlay just omitted from Files/Dirs.
func applyInitialOverlay(overlay *vfs.Overlay, disk blueprint.DiskSpec) {
	dirs := append([]string(nil), disk.Dirs...)
	sort.Strings(dirs)
	for _, d := range dirs {
		overlay.Mkdir(d)
	}

	paths := make([]string, 0, len(disk.Files))
	for p := range disk.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		f := disk.Files[p]
		size := f.Size
		if size == 0 {
			size = int64(len(f.Content))
		}
		overlay.WriteFile(p, f.Content, parseFileKind(f.FileKind), size)
	}

	tombstones := append([]string(nil), disk.Tombstones...)
	sort.Strings(tombstones)
	for _, t := range tombstones {
		_ = overlay.Delete(t)
	}
}
