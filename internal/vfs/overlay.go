package vfs

import (
	"sort"

	"github.com/hollowgrid/engine/internal/blob"
)

// dirDelta tracks one directory's deviation from the base listing.
type dirDelta struct {
	added   map[string]struct{}
	removed map[string]struct{}
}

func (d *dirDelta) empty() bool {
	return len(d.added) == 0 && len(d.removed) == 0
}

// Overlay is one server's additive/tombstone layer atop a shared Base,
// per spec §4.3 (component C4). Resolution priority is fixed:
// tombstones > overlayEntries > base.
type Overlay struct {
	base  *Base
	store *blob.Store

	overlayEntries map[string]EntryMeta
	tombstones     map[string]struct{}
	dirDelta       map[string]*dirDelta
}

// NewOverlay returns an empty overlay atop base, storing overlay blob
// content in store.
func NewOverlay(base *Base, store *blob.Store) *Overlay {
	return &Overlay{
		base:           base,
		store:          store,
		overlayEntries: map[string]EntryMeta{},
		tombstones:     map[string]struct{}{},
		dirDelta:       map[string]*dirDelta{},
	}
}

// Resolve implements resolve(path) per spec §4.3: tombstone hides base,
// overlay entry wins over base, else fall through to base.
func (o *Overlay) Resolve(path string) (EntryMeta, bool) {
	if _, dead := o.tombstones[path]; dead {
		return EntryMeta{}, false
	}
	if m, ok := o.overlayEntries[path]; ok {
		return m, true
	}
	return o.base.Lookup(path)
}

// List implements list(dir) per spec §4.3: base children, minus removed,
// plus added, filtered to entries that still resolve (an "added" name
// whose overlay entry was since tombstoned is dropped).
func (o *Overlay) List(dir string) []string {
	set := map[string]struct{}{}
	for _, name := range o.base.Children(dir) {
		set[name] = struct{}{}
	}

	if d, ok := o.dirDelta[dir]; ok {
		for name := range d.removed {
			delete(set, name)
		}
		for name := range d.added {
			set[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		childPath := dir
		if dir != "/" {
			childPath += "/"
		}
		childPath += name
		if _, ok := o.Resolve(childPath); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// WriteFile implements write_file(path, content, fileKind, size?) per
// spec §4.3: clears any tombstone, stores content in the blob store
// (incrementing its refcount), releases any prior overlay blob at path,
// records the new entry, and registers an add-child delta on the parent.
func (o *Overlay) WriteFile(path string, content []byte, kind FileKind, size int64) {
	if path == "/" {
		return
	}

	prior, hadOverlay := o.overlayEntries[path]

	id := o.store.Put(content)
	if size == 0 {
		size = int64(len(content))
	}

	delete(o.tombstones, path)
	o.overlayEntries[path] = EntryMeta{Kind: KindFile, FileKind: kind, ContentID: id, Size: size}

	if hadOverlay && prior.Kind == KindFile {
		o.store.Release(prior.ContentID)
	}

	o.applyAddChild(ParentOf(path), BaseName(path))
}

// Mkdir implements mkdir(path) per spec §4.3: same bookkeeping as
// WriteFile but for a Dir entry, no blob involved.
func (o *Overlay) Mkdir(path string) {
	if path == "/" {
		return
	}
	delete(o.tombstones, path)
	o.overlayEntries[path] = EntryMeta{Kind: KindDir}
	o.applyAddChild(ParentOf(path), BaseName(path))
}

// Delete implements delete(path) per spec §4.3: forbids root; releases
// any overlay blob and removes the overlay entry; tombstones the path if
// base has an entry there; registers a remove-child delta on the parent.
func (o *Overlay) Delete(path string) error {
	if path == "/" {
		return ErrRootForbidden
	}

	if m, ok := o.overlayEntries[path]; ok {
		if m.Kind == KindFile {
			o.store.Release(m.ContentID)
		}
		delete(o.overlayEntries, path)
	}

	if o.base.Has(path) {
		o.tombstones[path] = struct{}{}
	}

	o.applyRemoveChild(ParentOf(path), BaseName(path))
	return nil
}

// DeleteRecursive implements recursive directory delete per spec §4.3:
// children-first single-path deletes, so overlays, refcounts, and
// dir-deltas stay consistent at every intermediate step.
func (o *Overlay) DeleteRecursive(path string) error {
	if path == "/" {
		return ErrRootForbidden
	}

	meta, ok := o.Resolve(path)
	if !ok {
		return ErrNotFound
	}
	if meta.IsDir() {
		for _, name := range o.List(path) {
			child := path
			if path != "/" {
				child += "/"
			}
			child += name
			if err := o.DeleteRecursive(child); err != nil {
				return err
			}
		}
	}
	return o.Delete(path)
}

// applyAddChild implements apply_add_child(dir, name) per spec §4.3: a
// no-op relative to base if base already has the name; otherwise record
// it in added. Always clears it from removed. Prunes the delta entry
// once both sets are empty.
func (o *Overlay) applyAddChild(dir, name string) {
	d := o.deltaFor(dir)
	delete(d.removed, name)
	if !o.base.hasChild(dir, name) {
		d.added[name] = struct{}{}
	}
	o.pruneDelta(dir, d)
}

// applyRemoveChild implements apply_remove_child(dir, name) per spec
// §4.3: if base has the name, record it in removed; always clear it from
// added. Prunes the delta entry once both sets are empty.
func (o *Overlay) applyRemoveChild(dir, name string) {
	d := o.deltaFor(dir)
	delete(d.added, name)
	if o.base.hasChild(dir, name) {
		d.removed[name] = struct{}{}
	}
	o.pruneDelta(dir, d)
}

func (o *Overlay) deltaFor(dir string) *dirDelta {
	d, ok := o.dirDelta[dir]
	if !ok {
		d = &dirDelta{added: map[string]struct{}{}, removed: map[string]struct{}{}}
		o.dirDelta[dir] = d
	}
	return d
}

func (o *Overlay) pruneDelta(dir string, d *dirDelta) {
	if d.empty() {
		delete(o.dirDelta, dir)
	}
}

func (b *Base) hasChild(dir, name string) bool {
	_, ok := b.dirIndex[dir][name]
	return ok
}
