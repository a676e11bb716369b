package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hollowgrid/engine/internal/blob"
)

func newTestOverlay() (*Base, *blob.Store, *Overlay) {
	base := NewBase()
	base.Put("/etc", EntryMeta{Kind: KindDir})
	store := blob.NewStore()
	id := store.PutBase([]byte("motd text"))
	base.Put("/etc/motd", EntryMeta{Kind: KindFile, FileKind: Text, ContentID: id, Size: 9})
	return base, store, NewOverlay(base, store)
}

func TestResolutionPriority(t *testing.T) {
	_, store, o := newTestOverlay()

	// base-only: resolves to base entry.
	m, ok := o.Resolve("/etc/motd")
	require.True(t, ok)
	require.Equal(t, Text, m.FileKind)

	// overlay entry shadows base.
	o.WriteFile("/etc/motd", []byte("overridden"), Text, 0)
	m, ok = o.Resolve("/etc/motd")
	require.True(t, ok)
	data, err := store.Get(m.ContentID)
	require.NoError(t, err)
	require.Equal(t, "overridden", string(data))

	// tombstone beats overlay entry.
	require.NoError(t, o.Delete("/etc/motd"))
	_, ok = o.Resolve("/etc/motd")
	require.False(t, ok)

	// mkdir on the tombstoned path overrides resolution per spec: a
	// Dir entry at the same path wins priority over the tombstone.
	o.Mkdir("/etc/motd")
	m, ok = o.Resolve("/etc/motd")
	require.True(t, ok)
	require.True(t, m.IsDir())
}

func TestTombstoneHidesFromListing(t *testing.T) {
	_, _, o := newTestOverlay()

	require.Contains(t, o.List("/etc"), "motd")

	require.NoError(t, o.Delete("/etc/motd"))
	require.NotContains(t, o.List("/etc"), "motd")
}

func TestWriteThenDeleteOnBaseAbsentPathLeavesNoTrace(t *testing.T) {
	_, _, o := newTestOverlay()

	o.WriteFile("/etc/new.txt", []byte("hi"), Text, 0)
	require.NoError(t, o.Delete("/etc/new.txt"))

	_, hasOverlay := o.overlayEntries["/etc/new.txt"]
	_, hasTomb := o.tombstones["/etc/new.txt"]
	require.False(t, hasOverlay)
	require.False(t, hasTomb)
	require.NotContains(t, o.dirDelta, "/etc")
}

func TestWriteThenDeleteOnBasePresentPathLeavesOnlyTombstone(t *testing.T) {
	_, _, o := newTestOverlay()

	o.WriteFile("/etc/motd", []byte("x"), Text, 0)
	require.NoError(t, o.Delete("/etc/motd"))

	_, hasOverlay := o.overlayEntries["/etc/motd"]
	require.False(t, hasOverlay)
	_, hasTomb := o.tombstones["/etc/motd"]
	require.True(t, hasTomb)
}

func TestDirDeltaCollapsesToEmpty(t *testing.T) {
	_, _, o := newTestOverlay()

	o.WriteFile("/etc/new.txt", []byte("x"), Text, 0)
	require.Contains(t, o.dirDelta, "/etc")

	require.NoError(t, o.Delete("/etc/new.txt"))
	require.NotContains(t, o.dirDelta, "/etc")
}

func TestRecursiveDeleteIsChildrenFirst(t *testing.T) {
	base, store, o := newTestOverlay()
	base.Put("/srv", EntryMeta{Kind: KindDir})
	o = NewOverlay(base, store)

	o.Mkdir("/srv/app")
	o.WriteFile("/srv/app/main.txt", []byte("x"), Text, 0)
	o.WriteFile("/srv/app/data.txt", []byte("y"), Text, 0)

	require.NoError(t, o.DeleteRecursive("/srv/app"))

	_, ok := o.Resolve("/srv/app")
	require.False(t, ok)
	_, ok = o.Resolve("/srv/app/main.txt")
	require.False(t, ok)
	require.Empty(t, o.List("/srv"))
}

func TestRefcountReleasedOnOverwrite(t *testing.T) {
	_, store, o := newTestOverlay()

	o.WriteFile("/etc/a.txt", []byte("same"), Text, 0)
	id1, _ := o.Resolve("/etc/a.txt")
	require.Equal(t, 1, store.RefCount(id1.ContentID))

	o.WriteFile("/etc/a.txt", []byte("different"), Text, 0)
	require.Equal(t, 0, store.RefCount(id1.ContentID))
}

func TestFileKindPolicy(t *testing.T) {
	require.True(t, Text.Editable())
	require.True(t, ExecutableScript.Editable())
	require.False(t, Binary.Editable())
	require.False(t, Image.Editable())
	require.False(t, ExecutableHardcode.Editable())

	require.True(t, ExecutableScript.Executable())
	require.True(t, ExecutableHardcode.Executable())
	require.False(t, Text.Executable())
}

func TestNormalizePath(t *testing.T) {
	cases := []struct{ cwd, rel, want string }{
		{"/home/user", "docs", "/home/user/docs"},
		{"/home/user", "../etc", "/home/etc"},
		{"/", "..", "/"},
		{"/a/b", "/c/./d", "/c/d"},
		{"/a", "//b///c", "/a/b/c"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, NormalizePath(c.cwd, c.rel), "cwd=%s rel=%s", c.cwd, c.rel)
	}
}
