package vfs

import "github.com/hollowgrid/engine/internal/blob"

// Kind distinguishes a directory entry from a file entry.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// FileKind further classifies a File entry per spec §3 / §4.3.
type FileKind int

const (
	Text FileKind = iota
	Binary
	Image
	ExecutableScript
	ExecutableHardcode
)

// Editable reports whether cat/edit may read this file kind's content,
// per the file-kind policy: only Text and ExecutableScript are
// editor-readable.
func (k FileKind) Editable() bool {
	return k == Text || k == ExecutableScript
}

// Executable reports whether this file kind may be run directly: only
// ExecutableScript (source run under the interpreter) and
// ExecutableHardcode (body "exec:<id>", dispatched via the hardcoded
// registry).
func (k FileKind) Executable() bool {
	return k == ExecutableScript || k == ExecutableHardcode
}

// EntryMeta describes one path's entry, either in the base tree or an
// overlay. ContentId and FileKind are meaningful only when Kind==KindFile.
type EntryMeta struct {
	Kind      Kind
	FileKind  FileKind
	ContentID blob.ContentID
	Size      int64 // logical size, may differ from the blob's physical length
}

// IsDir reports whether this entry is a directory.
func (e EntryMeta) IsDir() bool { return e.Kind == KindDir }
