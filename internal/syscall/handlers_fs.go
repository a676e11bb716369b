package syscall

import (
	"strings"

	"github.com/hollowgrid/engine/internal/vfs"
)

func handlePwd(ctx *ExecContext, args []string) Result {
	return Ok(ctx.Cwd)
}

func handleLs(ctx *ExecContext, args []string) Result {
	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}
	dir := ctx.Cwd
	if len(args) > 0 {
		dir = ctx.Resolve(args[0])
	}
	if meta, ok := fs.Resolve(dir); !ok {
		return Err(ErrNotFound, "no such directory: "+dir)
	} else if !meta.IsDir() {
		return Err(ErrNotDirectory, dir+" is not a directory")
	}
	return Ok(fs.List(dir)...)
}

func handleCd(ctx *ExecContext, args []string) Result {
	if len(args) != 1 {
		return Err(ErrInvalidArgs, "usage: cd <path>")
	}
	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}
	target := ctx.Resolve(args[0])
	meta, ok := fs.Resolve(target)
	if !ok {
		return Err(ErrNotFound, "no such directory: "+target)
	}
	if !meta.IsDir() {
		return Err(ErrNotDirectory, target+" is not a directory")
	}
	return Ok().WithCwd(target)
}

func handleCat(ctx *ExecContext, args []string) Result {
	if len(args) != 1 {
		return Err(ErrInvalidArgs, "usage: cat <path>")
	}
	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}
	path := ctx.Resolve(args[0])
	meta, ok := fs.Resolve(path)
	if !ok {
		return Err(ErrNotFound, "no such file: "+path)
	}
	if meta.IsDir() {
		return Err(ErrIsDirectory, path+" is a directory")
	}
	if !meta.FileKind.Editable() {
		return Err(ErrNotTextFile, path+" is not a text file")
	}
	data, err := ctx.World.BlobStore.Get(meta.ContentID)
	if err != nil {
		return Err(ErrInternalError, err.Error())
	}
	return Ok(string(data))
}

func handleEdit(ctx *ExecContext, args []string) Result {
	if len(args) != 1 {
		return Err(ErrInvalidArgs, "usage: edit <path>")
	}
	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}
	path := ctx.Resolve(args[0])
	if meta, ok := fs.Resolve(path); ok {
		if meta.IsDir() {
			return Err(ErrIsDirectory, path+" is a directory")
		}
		if !meta.FileKind.Editable() {
			return Err(ErrNotTextFile, path+" is not a text file")
		}
	}
	return Ok().WithData(map[string]interface{}{"openEditor": path})
}

// SaveEditorContent applies an edit session's saved content; called by
// internal/engine when the terminal context's editor closes, not
// dispatched through the command line directly.
func SaveEditorContent(ctx *ExecContext, path, content string) Result {
	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}
	fs.WriteFile(path, []byte(content), vfs.Text, 0)
	return Ok()
}

func handleMkdir(ctx *ExecContext, args []string) Result {
	if len(args) != 1 {
		return Err(ErrInvalidArgs, "usage: mkdir <path>")
	}
	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}
	path := ctx.Resolve(args[0])
	if _, ok := fs.Resolve(path); ok {
		return Err(ErrAlreadyExists, path+" already exists")
	}
	fs.Mkdir(path)
	return Ok()
}

func handleRmdir(ctx *ExecContext, args []string) Result {
	if len(args) != 1 {
		return Err(ErrInvalidArgs, "usage: rmdir <path>")
	}
	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}
	path := ctx.Resolve(args[0])
	meta, ok := fs.Resolve(path)
	if !ok {
		return Err(ErrNotFound, "no such directory: "+path)
	}
	if !meta.IsDir() {
		return Err(ErrNotDirectory, path+" is not a directory")
	}
	if len(fs.List(path)) > 0 {
		return Err(ErrNotEmpty, path+" is not empty")
	}
	if err := fs.Delete(path); err != nil {
		return Err(ErrPermissionDenied, err.Error())
	}
	return Ok()
}

func handleRm(ctx *ExecContext, args []string) Result {
	recursive := false
	var targets []string
	for _, a := range args {
		if a == "-r" {
			recursive = true
			continue
		}
		targets = append(targets, a)
	}
	if len(targets) != 1 {
		return Err(ErrInvalidArgs, "usage: rm [-r] <path>")
	}

	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}
	path := ctx.Resolve(targets[0])
	meta, ok := fs.Resolve(path)
	if !ok {
		return Err(ErrNotFound, "no such file: "+path)
	}
	if meta.IsDir() && !recursive {
		return Err(ErrIsDirectory, path+" is a directory, use rm -r")
	}

	var err error
	if meta.IsDir() {
		err = fs.DeleteRecursive(path)
	} else {
		err = fs.Delete(path)
	}
	if err != nil {
		return Err(ErrPermissionDenied, err.Error())
	}
	return Ok()
}

func handleCp(ctx *ExecContext, args []string) Result {
	return copyOrMove(ctx, args, false)
}

func handleMv(ctx *ExecContext, args []string) Result {
	return copyOrMove(ctx, args, true)
}

func copyOrMove(ctx *ExecContext, args []string, remove bool) Result {
	if len(args) != 2 {
		return Err(ErrInvalidArgs, "usage: cp|mv <src> <dst>")
	}
	fs, ok := ctx.FS()
	if !ok {
		return Err(ErrInternalError, "no filesystem")
	}

	src := ctx.Resolve(args[0])
	dst := ctx.Resolve(args[1])

	meta, ok := fs.Resolve(src)
	if !ok {
		return Err(ErrNotFound, "no such file: "+src)
	}
	if meta.IsDir() {
		return Err(ErrIsDirectory, src+" is a directory")
	}
	data, err := ctx.World.BlobStore.Get(meta.ContentID)
	if err != nil {
		return Err(ErrInternalError, err.Error())
	}

	fs.WriteFile(dst, data, meta.FileKind, meta.Size)
	if remove {
		if err := fs.Delete(src); err != nil {
			return Err(ErrPermissionDenied, err.Error())
		}
	}
	return Ok()
}

func handleClear(ctx *ExecContext, args []string) Result {
	return Ok().WithData(map[string]interface{}{"clearScreen": true})
}

func handleEcho(ctx *ExecContext, args []string) Result {
	return Ok(strings.Join(args, " "))
}

func handleHelp(ctx *ExecContext, args []string) Result {
	return Ok(
		"pwd, ls, cd, cat, edit, mkdir, rmdir, cp, mv, rm [-r],",
		"clear, echo, help, ping, known, scan, connect, disconnect, ftp",
	)
}
