package syscall

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hollowgrid/engine/internal/vfs"
	"github.com/hollowgrid/engine/internal/world"
)

func TestTokenizePOSIXQuoting(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`ls -la`, []string{"ls", "-la"}},
		{`echo "hello world"`, []string{"echo", "hello world"}},
		{`echo "a\"b"`, []string{"echo", `a"b`}},
		{`  cd   /tmp  `, []string{"cd", "/tmp"}},
	}
	for _, c := range cases {
		got, err := Tokenize(c.in)
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestTokenizeUnterminatedQuoteErrors(t *testing.T) {
	_, err := Tokenize(`echo "unterminated`)
	require.ErrorIs(t, err, ErrUnterminatedQuote)
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("ls", handleLs))
	require.Error(t, r.Register("LS", handleLs), "registration is case-insensitive")
}

func newTestCtx(t *testing.T) *ExecContext {
	w, err := world.New(1)
	require.NoError(t, err)

	base := vfs.NewBase()
	base.Put("/etc", vfs.EntryMeta{Kind: vfs.KindDir})
	id := w.BlobStore.PutBase([]byte("hello"))
	base.Put("/etc/motd", vfs.EntryMeta{Kind: vfs.KindFile, FileKind: vfs.Text, ContentID: id, Size: 5})

	overlay := vfs.NewOverlay(base, w.BlobStore)
	s := world.NewServer("n1", "n1", world.RoleTerminal, overlay, 8)
	s.Users["u1"] = &world.UserConfig{UserID: "alice", Privileges: world.Privileges{Read: true, Write: true, Execute: true}}
	require.NoError(t, w.AddServer(s))

	return &ExecContext{World: w, NodeID: "n1", UserKey: "u1", Cwd: "/"}
}

func TestLsAndCat(t *testing.T) {
	ctx := newTestCtx(t)
	d := NewDispatcher()
	RegisterBuiltins(d.Commands)

	res := d.Execute(ctx, "ls /etc")
	require.True(t, res.OK)
	require.Contains(t, res.Lines, "motd")

	res = d.Execute(ctx, `cat /etc/motd`)
	require.True(t, res.OK)
	require.Equal(t, []string{"hello"}, res.Lines)
}

func TestCdTransitionsCwd(t *testing.T) {
	ctx := newTestCtx(t)
	d := NewDispatcher()
	RegisterBuiltins(d.Commands)

	res := d.Execute(ctx, "cd /etc")
	require.True(t, res.OK)
	require.Equal(t, "/etc", res.NextCwd)

	res = d.Execute(ctx, "cd /nope")
	require.False(t, res.OK)
	require.Equal(t, ErrNotFound, res.Code)
}

func TestRmRequiresRecursiveFlagForDirectories(t *testing.T) {
	ctx := newTestCtx(t)
	d := NewDispatcher()
	RegisterBuiltins(d.Commands)

	res := d.Execute(ctx, "rm /etc")
	require.False(t, res.OK)
	require.Equal(t, ErrIsDirectory, res.Code)

	res = d.Execute(ctx, "rm -r /etc")
	require.True(t, res.OK)
}

func TestUnknownCommandReportsCode(t *testing.T) {
	ctx := newTestCtx(t)
	d := NewDispatcher()
	RegisterBuiltins(d.Commands)

	res := d.Execute(ctx, "totallyfake")
	require.False(t, res.OK)
	require.Equal(t, ErrUnknownCommand, res.Code)
}

func TestExecutableHardcodeFallbackDispatches(t *testing.T) {
	ctx := newTestCtx(t)
	fs, _ := ctx.FS()
	fs.WriteFile("/opt/bin/greet", []byte("exec:greet"), vfs.ExecutableHardcode, 0)

	d := NewDispatcher()
	RegisterBuiltins(d.Commands)
	d.Hardcoded.Register("greet", func(ctx *ExecContext, args []string) Result {
		return Ok("hi there")
	})

	res := d.Execute(ctx, "greet")
	require.True(t, res.OK)
	require.Equal(t, []string{"hi there"}, res.Lines)
}

func TestExecutableFallbackRequiresExecutePrivilege(t *testing.T) {
	ctx := newTestCtx(t)
	fs, _ := ctx.FS()
	fs.WriteFile("/opt/bin/greet", []byte("exec:greet"), vfs.ExecutableHardcode, 0)
	ctx.World.ServerList["n1"].Users["u1"].Privileges.Execute = false

	d := NewDispatcher()
	RegisterBuiltins(d.Commands)
	d.Hardcoded.Register("greet", func(ctx *ExecContext, args []string) Result { return Ok("hi") })

	res := d.Execute(ctx, "greet")
	require.False(t, res.OK)
	require.Equal(t, ErrPermissionDenied, res.Code)
}
