package intrinsic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/session"
	"github.com/hollowgrid/engine/internal/syscall"
	"github.com/hollowgrid/engine/internal/vfs"
	"github.com/hollowgrid/engine/internal/world"
)

type fakeFired struct{ fired map[string]struct{} }

func newFakeFired() *fakeFired                { return &fakeFired{fired: map[string]struct{}{}} }
func (f *fakeFired) HasFired(key string) bool { _, ok := f.fired[key]; return ok }
func (f *fakeFired) MarkFired(key string)     { f.fired[key] = struct{}{} }

func newFixture(t *testing.T) (*world.World, *event.System, *session.Manager, *Table) {
	t.Helper()
	w, err := world.New(1)
	require.NoError(t, err)
	fw := newFakeFired()
	sys := event.NewSystem(w, fw, w)
	sm := session.New(w, sys)

	disp := syscall.NewDispatcher()
	syscall.RegisterBuiltins(disp.Commands)

	table := NewTable(w, sys, sm, disp)
	return w, sys, sm, table
}

func serverWithOverlay(w *world.World, role world.Role, nodeID, net, ip string) *world.Server {
	base := vfs.NewBase()
	overlay := vfs.NewOverlay(base, w.BlobStore)
	s := world.NewServer(nodeID, nodeID, role, overlay, 8)
	s.Ifaces = []world.Interface{{NetID: net, IP: ip}}
	return s
}

func connectTerminal(t *testing.T, sm *session.Manager, terminalKey, srcID, dstID, userID, password string) {
	t.Helper()
	cur := session.Context{NodeID: srcID, UserKey: "system", Cwd: "/"}
	_, res := sm.Connect(terminalKey, cur, session.ConnectRequest{HostOrIP: dstID, UserID: userID, Password: password, Port: 22})
	require.True(t, res.OK, res.Lines)
}

func TestFsWriteRequiresWritePrivilegeAndEmitsFileAcquire(t *testing.T) {
	w, sys, sm, table := newFixture(t)

	src := serverWithOverlay(w, world.RoleTerminal, "src", "netA", "10.0.0.1")
	require.NoError(t, w.AddServer(src))

	dst := serverWithOverlay(w, world.RoleMainframe, "dst", "netA", "10.0.0.2")
	dst.Status = world.StatusOnline
	dst.Ports[22] = &world.PortConfig{Type: world.PortSSH, Exposure: world.ExposureLAN}
	dst.Users["u1"] = &world.UserConfig{UserID: "alice", AuthMode: world.AuthNone, Privileges: world.Privileges{Read: true, Write: true}}
	require.NoError(t, w.AddServer(dst))

	connectTerminal(t, sm, "term1", "src", "dst", "alice", "")

	anyNode, fileName := "", "notes.txt"
	h, err := event.NewHandlerDescriptor("scn1", "notes", event.FileAcquire, &anyNode, nil, nil, &fileName,
		nil, []event.Action{{Kind: event.ActionSetFlag, Args: map[string]interface{}{"key": "gotNotes", "value": true}}})
	require.NoError(t, err)
	sys.Register(h)

	res := table.FsWrite("term1", CallOpts{}, "/notes.txt", "hello")
	require.Equal(t, 1, res["ok"])

	sys.Drain()
	meta, ok := dst.FS.Resolve("/notes.txt")
	require.True(t, ok)
	require.False(t, meta.IsDir())

	_, emitted := w.ScenarioFlag("gotNotes")
	require.True(t, emitted, "fs.write must emit fileAcquire")
}

func TestFsWriteDeniedWithoutPrivilege(t *testing.T) {
	w, _, sm, table := newFixture(t)

	src := serverWithOverlay(w, world.RoleTerminal, "src", "netA", "10.0.0.1")
	require.NoError(t, w.AddServer(src))

	dst := serverWithOverlay(w, world.RoleMainframe, "dst", "netA", "10.0.0.2")
	dst.Status = world.StatusOnline
	dst.Ports[22] = &world.PortConfig{Type: world.PortSSH, Exposure: world.ExposureLAN}
	dst.Users["u1"] = &world.UserConfig{UserID: "alice", AuthMode: world.AuthNone}
	require.NoError(t, w.AddServer(dst))

	connectTerminal(t, sm, "term1", "src", "dst", "alice", "")

	res := table.FsWrite("term1", CallOpts{}, "/notes.txt", "hello")
	require.Equal(t, 0, res["ok"])
	require.Equal(t, string(syscall.ErrPermissionDenied), res["code"])
}

func TestRateLimiterBreachYieldsRateLimitedCode(t *testing.T) {
	w, _, sm, table := newFixture(t)
	table.limiter = NewLimiter(1)

	src := serverWithOverlay(w, world.RoleTerminal, "src", "netA", "10.0.0.1")
	require.NoError(t, w.AddServer(src))
	dst := serverWithOverlay(w, world.RoleMainframe, "dst", "netA", "10.0.0.2")
	dst.Status = world.StatusOnline
	dst.Ports[22] = &world.PortConfig{Type: world.PortSSH, Exposure: world.ExposureLAN}
	dst.Users["u1"] = &world.UserConfig{UserID: "alice", AuthMode: world.AuthNone}
	require.NoError(t, w.AddServer(dst))
	connectTerminal(t, sm, "term1", "src", "dst", "alice", "")

	first := table.FsList("term1", CallOpts{}, "/")
	require.NotEqual(t, string(syscall.ErrRateLimited), first["code"])

	second := table.FsList("term1", CallOpts{}, "/")
	require.Equal(t, string(syscall.ErrRateLimited), second["code"])
}

func TestLimiterResetsAfterWindow(t *testing.T) {
	l := NewLimiter(1)
	now := time.Now()
	require.True(t, l.Allow(now))
	require.False(t, l.Allow(now))
	require.True(t, l.Allow(now.Add(2*time.Second)))
}

func TestNetScanDelegatesToScanCommand(t *testing.T) {
	w, _, sm, table := newFixture(t)

	src := serverWithOverlay(w, world.RoleTerminal, "src", "netA", "10.0.0.1")
	require.NoError(t, w.AddServer(src))

	dst := serverWithOverlay(w, world.RoleMainframe, "dst", "netA", "10.0.0.2")
	dst.Status = world.StatusOnline
	dst.Ports[22] = &world.PortConfig{Type: world.PortSSH, Exposure: world.ExposureLAN}
	dst.Users["u1"] = &world.UserConfig{UserID: "alice", AuthMode: world.AuthNone}
	dst.LANNeighbors = []string{"src"}
	require.NoError(t, w.AddServer(dst))
	src.LANNeighbors = []string{"dst"}

	connectTerminal(t, sm, "term1", "src", "dst", "alice", "")

	res := table.NetScan("term1", CallOpts{})
	require.Equal(t, 1, res["ok"])
}

func TestSSHConnectChainsThroughIntrinsicSurface(t *testing.T) {
	w, _, _, table := newFixture(t)

	src := serverWithOverlay(w, world.RoleTerminal, "src", "netA", "10.0.0.1")
	require.NoError(t, w.AddServer(src))

	dst := serverWithOverlay(w, world.RoleMainframe, "dst", "netA", "10.0.0.2")
	dst.Status = world.StatusOnline
	dst.Ports[22] = &world.PortConfig{Type: world.PortSSH, Exposure: world.ExposureLAN}
	dst.Users["u1"] = &world.UserConfig{UserID: "alice", AuthMode: world.AuthNone}
	require.NoError(t, w.AddServer(dst))

	res := table.SSHConnect("term1", CallOpts{}, "dst", "alice", "", 22)
	require.Equal(t, 1, res["ok"])
	require.Equal(t, "dst", res["nodeId"])
}

func TestTermPrintPostsToTerminalQueue(t *testing.T) {
	w, sys, sm, table := newFixture(t)

	src := serverWithOverlay(w, world.RoleTerminal, "src", "netA", "10.0.0.1")
	require.NoError(t, w.AddServer(src))
	dst := serverWithOverlay(w, world.RoleMainframe, "dst", "netA", "10.0.0.2")
	dst.Status = world.StatusOnline
	dst.Ports[22] = &world.PortConfig{Type: world.PortSSH, Exposure: world.ExposureLAN}
	dst.Users["u1"] = &world.UserConfig{UserID: "alice", AuthMode: world.AuthNone}
	require.NoError(t, w.AddServer(dst))

	connectTerminal(t, sm, "term1", "src", "dst", "alice", "")

	res := table.TermPrint("term1", CallOpts{}, "hello from script")
	require.Equal(t, 1, res["ok"])

	lines := sys.Terminal.Drain("dst", "u1")
	require.Len(t, lines, 1)
	require.Equal(t, "hello from script", lines[0].Text)
}
