package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/world"
)

func newTestWorld(t *testing.T) *world.World {
	w, err := world.New(1)
	require.NoError(t, err)
	return w
}

func mkServer(nodeID string) *world.Server {
	return world.NewServer(nodeID, nodeID, world.RoleTerminal, nil, 8)
}

func TestPopDueFiresInAscendingOrder(t *testing.T) {
	w := newTestWorld(t)
	s := New(w, nil)

	host := mkServer("n1")
	require.NoError(t, w.AddServer(host))

	for _, endAt := range []int64{300, 100, 200} {
		pid := w.NextProcessID()
		w.ProcessList[pid] = &world.Process{ProcessID: pid, HostNodeID: "n1", State: world.ProcessRunning, EndAt: endAt}
		host.OwnedProcesses[pid] = struct{}{}
		s.Schedule(pid, endAt)
	}

	s.PopDue(150)
	// only the endAt=100 process should have fired
	finishedCount := 0
	for _, p := range w.ProcessList {
		if p.State == world.ProcessFinished {
			finishedCount++
		}
	}
	require.Equal(t, 1, finishedCount)

	s.PopDue(1000)
	finishedCount = 0
	for _, p := range w.ProcessList {
		if p.State == world.ProcessFinished {
			finishedCount++
		}
	}
	require.Equal(t, 3, finishedCount)
	require.Empty(t, host.OwnedProcesses)
}

func TestDisabledHostSuppressesEffectButStillEmits(t *testing.T) {
	w := newTestWorld(t)
	fw := newFakeFired()
	sys := event.NewSystem(w, fw, w)
	s := New(w, sys)

	host := mkServer("n1")
	host.Status = world.StatusOffline
	host.Reason = world.ReasonDisabled
	require.NoError(t, w.AddServer(host))

	pid := w.NextProcessID()
	w.ProcessList[pid] = &world.Process{ProcessID: pid, HostNodeID: "n1", State: world.ProcessRunning, ProcessType: "booting", EndAt: 50}
	host.OwnedProcesses[pid] = struct{}{}
	s.Schedule(pid, 50)

	hostID, anyUser := "n1", ""
	h, err := event.NewHandlerDescriptor("scn1", "boot", event.ProcessFinished, &hostID, &anyUser, nil, nil,
		nil, []event.Action{{Kind: event.ActionSetFlag, Args: map[string]interface{}{"key": "bootFinished", "value": true}}})
	require.NoError(t, err)
	sys.Register(h)

	s.PopDue(100)

	require.Equal(t, world.ProcessFinished, w.ProcessList[pid].State)
	require.Equal(t, world.StatusOffline, host.Status, "disabled host's boot effect must be suppressed")

	sys.Drain()
	_, emitted := w.ScenarioFlag("bootFinished")
	require.True(t, emitted, "processFinished must still be emitted for a disabled host")
}

func TestRebootCancelsOwnedProcessesAndRegistersBoot(t *testing.T) {
	w := newTestWorld(t)
	s := New(w, nil)

	host := mkServer("n1")
	host.Status = world.StatusOnline
	host.Reason = world.ReasonOK
	require.NoError(t, w.AddServer(host))

	pid := w.NextProcessID()
	w.ProcessList[pid] = &world.Process{ProcessID: pid, HostNodeID: "n1", State: world.ProcessRunning, EndAt: 9999}
	host.OwnedProcesses[pid] = struct{}{}
	s.Schedule(pid, 9999)
	host.Sessions[1] = &world.Session{SessionID: 1}

	s.Reboot("n1", 0, 500)

	require.Equal(t, world.ProcessCanceled, w.ProcessList[pid].State)
	require.Equal(t, world.StatusOffline, host.Status)
	require.Equal(t, world.ReasonReboot, host.Reason)
	require.Empty(t, host.Sessions)
	require.Len(t, host.OwnedProcesses, 1, "exactly the new booting process remains owned")

	s.PopDue(500)
	require.Equal(t, world.StatusOnline, host.Status)
	require.Equal(t, world.ReasonOK, host.Reason)
}

// fakeFired is a minimal event.Fired so these tests can build a real
// event.System without importing test-only helpers from another package.
type fakeFired struct{ fired map[string]struct{} }

func newFakeFired() *fakeFired { return &fakeFired{fired: map[string]struct{}{}} }

func (f *fakeFired) HasFired(key string) bool { _, ok := f.fired[key]; return ok }
func (f *fakeFired) MarkFired(key string)     { f.fired[key] = struct{}{} }
