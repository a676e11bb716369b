package event

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeWorld is a minimal stand-in for world.World satisfying Fired,
// Mutator and ReadOnlyState, so this package's tests don't need to
// import internal/world (avoided to keep the dependency direction one-
// way: world depends on nothing here, event depends on nothing there).
type fakeWorld struct {
	fired   map[string]struct{}
	flags   map[string]interface{}
	granted map[[2]string]bool
	seq     int64
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{fired: map[string]struct{}{}, flags: map[string]interface{}{}, granted: map[[2]string]bool{}}
}

func (f *fakeWorld) HasFired(key string) bool { _, ok := f.fired[key]; return ok }
func (f *fakeWorld) MarkFired(key string)     { f.fired[key] = struct{}{} }
func (f *fakeWorld) SetScenarioFlag(key string, value interface{}) {
	f.flags[key] = value
}
func (f *fakeWorld) ScenarioFlag(key string) (interface{}, bool) { v, ok := f.flags[key]; return v, ok }
func (f *fakeWorld) ServerOnline(string) bool                    { return true }

// GrantExecute mimics world.World.GrantExecute's false→true reporting
// without modeling real privilege state.
func (f *fakeWorld) GrantExecute(nodeID, userKey string) bool {
	key := [2]string{nodeID, userKey}
	if f.granted[key] {
		return false
	}
	f.granted[key] = true
	return true
}

func (f *fakeWorld) NextEventSeq() int64 {
	f.seq++
	return f.seq
}

func strp(s string) *string { return &s }

func TestPrivilegeAcquireFiresOnce(t *testing.T) {
	fw := newFakeWorld()
	sys := NewSystem(fw, fw, fw)

	h, err := NewHandlerDescriptor("scn1", "evt1", PrivilegeAcquire,
		strp("n1"), strp("u1"), strp("execute"), nil,
		nil, []Action{{Kind: ActionSetFlag, Args: map[string]interface{}{"key": "unlocked", "value": true}}})
	require.NoError(t, err)
	sys.Register(h)

	evt := GameEvent{EventType: PrivilegeAcquire, Seq: 1, Payload: PrivilegeAcquirePayload{
		NodeID: "n1", UserKey: "u1", Privilege: "execute",
	}}
	sys.Enqueue(evt)
	sys.Drain()

	v, ok := fw.ScenarioFlag("unlocked")
	require.True(t, ok)
	require.Equal(t, true, v)

	// Firing again must not re-run the action (set flag to false would
	// prove a second run).
	fw.SetScenarioFlag("unlocked", false)
	sys.Enqueue(evt)
	sys.Drain()
	v, _ = fw.ScenarioFlag("unlocked")
	require.Equal(t, false, v, "handler must not fire a second time")
}

func TestAnySentinelMatchesWildcardHandlers(t *testing.T) {
	fw := newFakeWorld()
	sys := NewSystem(fw, fw, fw)

	h, err := NewHandlerDescriptor("scn1", "any-file", FileAcquire,
		strp(""), nil, nil, strp(""), // nodeId and fileName both normalize to ANY
		nil, []Action{{Kind: ActionSetFlag, Args: map[string]interface{}{"key": "got", "value": true}}})
	require.NoError(t, err)
	sys.Register(h)

	sys.Enqueue(GameEvent{EventType: FileAcquire, Payload: FileAcquirePayload{
		FromNodeID: "any-node", FileName: "secret.txt",
	}})
	sys.Drain()

	v, ok := fw.ScenarioFlag("got")
	require.True(t, ok)
	require.True(t, v.(bool))
}

func TestFailingGuardSkipsHandler(t *testing.T) {
	fw := newFakeWorld()
	sys := NewSystem(fw, fw, fw)

	guard := func(GameEvent, ReadOnlyState) (bool, error) { return false, nil }
	h, err := NewHandlerDescriptor("scn1", "guarded", PrivilegeAcquire,
		strp("n1"), strp("u1"), strp("execute"), nil,
		guard, []Action{{Kind: ActionSetFlag, Args: map[string]interface{}{"key": "x", "value": 1}}})
	require.NoError(t, err)
	sys.Register(h)

	sys.Enqueue(GameEvent{EventType: PrivilegeAcquire, Payload: PrivilegeAcquirePayload{
		NodeID: "n1", UserKey: "u1", Privilege: "execute",
	}})
	sys.Drain()

	_, ok := fw.ScenarioFlag("x")
	require.False(t, ok)
	require.False(t, fw.HasFired(h.FiredKey()), "a false guard does not count as a firing")
}

func TestGuardPanicYieldsFalseNotCrash(t *testing.T) {
	fw := newFakeWorld()
	sys := NewSystem(fw, fw, fw)

	guard := func(GameEvent, ReadOnlyState) (bool, error) { panic("boom") }
	h, err := NewHandlerDescriptor("scn1", "panicky", PrivilegeAcquire,
		strp("n1"), strp("u1"), strp("execute"), nil,
		guard, nil)
	require.NoError(t, err)
	sys.Register(h)

	sys.Enqueue(GameEvent{EventType: PrivilegeAcquire, Payload: PrivilegeAcquirePayload{
		NodeID: "n1", UserKey: "u1", Privilege: "execute",
	}})
	require.NotPanics(t, func() { sys.Drain() })
}

func TestSlowGuardExceedsPerCallBudgetAndYieldsFalse(t *testing.T) {
	fw := newFakeWorld()
	sys := NewSystem(fw, fw, fw)

	guard := func(GameEvent, ReadOnlyState) (bool, error) {
		time.Sleep(2 * PerCallBudget)
		return true, nil
	}
	h, err := NewHandlerDescriptor("scn1", "slow", PrivilegeAcquire,
		strp("n1"), strp("u1"), strp("execute"), nil,
		guard, []Action{{Kind: ActionSetFlag, Args: map[string]interface{}{"key": "x", "value": 1}}})
	require.NoError(t, err)
	sys.Register(h)

	sys.Enqueue(GameEvent{EventType: PrivilegeAcquire, Payload: PrivilegeAcquirePayload{
		NodeID: "n1", UserKey: "u1", Privilege: "execute",
	}})
	sys.Drain()

	_, ok := fw.ScenarioFlag("x")
	require.False(t, ok, "a guard exceeding its per-call budget must be treated as false")
}

func TestGrantExecuteActionPromotesOnTransitionOnly(t *testing.T) {
	fw := newFakeWorld()
	sys := NewSystem(fw, fw, fw)

	h, err := NewHandlerDescriptor("scn1", "crack", FileAcquire,
		strp(""), nil, nil, strp("password.txt"),
		nil, []Action{{Kind: ActionGrantExecute, Args: map[string]interface{}{
			"nodeId": "target", "userKey": "root", "via": "exec:crack",
		}}})
	require.NoError(t, err)
	sys.Register(h)

	sys.Enqueue(GameEvent{EventType: FileAcquire, Seq: 1, Payload: FileAcquirePayload{
		FromNodeID: "target", UserKey: "root", FileName: "password.txt",
	}})
	sys.Drain()

	require.True(t, fw.granted[[2]string{"target", "root"}])

	fired := collectPrivilegeAcquire(sys)
	require.Len(t, fired, 1)
	require.Equal(t, "execute", fired[0].Privilege)
	require.Equal(t, "exec:crack", fired[0].Via)
}

// collectPrivilegeAcquire drains sys's internal queue to inspect events
// the handler itself enqueued; the handler already fired so a second
// Drain only surfaces what grantExecute's own enqueue call added.
func collectPrivilegeAcquire(sys *System) []PrivilegeAcquirePayload {
	sys.mu.Lock()
	pending := sys.queue
	sys.queue = nil
	sys.mu.Unlock()

	var out []PrivilegeAcquirePayload
	for _, pd := range pending {
		if p, ok := pd.evt.Payload.(PrivilegeAcquirePayload); ok {
			out = append(out, p)
		}
	}
	return out
}

// TestTickBudgetExhaustionResumesMidEventNextDrain proves that handlers
// not yet reached when the per-tick guard budget runs out partway
// through one event's candidate list are retried on the next Drain,
// never silently dropped (spec §4.5 "Excess handlers remain in queue
// for the next tick").
func TestTickBudgetExhaustionResumesMidEventNextDrain(t *testing.T) {
	fw := newFakeWorld()
	sys := NewSystem(fw, fw, fw)

	slow := func(GameEvent, ReadOnlyState) (bool, error) {
		time.Sleep(PerCallBudget / 2)
		return true, nil
	}

	const numHandlers = 8
	for i := 0; i < numHandlers; i++ {
		key := fmt.Sprintf("flag%d", i)
		h, err := NewHandlerDescriptor("scn1", key, FileAcquire,
			strp(""), nil, nil, strp(""),
			slow, []Action{{Kind: ActionSetFlag, Args: map[string]interface{}{"key": key, "value": true}}})
		require.NoError(t, err)
		sys.Register(h)
	}

	sys.Enqueue(GameEvent{EventType: FileAcquire, Seq: 1, Payload: FileAcquirePayload{
		FromNodeID: "any-node", FileName: "any-file",
	}})
	sys.Drain()

	fired := 0
	for i := 0; i < numHandlers; i++ {
		if _, ok := fw.ScenarioFlag(fmt.Sprintf("flag%d", i)); ok {
			fired++
		}
	}
	require.Less(t, fired, numHandlers, "the tick budget must not cover every slow handler in one Drain")
	require.Greater(t, fired, 0)

	// The remaining handlers must still be pending, not dropped: further
	// Drain calls (each with a fresh per-tick budget) eventually reach
	// every one of them.
	for i := 0; i < numHandlers && fired < numHandlers; i++ {
		sys.Drain()
		fired = 0
		for j := 0; j < numHandlers; j++ {
			if _, ok := fw.ScenarioFlag(fmt.Sprintf("flag%d", j)); ok {
				fired++
			}
		}
	}
	require.Equal(t, numHandlers, fired, "every candidate handler must eventually run, never silently skipped")
}

func TestTerminalQueueBroadcastAndTaggedDelivery(t *testing.T) {
	tq := NewTerminalQueue()
	tq.Post("n1", "u1", "tagged")
	tq.Post("", "", "broadcast")

	out := tq.Drain("n1", "u1")
	require.Len(t, out, 2)

	// Already drained: a second drain for the same tag finds nothing new.
	out = tq.Drain("n1", "u1")
	require.Empty(t, out)
}

func TestParseGuardContentPrefixes(t *testing.T) {
	src, err := ParseGuardContent("script-return true")
	require.NoError(t, err)
	require.Equal(t, GuardInline, src.Kind)
	require.Equal(t, "return true", src.Body)

	src, err = ParseGuardContent("id-myscript")
	require.NoError(t, err)
	require.Equal(t, GuardScriptRef, src.Kind)

	src, err = ParseGuardContent("path-scripts/guard.lua")
	require.NoError(t, err)
	require.Equal(t, GuardPathRef, src.Kind)

	_, err = ParseGuardContent("nonsense")
	require.ErrorIs(t, err, ErrMalformedGuardContent)
}
