package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hollowgrid/engine/internal/blueprint"
	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/world"
)

func strp(s string) *string { return &s }

func fixtureBlueprint() *blueprint.ScenarioBlueprint {
	return &blueprint.ScenarioBlueprint{
		ScenarioID: "intro",
		Specs: []blueprint.ServerSpecBlueprint{
			{
				SpecID:        "workstation",
				Role:          "terminal",
				Hostname:      "term",
				InitialStatus: "online",
				Interfaces: []blueprint.InterfaceSpec{
					{NetID: "home", HostSuffix: []int{5}, InitiallyExposed: true},
				},
				Ports: map[int]blueprint.PortSpec{
					22: {Type: "ssh", Exposure: "public", ServiceID: "sshd", Banner: "welcome"},
				},
				Daemons: map[string]blueprint.DaemonSpec{
					"sshd": {DaemonType: "ssh", UserKey: "admin"},
				},
				Users: map[string]blueprint.UserSpec{
					"admin": {UserID: "AUTO:user", Password: "AUTO:dictionary", AuthMode: "static", Read: true, Write: true, Execute: true},
				},
				Disk: blueprint.DiskSpec{
					Dirs: []string{"/etc"},
					Files: map[string]blueprint.DiskFileSpec{
						"/etc/motd": {FileKind: "hardcode", Content: []byte("hello")},
					},
				},
				LogCapacity: 50,
			},
			{
				SpecID: "target",
				Role:   "mainframe",
				Interfaces: []blueprint.InterfaceSpec{
					{NetID: "internet", InitiallyExposed: true},
				},
				Ports: map[int]blueprint.PortSpec{
					22: {Type: "ssh", Exposure: "public", ServiceID: "sshd"},
					80: {Type: "http", Exposure: "public", ServiceID: "www"},
				},
				Daemons: map[string]blueprint.DaemonSpec{
					"otp": {DaemonType: "otp", UserKey: "root"},
				},
				Users: map[string]blueprint.UserSpec{
					"root": {UserID: "AUTO:token", Password: "AUTO:c16_base64", AuthMode: "otp", Read: true},
				},
			},
		},
		Spawns: []blueprint.ServerSpawn{
			{NodeID: "node-home", SpecID: "workstation"},
			{
				NodeID: "node-target",
				SpecID: "target",
				PortOverrides: map[int]*blueprint.PortSpec{
					80: nil, // delete the http port from this spawn
				},
				DiskOverlay: blueprint.DiskSpec{
					Dirs: []string{"/home"},
				},
			},
		},
		AddressPlan: []blueprint.AddressPlan{
			{NetID: "home", CIDR: "10.0.0.0/24"},
			{NetID: "internet", CIDR: "172.16.0.0/24"},
		},
		Links: []blueprint.Link{
			{A: "node-home", B: "node-target"},
		},
		MyWorkstation: "node-home",
	}
}

func TestBuildDeterministic(t *testing.T) {
	bp := fixtureBlueprint()

	w1, sys1, err := Build(bp, 42, nil)
	require.NoError(t, err)
	require.NotNil(t, sys1)

	w2, _, err := Build(bp, 42, nil)
	require.NoError(t, err)

	for nodeID, s1 := range w1.ServerList {
		s2, ok := w2.ServerList[nodeID]
		require.True(t, ok)
		require.Equal(t, s1.Ifaces, s2.Ifaces)
		require.Equal(t, s1.Users["admin"], s2.Users["admin"])
	}
}

func TestMergeSpawnOverridesAndDeletes(t *testing.T) {
	bp := fixtureBlueprint()
	w, _, err := Build(bp, 7, nil)
	require.NoError(t, err)

	target := w.ServerList["node-target"]
	require.NotNil(t, target)
	_, hasHTTP := target.Ports[80]
	require.False(t, hasHTTP, "http port override with nil value must delete the key")
	_, hasSSH := target.Ports[22]
	require.True(t, hasSSH)
}

func TestAutoUserIDUsesKeyLiterally(t *testing.T) {
	bp := fixtureBlueprint()
	w, _, err := Build(bp, 7, nil)
	require.NoError(t, err)

	home := w.ServerList["node-home"]
	require.Equal(t, "admin", home.Users["admin"].UserID)
}

func TestAutoDictionaryPasswordInPool(t *testing.T) {
	bp := fixtureBlueprint()
	w, _, err := Build(bp, 7, nil)
	require.NoError(t, err)

	home := w.ServerList["node-home"]
	pw := home.Users["admin"].Password
	found := false
	for _, word := range dictionaryPool {
		if word == pw {
			found = true
			break
		}
	}
	require.True(t, found, "AUTO:dictionary password must come from the fixed pool")
}

func TestAutoBase64TokenLength(t *testing.T) {
	bp := fixtureBlueprint()
	w, _, err := Build(bp, 7, nil)
	require.NoError(t, err)

	target := w.ServerList["node-target"]
	require.Len(t, target.Users["root"].Password, 16)
}

func TestAutoNumspecialTokenUsesFixedAlphabet(t *testing.T) {
	pw := resolvePassword("AUTO:c8_numspecial", "node-x", "root", 7)
	require.Len(t, pw, 8)
	for _, r := range pw {
		require.Contains(t, numspecial, string(r))
	}

	again := resolvePassword("AUTO:c8_numspecial", "node-x", "root", 7)
	require.Equal(t, pw, again, "numspecial resolution must be deterministic")

	b64 := resolvePassword("AUTO:c8_base64", "node-x", "root", 7)
	require.NotEqual(t, pw, b64, "numspecial and base64 policies must not collide")
}

func TestInspectPasswordDictionaryOmitsLength(t *testing.T) {
	r := InspectPassword("AUTO:dictionary", "node-x", "root", 7)
	require.True(t, r.Auto)
	require.Equal(t, "dictionary", r.Policy)
	require.Zero(t, r.Length, "InspectResult must never expose length for AUTO:dictionary")
}

func TestInspectPasswordNonDictionaryReportsLength(t *testing.T) {
	r := InspectPassword("AUTO:c8_numspecial", "node-x", "root", 7)
	require.True(t, r.Auto)
	require.Equal(t, 8, r.Length)

	r = InspectPassword("literal", "node-x", "root", 7)
	require.False(t, r.Auto)
	require.Zero(t, r.Length)
}

func TestOTPUserWithoutDaemonFails(t *testing.T) {
	bp := fixtureBlueprint()
	bp.Specs[1].Users["root"] = blueprint.UserSpec{UserID: "AUTO:user", Password: "literal", AuthMode: "otp"}
	bp.Specs[1].Daemons = map[string]blueprint.DaemonSpec{} // remove the matching otp daemon

	_, _, err := Build(bp, 7, nil)
	require.ErrorIs(t, err, ErrOTPUserWithoutDaemon)
}

func TestDuplicateNodeIDFails(t *testing.T) {
	bp := fixtureBlueprint()
	bp.Spawns = append(bp.Spawns, blueprint.ServerSpawn{NodeID: "node-home", SpecID: "workstation"})

	_, _, err := Build(bp, 7, nil)
	require.ErrorIs(t, err, ErrDuplicateNodeID)
}

func TestFixedInterfaceSuffix(t *testing.T) {
	bp := fixtureBlueprint()
	w, _, err := Build(bp, 7, nil)
	require.NoError(t, err)

	home := w.ServerList["node-home"]
	require.Equal(t, "10.0.0.5", home.Ifaces[0].IP)
}

func TestAdjacencyFromLinks(t *testing.T) {
	bp := fixtureBlueprint()
	w, _, err := Build(bp, 7, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"node-target"}, w.ServerList["node-home"].LANNeighbors)
	require.Equal(t, []string{"node-home"}, w.ServerList["node-target"].LANNeighbors)
}

func TestInitialVisibilitySeeded(t *testing.T) {
	bp := fixtureBlueprint()
	w, _, err := Build(bp, 7, nil)
	require.NoError(t, err)

	require.Contains(t, w.KnownNodesByNet["internet"], "node-target")
}

func TestMyWorkstationMissingFails(t *testing.T) {
	bp := fixtureBlueprint()
	bp.MyWorkstation = "does-not-exist"

	_, _, err := Build(bp, 7, nil)
	require.ErrorIs(t, err, ErrMyWorkstationMissing)
}

func TestDiskOverlayAndBaseTreeSeparated(t *testing.T) {
	bp := fixtureBlueprint()
	w, _, err := Build(bp, 7, nil)
	require.NoError(t, err)

	home := w.ServerList["node-home"]
	_, ok := home.FS.Resolve("/etc/motd")
	require.True(t, ok, "base-tree file from spec.Disk must be visible through the overlay")

	target := w.ServerList["node-target"]
	_, ok = target.FS.Resolve("/home")
	require.True(t, ok, "spawn's own DiskOverlay dir must be applied to its overlay")
	_, ok = target.FS.Resolve("/etc/motd")
	require.False(t, ok, "one spec's base tree must not leak into another spec's spawns")
}

func TestScriptGuardCompilerResolvesScriptID(t *testing.T) {
	evaluated := ""
	compiler := &ScriptGuardCompiler{
		Scripts: map[string]string{"alarm": "return true"},
		Evaluator: func(source string, evt event.GameEvent, state event.ReadOnlyState) (bool, error) {
			evaluated = source
			return true, nil
		},
	}

	guard, err := compiler.Compile("id-alarm")
	require.NoError(t, err)
	require.NotNil(t, guard)

	ok, err := guard(event.GameEvent{}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "return true", evaluated)
}

func TestScriptGuardCompilerUnknownScriptIDFails(t *testing.T) {
	compiler := &ScriptGuardCompiler{Scripts: map[string]string{}}
	_, err := compiler.Compile("id-missing")
	require.Error(t, err)
}

func TestEventHandlerCompilesWithGuard(t *testing.T) {
	bp := fixtureBlueprint()
	bp.Events = []blueprint.EventBlueprint{
		{
			ScenarioID:    "intro",
			EventID:       "greet",
			ConditionType: string(event.ProcessFinished),
			NodeID:        strp("node-home"),
			UserKey:       strp("admin"),
			GuardContent:  "script-true",
			Actions:       []blueprint.ActionSpec{{Kind: "log", Args: map[string]interface{}{"msg": "hi"}}},
		},
	}
	compiler := &ScriptGuardCompiler{
		Evaluator: func(source string, evt event.GameEvent, state event.ReadOnlyState) (bool, error) {
			return true, nil
		},
	}

	_, sys, err := Build(bp, 7, compiler)
	require.NoError(t, err)
	require.NotNil(t, sys)
}

func TestUnknownSpecFails(t *testing.T) {
	bp := fixtureBlueprint()
	bp.Spawns = append(bp.Spawns, blueprint.ServerSpawn{NodeID: "ghost", SpecID: "does-not-exist"})

	_, _, err := Build(bp, 7, nil)
	require.ErrorIs(t, err, ErrUnknownSpec)
}

func TestInvalidSeedPropagates(t *testing.T) {
	bp := fixtureBlueprint()
	_, _, err := Build(bp, 0, nil)
	require.Error(t, err)
	_ = world.ErrInvalidSeed // documents why a zero seed is expected to fail
}
