package save

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hollowgrid/engine/internal/vfs"
	"github.com/hollowgrid/engine/internal/world"
)

// fixtureRebuilder rebuilds the same topology every time, standing in
// for internal/builder's blueprint-driven reconstruction.
type fixtureRebuilder struct{}

func (fixtureRebuilder) Rebuild(scenarioID string, worldSeed int64) (*world.World, error) {
	w, err := world.New(worldSeed)
	if err != nil {
		return nil, err
	}
	base := vfs.NewBase()
	overlay := vfs.NewOverlay(base, w.BlobStore)
	s := world.NewServer("alpha", "alpha", world.RoleMainframe, overlay, 4)
	s.Users["u1"] = &world.UserConfig{UserID: "alice", AuthMode: world.AuthStatic, Password: "secret"}
	s.Ports[22] = &world.PortConfig{Type: world.PortSSH, Exposure: world.ExposureLAN}
	if err := w.AddServer(s); err != nil {
		return nil, err
	}
	return w, nil
}

func buildFixtureWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := fixtureRebuilder{}.Rebuild("scn1", 42)
	require.NoError(t, err)

	s := w.ServerList["alpha"]
	s.FS.WriteFile("/notes.txt", []byte("hello"), vfs.Text, 5)
	s.Users["u1"].Privileges.Grant("read")
	w.VisibleNets["internet"] = struct{}{}
	w.ScenarioFlags["bootstrapped"] = true
	w.MarkFired("scn1/intro")
	w.WorldTickIndex = 120
	w.NextProcessID() // advance allocator so the snapshot is non-trivial
	return w
}

func TestSaveLoadRoundTripPreservesWorldAndDiskState(t *testing.T) {
	w := buildFixtureWorld(t)

	data, err := Save(w, "scn1", "run-1", 1000, Options{})
	require.NoError(t, err)

	loaded, meta, err := Load(data, nil, fixtureRebuilder{})
	require.NoError(t, err)
	require.Equal(t, "scn1", meta.ActiveScenarioID)
	require.Equal(t, int64(42), meta.WorldSeed)

	require.Equal(t, w.WorldTickIndex, loaded.WorldTickIndex)
	require.True(t, loaded.HasFired("scn1/intro"))

	ls := loaded.ServerList["alpha"]
	require.True(t, ls.Users["u1"].Privileges.Read)

	meta2, ok := ls.FS.Resolve("/notes.txt")
	require.True(t, ok)
	data2, err := loaded.BlobStore.Get(meta2.ContentID)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data2))
}

func TestSaveLoadRoundTripWithBrotli(t *testing.T) {
	w := buildFixtureWorld(t)
	data, err := Save(w, "scn1", "run-1", 1000, Options{Brotli: true})
	require.NoError(t, err)

	loaded, _, err := Load(data, nil, fixtureRebuilder{})
	require.NoError(t, err)
	require.Equal(t, w.WorldTickIndex, loaded.WorldTickIndex)
}

func TestHMACTamperDetected(t *testing.T) {
	w := buildFixtureWorld(t)
	key := []byte("secret-key")
	data, err := Save(w, "scn1", "run-1", 1000, Options{HMACKey: key})
	require.NoError(t, err)

	tampered := append([]byte(nil), data...)
	tampered[headerSize+chunkHeaderSize] ^= 0xFF

	_, _, err = Load(tampered, key, fixtureRebuilder{})
	require.ErrorIs(t, err, ErrHMACMismatch)
}

func TestHMACRequiredWhenFlagSetButKeyMissing(t *testing.T) {
	w := buildFixtureWorld(t)
	data, err := Save(w, "scn1", "run-1", 1000, Options{HMACKey: []byte("k")})
	require.NoError(t, err)

	_, _, err = Load(data, nil, fixtureRebuilder{})
	require.ErrorIs(t, err, ErrHMACRequired)
}

func TestBadMagicRejected(t *testing.T) {
	_, _, err := Load([]byte("not a save file at all............"), nil, fixtureRebuilder{})
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestFormatMajorMismatchRejected(t *testing.T) {
	w := buildFixtureWorld(t)
	data, err := Save(w, "scn1", "run-1", 1000, Options{})
	require.NoError(t, err)

	tampered := append([]byte(nil), data...)
	tampered[4] = 99 // formatMajor low byte

	_, _, err = Load(tampered, nil, fixtureRebuilder{})
	require.ErrorIs(t, err, ErrFormatMajorMismatch)
}

func TestSaveIsDeterministicAcrossRuns(t *testing.T) {
	w1 := buildFixtureWorld(t)
	w2 := buildFixtureWorld(t)

	data1, err := Save(w1, "scn1", "run-x", 1000, Options{})
	require.NoError(t, err)
	data2, err := Save(w2, "scn1", "run-x", 1000, Options{})
	require.NoError(t, err)
	require.Equal(t, data1, data2)
}
