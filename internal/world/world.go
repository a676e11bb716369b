package world

import (
	"errors"
	"fmt"

	"github.com/hollowgrid/engine/internal/blob"
)

// ErrInvalidSeed is returned by New when worldSeed is zero; spec §4.4
// requires a zero seed to abort world initialization.
var ErrInvalidSeed = errors.New("world: worldSeed must be non-zero")

// World owns every table describing engine state (spec §3, §4.4). All
// cross-references between tables are opaque ids; nothing here holds a
// pointer into another table except Server.FS, which the server
// logically owns outright.
type World struct {
	ServerList  map[string]*Server // nodeId -> Server
	IPIndex     map[string]string  // ip -> nodeId
	ProcessList map[int]*Process   // processId -> Process
	WorldSeed   int64
	nextProcID  int

	VisibleNets     map[string]struct{} // seeded with "internet"
	KnownNodesByNet map[string]map[string]struct{}
	ScenarioFlags   map[string]interface{}
	FiredHandlerIDs map[string]struct{}

	WorldTickIndex int64
	eventSeq       int64

	// BlobStore holds the world's shared content-addressed bytes (base
	// blobs pinned at build time, overlay blobs refcounted per server).
	// internal/builder populates it during world construction.
	BlobStore *blob.Store

	exposure *exposureCache
}

// New constructs an empty world seeded by worldSeed. Per spec §4.4, a
// zero seed is invalid: every AUTO-derived value in the world must trace
// back to a real seed.
func New(worldSeed int64) (*World, error) {
	if worldSeed == 0 {
		return nil, ErrInvalidSeed
	}
	w := &World{
		ServerList:      map[string]*Server{},
		IPIndex:         map[string]string{},
		ProcessList:     map[int]*Process{},
		WorldSeed:       worldSeed,
		nextProcID:      1,
		VisibleNets:     map[string]struct{}{"internet": {}},
		KnownNodesByNet: map[string]map[string]struct{}{},
		ScenarioFlags:   map[string]interface{}{},
		FiredHandlerIDs: map[string]struct{}{},
	}
	w.exposure = newExposureCache(256)
	w.BlobStore = blob.NewStore()
	return w, nil
}

// AddServer registers a server and its interface IPs into IPIndex.
func (w *World) AddServer(s *Server) error {
	if _, exists := w.ServerList[s.NodeID]; exists {
		return fmt.Errorf("world: duplicate nodeId %q", s.NodeID)
	}
	for _, iface := range s.Ifaces {
		if other, used := w.IPIndex[iface.IP]; used {
			return fmt.Errorf("world: ip %s already assigned to %q", iface.IP, other)
		}
	}
	w.ServerList[s.NodeID] = s
	for _, iface := range s.Ifaces {
		w.IPIndex[iface.IP] = s.NodeID
		s.SubnetMembership[iface.NetID] = struct{}{}
	}
	w.exposure.purge()
	return nil
}

// IPInUse reports whether ip is already assigned anywhere in the world.
// Satisfies internal/addr.InUseChecker.
func (w *World) IPInUse(ipStr string) bool {
	_, ok := w.IPIndex[ipStr]
	return ok
}

// NextProcessID returns the next monotonic world-unique process id.
func (w *World) NextProcessID() int {
	id := w.nextProcID
	w.nextProcID++
	return id
}

// NextEventSeq returns the next monotonic event sequence number.
func (w *World) NextEventSeq() int64 {
	seq := w.eventSeq
	w.eventSeq++
	return seq
}

// HasFired reports whether (scenarioId, eventId) has already fired.
func (w *World) HasFired(key string) bool {
	_, ok := w.FiredHandlerIDs[key]
	return ok
}

// MarkFired records that (scenarioId, eventId) has fired.
func (w *World) MarkFired(key string) {
	w.FiredHandlerIDs[key] = struct{}{}
}

// NextProcessIDPeek returns the next process id that NextProcessID would
// allocate, without consuming it. internal/save uses it to snapshot
// allocator state.
func (w *World) NextProcessIDPeek() int { return w.nextProcID }

// SetNextProcessID restores the process id allocator's cursor, used by
// internal/save when applying a loaded WorldState chunk.
func (w *World) SetNextProcessID(v int) { w.nextProcID = v }

// EventSeqValue returns the next event sequence number NextEventSeq
// would allocate, without consuming it.
func (w *World) EventSeqValue() int64 { return w.eventSeq }

// SetEventSeq restores the event sequence allocator's cursor.
func (w *World) SetEventSeq(v int64) { w.eventSeq = v }
