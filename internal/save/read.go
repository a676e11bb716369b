package save

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hollowgrid/engine/internal/vfs"
	"github.com/hollowgrid/engine/internal/world"
)

// ErrHMACMismatch is returned when a save file carries an HMAC tag that
// doesn't verify against the supplied key.
var ErrHMACMismatch = errors.New("save: HMAC verification failed")

// ErrHMACRequired is returned when a file's header claims an HMAC tag
// but the caller supplied no key to verify it.
var ErrHMACRequired = errors.New("save: file is HMAC-tagged but no key was supplied")

// ErrDuplicateChunk is returned when a required singleton chunk (meta,
// world, event, process state) appears more than once.
var ErrDuplicateChunk = errors.New("save: duplicate required chunk")

// ErrMissingChunk is returned when a required chunk never appears.
var ErrMissingChunk = errors.New("save: missing required chunk")

const hmacTagSize = 32

// parsed holds every chunk decoded from one file, before being applied
// to a rebuilt world.
type parsed struct {
	meta    *SaveMeta
	world   *WorldStateChunk
	event   *EventStateChunk
	process *ProcessStateChunk
	servers []ServerStateChunk
}

// decode parses data's header and chunks, verifying the HMAC tag (if
// present) and decompressing Brotli payloads (if flagged), per spec
// §4.10's load path: "parse header, verify flags, verify HMAC... reject
// duplicate required chunks; skip unknown chunks and unknown versions
// of optional chunks; fail on unknown versions of required chunks."
func decode(data []byte, hmacKey []byte) (parsed, error) {
	var p parsed

	header, rest, err := decodeHeader(data)
	if err != nil {
		return p, err
	}

	if header.Flags&FlagHMAC != 0 {
		if hmacKey == nil {
			return p, ErrHMACRequired
		}
		if len(data) < hmacTagSize {
			return p, fmt.Errorf("save: truncated HMAC tag")
		}
		signed := data[:len(data)-hmacTagSize]
		tag := data[len(data)-hmacTagSize:]
		mac := hmac.New(sha256.New, hmacKey)
		mac.Write(signed)
		if !hmac.Equal(mac.Sum(nil), tag) {
			return p, ErrHMACMismatch
		}
		rest = rest[:len(rest)-hmacTagSize]
	}

	brotliOn := header.Flags&FlagBrotli != 0

	for i := uint32(0); i < header.ChunkCount; i++ {
		ch, body, err := decodeChunkHeader(rest)
		if err != nil {
			return p, err
		}
		if uint32(len(body)) < ch.PayloadLength {
			return p, fmt.Errorf("save: truncated chunk payload (chunk %#x)", ch.ID)
		}
		payload := body[:ch.PayloadLength]
		rest = body[ch.PayloadLength:]

		if brotliOn {
			payload, err = brotliDecompress(payload)
			if err != nil {
				return p, fmt.Errorf("save: decompressing chunk %#x: %w", ch.ID, err)
			}
		}

		if err := applyChunk(&p, ch, payload); err != nil {
			return p, err
		}
	}

	if p.meta == nil {
		return p, fmt.Errorf("%w: SaveMeta (0x0001)", ErrMissingChunk)
	}
	if p.world == nil {
		return p, fmt.Errorf("%w: WorldState (0x0002)", ErrMissingChunk)
	}
	if p.event == nil {
		return p, fmt.Errorf("%w: EventState (0x0003)", ErrMissingChunk)
	}
	if p.process == nil {
		return p, fmt.Errorf("%w: ProcessState (0x0004)", ErrMissingChunk)
	}
	return p, nil
}

func applyChunk(p *parsed, ch chunkHeader, payload []byte) error {
	switch ch.ID {
	case chunkSaveMeta:
		if p.meta != nil {
			return fmt.Errorf("%w: SaveMeta", ErrDuplicateChunk)
		}
		if ch.Version != 1 {
			return fmt.Errorf("save: unknown SaveMeta version %d", ch.Version)
		}
		var v SaveMeta
		if err := msgpack.Unmarshal(payload, &v); err != nil {
			return err
		}
		p.meta = &v

	case chunkWorldState:
		if p.world != nil {
			return fmt.Errorf("%w: WorldState", ErrDuplicateChunk)
		}
		if ch.Version != 1 {
			return fmt.Errorf("save: unknown WorldState version %d", ch.Version)
		}
		var v WorldStateChunk
		if err := msgpack.Unmarshal(payload, &v); err != nil {
			return err
		}
		p.world = &v

	case chunkEventState:
		if p.event != nil {
			return fmt.Errorf("%w: EventState", ErrDuplicateChunk)
		}
		if ch.Version != 1 {
			return fmt.Errorf("save: unknown EventState version %d", ch.Version)
		}
		var v EventStateChunk
		if err := msgpack.Unmarshal(payload, &v); err != nil {
			return err
		}
		p.event = &v

	case chunkProcessState:
		if p.process != nil {
			return fmt.Errorf("%w: ProcessState", ErrDuplicateChunk)
		}
		if ch.Version != 1 {
			return fmt.Errorf("save: unknown ProcessState version %d", ch.Version)
		}
		var v ProcessStateChunk
		if err := msgpack.Unmarshal(payload, &v); err != nil {
			return err
		}
		p.process = &v

	case chunkServerState:
		if ch.Version != 1 {
			return nil // unknown version of a repeatable chunk: skip
		}
		var v ServerStateChunk
		if err := msgpack.Unmarshal(payload, &v); err != nil {
			return err
		}
		p.servers = append(p.servers, v)

	default:
		// unknown chunk id: skip
	}
	return nil
}

// Load parses data, rebuilds the initial world for the saved scenario
// via rebuilder, and applies the saved delta on top (spec §4.10's load
// path). The caller is responsible for the backup/rollback and
// session-state-clearing steps that wrap this call (internal/engine),
// since those touch terminal/session state this package doesn't own.
func Load(data []byte, hmacKey []byte, rebuilder Rebuilder) (*world.World, *SaveMeta, error) {
	p, err := decode(data, hmacKey)
	if err != nil {
		return nil, nil, err
	}

	w, err := rebuilder.Rebuild(p.meta.ActiveScenarioID, p.meta.WorldSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("save: rebuilding initial world: %w", err)
	}

	applyWorldState(w, p.world)
	applyEventState(w, p.event)
	applyProcessState(w, p.process)
	for _, sc := range p.servers {
		if err := applyServerState(w, sc); err != nil {
			return nil, nil, err
		}
	}
	return w, p.meta, nil
}

func applyWorldState(w *world.World, v *WorldStateChunk) {
	w.WorldTickIndex = v.WorldTickIndex
	w.SetEventSeq(v.EventSeq)
	w.SetNextProcessID(v.NextProcessID)

	w.VisibleNets = map[string]struct{}{}
	for _, n := range v.VisibleNets {
		w.VisibleNets[n] = struct{}{}
	}

	w.KnownNodesByNet = map[string]map[string]struct{}{}
	for net, nodes := range v.KnownNodesByNet {
		set := map[string]struct{}{}
		for _, n := range nodes {
			set[n] = struct{}{}
		}
		w.KnownNodesByNet[net] = set
	}

	w.ScenarioFlags = v.ScenarioFlags
	if w.ScenarioFlags == nil {
		w.ScenarioFlags = map[string]interface{}{}
	}
}

func applyEventState(w *world.World, v *EventStateChunk) {
	w.FiredHandlerIDs = map[string]struct{}{}
	for _, id := range v.FiredHandlerIDs {
		w.FiredHandlerIDs[id] = struct{}{}
	}
}

func applyProcessState(w *world.World, v *ProcessStateChunk) {
	w.ProcessList = map[int]*world.Process{}
	for _, r := range v.Processes {
		w.ProcessList[r.ProcessID] = &world.Process{
			ProcessID: r.ProcessID, HostNodeID: r.HostNodeID, UserKey: r.UserKey,
			State: world.ProcessState(r.State), Program: r.Program, ProcessType: r.ProcessType,
			Args: r.Args, EndAt: r.EndAt,
		}
	}
}

func applyServerState(w *world.World, sc ServerStateChunk) error {
	s, ok := w.ServerList[sc.NodeID]
	if !ok {
		return fmt.Errorf("save: saved server %q not present in rebuilt world", sc.NodeID)
	}

	s.Status = world.Status(sc.Status)
	s.Reason = world.Reason(sc.Reason)
	s.SetNextSessionID(sc.NextSessionID)

	s.Users = map[string]*world.UserConfig{}
	for _, u := range sc.Users {
		s.Users[u.Key] = &world.UserConfig{
			UserID: u.UserID, Password: u.Password, AuthMode: world.AuthMode(u.AuthMode),
			Privileges: world.Privileges{Read: u.Read, Write: u.Write, Execute: u.Execute},
			Info:       u.Info,
		}
	}

	if len(sc.Ports) > 0 {
		s.Ports = map[int]*world.PortConfig{}
		for _, p := range sc.Ports {
			s.Ports[p.Port] = &world.PortConfig{Type: world.PortType(p.Type), Exposure: world.Exposure(p.Exposure), ServiceID: p.ServiceID, Banner: p.Banner}
		}
	}
	if len(sc.Daemons) > 0 {
		s.Daemons = map[string]*world.DaemonConfig{}
		for _, d := range sc.Daemons {
			s.Daemons[d.DaemonType] = &world.DaemonConfig{DaemonType: d.DaemonType, UserKey: d.UserKey, Config: d.Config}
		}
	}

	entries := make([]vfs.EntrySnapshot, 0, len(sc.DiskOverlay))
	for _, e := range sc.DiskOverlay {
		entries = append(entries, vfs.EntrySnapshot{Path: e.Path, Kind: vfs.Kind(e.Kind), FileKind: vfs.FileKind(e.FileKind), Size: e.Size, Content: e.Content})
	}
	s.FS.ApplySnapshot(vfs.OverlaySnapshot{Entries: entries, Tombstones: sc.Tombstones})

	records := make([]world.LogRecord, 0, len(sc.Logs))
	nextID := 1
	for _, l := range sc.Logs {
		records = append(records, world.LogRecord{
			ID: l.ID, Time: l.TimeMs, User: l.User, SourceNodeID: l.SourceNodeID, RemoteIP: l.RemoteIP,
			ActionType: world.ActionType(l.ActionType), Action: l.Action, Dirty: l.Dirty,
		})
		if l.ID >= nextID {
			nextID = l.ID + 1
		}
	}
	capacity := sc.LogCapacity
	if capacity == 0 {
		capacity = s.Logs.Capacity()
	}
	s.Logs = world.RestoreLogRing(capacity, nextID, records)

	s.Sessions = map[int]*world.Session{}
	return nil
}
