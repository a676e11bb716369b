package save

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"sort"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hollowgrid/engine/internal/world"
)

// Options controls optional container features (spec §4.10).
type Options struct {
	Brotli  bool
	HMACKey []byte // nil disables the trailing HMAC-SHA256 tag
}

// NewRunID mints a fresh save-run correlation id for SaveMeta.RunID.
func NewRunID() string {
	return uuid.NewString()
}

// Save snapshots w into a save-container byte stream (spec §4.10's save
// path: snapshot → MessagePack → optional Brotli → container →
// optional HMAC). scenarioID and runID are supplied by the caller
// (internal/engine), which owns scenario tracking; savedAtUnixMs is
// caller-supplied so the container's determinism doesn't depend on
// wall-clock access inside this package.
func Save(w *world.World, scenarioID, runID string, savedAtUnixMs int64, opts Options) ([]byte, error) {
	chunks, err := buildChunks(w, scenarioID, runID, savedAtUnixMs)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	for _, c := range chunks {
		payload, err := msgpack.Marshal(c.value)
		if err != nil {
			return nil, err
		}
		if opts.Brotli {
			payload, err = brotliCompress(payload)
			if err != nil {
				return nil, err
			}
		}
		body.Write(encodeChunkHeader(chunkHeader{ID: c.id, Version: c.version, PayloadLength: uint32(len(payload))}))
		body.Write(payload)
	}

	var flags uint32
	if opts.Brotli {
		flags |= FlagBrotli
	}
	if opts.HMACKey != nil {
		flags |= FlagHMAC
	}

	header := SaveFileHeader{FormatMajor: formatMajor, FormatMinor: formatMinor, Flags: flags, ChunkCount: uint32(len(chunks))}

	var out bytes.Buffer
	out.Write(header.encode())
	out.Write(body.Bytes())

	if opts.HMACKey != nil {
		mac := hmac.New(sha256.New, opts.HMACKey)
		mac.Write(out.Bytes())
		out.Write(mac.Sum(nil))
	}
	return out.Bytes(), nil
}

type encodedChunk struct {
	id      chunkID
	version uint16
	value   interface{}
}

func buildChunks(w *world.World, scenarioID, runID string, savedAtUnixMs int64) ([]encodedChunk, error) {
	chunks := []encodedChunk{
		{chunkSaveMeta, 1, SaveMeta{
			SaveSchemaVersion: 1,
			ActiveScenarioID:  scenarioID,
			WorldSeed:         w.WorldSeed,
			SavedAtUnixMs:     savedAtUnixMs,
			RunID:             runID,
		}},
		{chunkWorldState, 1, worldStateFrom(w)},
		{chunkEventState, 1, eventStateFrom(w)},
		{chunkProcessState, 1, processStateFrom(w)},
	}

	nodeIDs := make([]string, 0, len(w.ServerList))
	for id := range w.ServerList {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)
	for _, id := range nodeIDs {
		chunks = append(chunks, encodedChunk{chunkServerState, 1, serverStateFrom(w.ServerList[id])})
	}
	return chunks, nil
}

func worldStateFrom(w *world.World) WorldStateChunk {
	nets := make([]string, 0, len(w.VisibleNets))
	for n := range w.VisibleNets {
		nets = append(nets, n)
	}
	sort.Strings(nets)

	known := map[string][]string{}
	for net, nodes := range w.KnownNodesByNet {
		list := make([]string, 0, len(nodes))
		for n := range nodes {
			list = append(list, n)
		}
		sort.Strings(list)
		known[net] = list
	}

	return WorldStateChunk{
		WorldTickIndex:  w.WorldTickIndex,
		EventSeq:        w.EventSeqValue(),
		NextProcessID:   w.NextProcessIDPeek(),
		VisibleNets:     nets,
		KnownNodesByNet: known,
		ScenarioFlags:   w.ScenarioFlags,
	}
}

func eventStateFrom(w *world.World) EventStateChunk {
	ids := make([]string, 0, len(w.FiredHandlerIDs))
	for id := range w.FiredHandlerIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return EventStateChunk{FiredHandlerIDs: ids}
}

func processStateFrom(w *world.World) ProcessStateChunk {
	ids := make([]int, 0, len(w.ProcessList))
	for id := range w.ProcessList {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	recs := make([]ProcessRecord, 0, len(ids))
	for _, id := range ids {
		p := w.ProcessList[id]
		recs = append(recs, ProcessRecord{
			ProcessID: p.ProcessID, HostNodeID: p.HostNodeID, UserKey: p.UserKey,
			State: string(p.State), Program: p.Program, ProcessType: p.ProcessType,
			Args: p.Args, EndAt: p.EndAt,
		})
	}
	return ProcessStateChunk{Processes: recs}
}

func serverStateFrom(s *world.Server) ServerStateChunk {
	userKeys := make([]string, 0, len(s.Users))
	for k := range s.Users {
		userKeys = append(userKeys, k)
	}
	sort.Strings(userKeys)
	users := make([]UserRecord, 0, len(userKeys))
	for _, k := range userKeys {
		u := s.Users[k]
		users = append(users, UserRecord{
			Key: k, UserID: u.UserID, Password: u.Password, AuthMode: string(u.AuthMode),
			Read: u.Privileges.Read, Write: u.Privileges.Write, Execute: u.Privileges.Execute,
			Info: u.Info,
		})
	}

	ports := make([]int, 0, len(s.Ports))
	for p := range s.Ports {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	portRecs := make([]PortRecord, 0, len(ports))
	for _, p := range ports {
		pc := s.Ports[p]
		portRecs = append(portRecs, PortRecord{Port: p, Type: string(pc.Type), Exposure: string(pc.Exposure), ServiceID: pc.ServiceID, Banner: pc.Banner})
	}

	daemonTypes := make([]string, 0, len(s.Daemons))
	for d := range s.Daemons {
		daemonTypes = append(daemonTypes, d)
	}
	sort.Strings(daemonTypes)
	daemonRecs := make([]DaemonRecord, 0, len(daemonTypes))
	for _, d := range daemonTypes {
		dc := s.Daemons[d]
		daemonRecs = append(daemonRecs, DaemonRecord{DaemonType: dc.DaemonType, UserKey: dc.UserKey, Config: dc.Config})
	}

	snap := s.FS.Snapshot()
	diskEntries := make([]DiskEntryRecord, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		diskEntries = append(diskEntries, DiskEntryRecord{Path: e.Path, Kind: int(e.Kind), FileKind: int(e.FileKind), Size: e.Size, Content: e.Content})
	}

	var logs []LogRecordEntry
	for _, r := range s.Logs.Records() {
		logs = append(logs, LogRecordEntry{
			ID: r.ID, TimeMs: r.Time, User: r.User, SourceNodeID: r.SourceNodeID, RemoteIP: r.RemoteIP,
			ActionType: string(r.ActionType), Action: r.Action, Dirty: r.Dirty,
		})
	}

	return ServerStateChunk{
		NodeID: s.NodeID, Status: string(s.Status), Reason: string(s.Reason),
		Users: users, Tombstones: snap.Tombstones, DiskOverlay: diskEntries,
		Logs: logs, LogCapacity: s.Logs.Capacity(), Ports: portRecs, Daemons: daemonRecs,
		NextSessionID: s.NextSessionIDPeek(),
	}
}
