package save

// chunkID tags each chunk's payload schema (spec §4.10).
type chunkID uint32

const (
	chunkSaveMeta     chunkID = 0x0001
	chunkWorldState   chunkID = 0x0002
	chunkEventState   chunkID = 0x0003
	chunkProcessState chunkID = 0x0004
	chunkServerState  chunkID = 0x0100
)

// chunkHeader precedes every chunk's payload: chunkId(4) +
// chunkVersion(2) + reserved(2)=0 + payloadLength(4), little-endian.
type chunkHeader struct {
	ID            chunkID
	Version       uint16
	PayloadLength uint32
}

const chunkHeaderSize = 4 + 2 + 2 + 4

// SaveMeta is chunk 0x0001.
type SaveMeta struct {
	SaveSchemaVersion int    `msgpack:"saveSchemaVersion"`
	ActiveScenarioID  string `msgpack:"activeScenarioId"`
	WorldSeed         int64  `msgpack:"worldSeed"`
	SavedAtUnixMs     int64  `msgpack:"savedAtUnixMs,omitempty"`
	RunID             string `msgpack:"runId"` // google/uuid save-run correlation id
}

// WorldStateChunk is chunk 0x0002.
type WorldStateChunk struct {
	WorldTickIndex  int64               `msgpack:"worldTickIndex"`
	EventSeq        int64               `msgpack:"eventSeq"`
	NextProcessID   int                 `msgpack:"nextProcessId"`
	VisibleNets     []string            `msgpack:"visibleNets"`
	KnownNodesByNet map[string][]string `msgpack:"knownNodesByNet"`
	ScenarioFlags   map[string]interface{} `msgpack:"scenarioFlags"`
}

// EventStateChunk is chunk 0x0003.
type EventStateChunk struct {
	FiredHandlerIDs []string `msgpack:"firedHandlerIds"`
}

// ProcessRecord mirrors world.Process for serialization.
type ProcessRecord struct {
	ProcessID   int               `msgpack:"processId"`
	HostNodeID  string            `msgpack:"hostNodeId"`
	UserKey     string            `msgpack:"userKey"`
	State       string            `msgpack:"state"`
	Program     string            `msgpack:"program"`
	ProcessType string            `msgpack:"processType"`
	Args        map[string]string `msgpack:"args"`
	EndAt       int64             `msgpack:"endAt"`
}

// ProcessStateChunk is chunk 0x0004.
type ProcessStateChunk struct {
	Processes []ProcessRecord `msgpack:"processes"`
}

// UserRecord mirrors world.UserConfig for serialization.
type UserRecord struct {
	Key      string   `msgpack:"key"`
	UserID   string   `msgpack:"userId"`
	Password string   `msgpack:"password,omitempty"`
	AuthMode string   `msgpack:"authMode"`
	Read     bool     `msgpack:"read"`
	Write    bool     `msgpack:"write"`
	Execute  bool     `msgpack:"execute"`
	Info     []string `msgpack:"info,omitempty"`
}

// PortRecord mirrors world.PortConfig for serialization.
type PortRecord struct {
	Port      int    `msgpack:"port"`
	Type      string `msgpack:"type"`
	Exposure  string `msgpack:"exposure"`
	ServiceID string `msgpack:"serviceId,omitempty"`
	Banner    string `msgpack:"banner,omitempty"`
}

// DaemonRecord mirrors world.DaemonConfig for serialization.
type DaemonRecord struct {
	DaemonType string            `msgpack:"daemonType"`
	UserKey    string            `msgpack:"userKey,omitempty"`
	Config     map[string]string `msgpack:"config,omitempty"`
}

// DiskEntryRecord mirrors vfs.EntrySnapshot for serialization.
type DiskEntryRecord struct {
	Path     string `msgpack:"path"`
	Kind     int    `msgpack:"kind"`
	FileKind int    `msgpack:"fileKind"`
	Size     int64  `msgpack:"size"`
	Content  []byte `msgpack:"content,omitempty"`
}

// LogRecordEntry mirrors world.LogRecord for serialization.
type LogRecordEntry struct {
	ID           int    `msgpack:"id"`
	TimeMs       int64  `msgpack:"timeMs"`
	User         string `msgpack:"user"`
	SourceNodeID string `msgpack:"sourceNodeId"`
	RemoteIP     string `msgpack:"remoteIp"`
	ActionType   string `msgpack:"actionType"`
	Action       string `msgpack:"action"`
	Dirty        bool   `msgpack:"dirty"`
}

// ServerStateChunk is one instance of chunk 0x0100, one per node.
type ServerStateChunk struct {
	NodeID           string            `msgpack:"nodeId"`
	Status           string            `msgpack:"status"`
	Reason           string            `msgpack:"reason"`
	Users            []UserRecord      `msgpack:"users"`
	Tombstones       []string          `msgpack:"diskOverlayTombstones"`
	DiskOverlay      []DiskEntryRecord `msgpack:"diskOverlay"`
	Logs             []LogRecordEntry  `msgpack:"logs"`
	LogCapacity      int               `msgpack:"logCapacity,omitempty"`
	Ports            []PortRecord      `msgpack:"ports,omitempty"`
	Daemons          []DaemonRecord    `msgpack:"daemons,omitempty"`
	NextSessionID    int               `msgpack:"nextSessionId"`
}
