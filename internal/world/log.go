package world

import "github.com/hollowgrid/engine/pkg/minilog"

// ActionType classifies a LogRecord entry (spec §3).
type ActionType string

const (
	ActionLogin   ActionType = "login"
	ActionLogout  ActionType = "logout"
	ActionRead    ActionType = "read"
	ActionWrite   ActionType = "write"
	ActionExecute ActionType = "execute"
)

// LogRecord is one entry in a server's log ring buffer (spec §3).
// Origin is populated exactly once, on the record's first mutation after
// creation — it snapshots the pre-mutation fields so a later edit (e.g.
// a player tampering with logs) can be detected against what actually
// happened.
type LogRecord struct {
	ID           int
	Time         int64 // worldTimeMs
	User         string
	SourceNodeID string // never UI-exposed
	RemoteIP     string
	ActionType   ActionType
	Action       string
	Dirty        bool
	Origin       *LogRecord // nil until first mutation
}

// Mutate applies a field-setting mutation to the record in place,
// snapshotting Origin on the first call only, then marks Dirty.
func (r *LogRecord) Mutate(apply func(*LogRecord)) {
	if r.Origin == nil {
		snapshot := *r
		snapshot.Origin = nil
		r.Origin = &snapshot
	}
	apply(r)
	r.Dirty = true
}

// LogRing is a fixed-capacity ring buffer of a server's LogRecords, plus
// the monotonic id counter that stamps new records.
type LogRing struct {
	ring   *minilog.Ring[LogRecord]
	nextID int
}

// NewLogRing allocates a log ring with the given fixed capacity.
func NewLogRing(capacity int) *LogRing {
	return &LogRing{ring: minilog.NewRing[LogRecord](capacity), nextID: 1}
}

// Append stamps rec with the next monotonic id and pushes it, evicting
// the oldest record if the ring is full.
func (l *LogRing) Append(rec LogRecord) LogRecord {
	rec.ID = l.nextID
	l.nextID++
	l.ring.Push(rec)
	return rec
}

// Records returns the buffered records, oldest to newest.
func (l *LogRing) Records() []LogRecord {
	return l.ring.Values()
}

// Capacity returns the ring's fixed capacity.
func (l *LogRing) Capacity() int {
	return l.ring.Len()
}

// NextIDPeek returns the id the ring would stamp its next Append with.
func (l *LogRing) NextIDPeek() int {
	return l.nextID
}

// RestoreLogRing rebuilds a log ring from its saved records (oldest to
// newest) and next-id cursor, used by internal/save when applying a
// loaded ServerState chunk.
func RestoreLogRing(capacity int, nextID int, records []LogRecord) *LogRing {
	l := &LogRing{ring: minilog.NewRing[LogRecord](capacity), nextID: nextID}
	for _, rec := range records {
		l.ring.Push(rec)
	}
	return l
}
