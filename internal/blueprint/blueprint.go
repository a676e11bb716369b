// Package blueprint holds the plain data types a scenario loader would
// decode from YAML (spec §6: "Blueprint consumption... the exact YAML
// shape is the loader's responsibility; the core's contract is the
// parsed value"). Nothing here touches a file or a YAML decoder —
// internal/builder consumes these as already-parsed values, the same
// way sandia-minimega-minimega's VM config structs are populated by a
// CLI parser before ever reaching vm.go's launch path. See DESIGN.md.
package blueprint

// ServerSpecBlueprint is a reusable server template indexed by specId
// (spec §4.11 step 1). ServerSpawn entries clone one of these and
// overlay spawn-specific fields.
type ServerSpecBlueprint struct {
	SpecID        string
	Role          string // world.Role string form; validated at build time
	Hostname      string
	InitialStatus string // world.Status string form
	InitialReason string // world.Reason string form

	Interfaces []InterfaceSpec
	Ports      map[int]PortSpec
	Daemons    map[string]DaemonSpec
	Users      map[string]UserSpec // userKey -> spec
	Disk       DiskSpec

	LogCapacity int
}

// InterfaceSpec describes one network attachment before IP allocation.
// Exactly one of HostSuffix or auto-allocation applies: a non-nil
// HostSuffix requests allocate_fixed, nil requests allocate_next.
type InterfaceSpec struct {
	NetID            string
	HostSuffix       []int // nil = auto-allocate
	InitiallyExposed bool
}

// PortSpec mirrors world.PortConfig pre-resolution (Type/Exposure are
// strings here; the builder validates and converts them).
type PortSpec struct {
	Type      string
	Exposure  string
	ServiceID string
	Banner    string
}

// DaemonSpec mirrors world.DaemonConfig.
type DaemonSpec struct {
	DaemonType string
	UserKey    string
	Config     map[string]string
}

// UserSpec is a user entry before AUTO-policy resolution. UserID and
// Password may be literal values or an "AUTO:<policy>" token (spec
// §4.4); AuthMode mirrors world.AuthMode.
type UserSpec struct {
	UserID   string
	Password string
	AuthMode string
	Read     bool
	Write    bool
	Execute  bool
	Info     []string
}

// DiskFileSpec is one base-tree file entry contributed by a spec's disk
// image, keyed by its absolute path.
type DiskFileSpec struct {
	FileKind string // vfs.FileKind string form
	Content  []byte
	Size     int64 // 0 means "use len(Content)"
}

// DiskSpec is a spec's base disk contribution: new files/dirs plus, for
// spawn-level overlays, a tombstone union (spec §4.11 step 4).
type DiskSpec struct {
	Files      map[string]DiskFileSpec // path -> file
	Dirs       []string                // directories to create
	Tombstones []string
}

// ServerSpawn instantiates one ServerSpecBlueprint into a concrete node
// (spec §4.11 step 4): clone the named spec, apply scalar overrides,
// then overlay ports/daemons/disk under strict replace-key semantics —
// a key present with a nil value deletes it from the clone, a key
// present with a value replaces it wholesale (no field-level merge of
// the value itself), and disk.tombstones union rather than replace.
type ServerSpawn struct {
	NodeID string
	SpecID string

	Hostname       *string
	InitialStatus  *string
	InitialReason  *string

	PortOverrides   map[int]*PortSpec    // nil value deletes the port
	DaemonOverrides map[string]*DaemonSpec
	UserOverrides   map[string]*UserSpec

	DiskOverlay DiskSpec
}

// Hub lists nodeIds that are all mutually adjacent on one subnet (spec
// §4.11 step 6: "treat each hub's members as a clique").
type Hub struct {
	NetID   string
	Members []string
}

// Link is an explicit additional adjacency between two nodes, united
// with hub-derived adjacency.
type Link struct {
	A, B string
}

// AddressPlan maps a netId to the CIDR block interfaces on that net
// allocate from.
type AddressPlan struct {
	NetID string
	CIDR  string
}

// EventBlueprint is the raw, not-yet-compiled form of a scenario event
// handler (spec §4.5's HandlerDescriptor source). Optional condition
// fields are nil pointers when omitted (normalizes to "match anything"
// downstream) versus a present-but-empty string (also "match anything"
// per event.normalize) — the distinction only matters for "required key
// missing" validation, which NewHandlerDescriptor already performs.
type EventBlueprint struct {
	ScenarioID    string
	EventID       string
	ConditionType string

	NodeID    *string
	UserKey   *string
	Privilege *string
	FileName  *string

	GuardContent string // "script-"/"id-"/"path-" prefixed, or "" for no guard
	Actions      []ActionSpec
}

// ActionSpec mirrors event.Action before conversion.
type ActionSpec struct {
	Kind string
	Args map[string]interface{}
}

// ScenarioBlueprint is one fully-parsed scenario (spec §6). Scripts maps
// scriptId -> source, consulted by "id-" guard content and by
// ExecutableScript disk entries that reference a script by id rather
// than inlining source.
type ScenarioBlueprint struct {
	ScenarioID string

	Specs  []ServerSpecBlueprint
	Spawns []ServerSpawn

	AddressPlan []AddressPlan
	Hubs        []Hub
	Links       []Link

	Events  []EventBlueprint
	Scripts map[string]string

	MyWorkstation    string // nodeId the player starts at
	PreferredUserKey string
}
