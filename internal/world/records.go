// Package world owns the engine's arena-of-tables state (spec §3, §4.4,
// component C5): every cross-reference between records is an opaque
// string or int id, never a pointer, mirroring
// sandia-minimega-minimega's own node-graph-of-VMs design where every VM
// is addressed by name/id through the global `vms` table rather than by
// reference. See DESIGN.md.
package world

import "github.com/hollowgrid/engine/internal/vfs"

// Role is a server's role tag.
type Role string

const (
	RoleTerminal     Role = "terminal"
	RoleOTPGenerator Role = "otpGenerator"
	RoleMainframe    Role = "mainframe"
	RoleTracer       Role = "tracer"
	RoleGateway      Role = "gateway"
)

// Status is a server's online/offline state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Reason explains a server's status; OK iff online.
type Reason string

const (
	ReasonOK       Reason = "OK"
	ReasonReboot   Reason = "reboot"
	ReasonDisabled Reason = "disabled"
	ReasonCrashed  Reason = "crashed"
)

// AuthMode is a user's authentication mode.
type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthStatic AuthMode = "static"
	AuthOTP    AuthMode = "otp"
	AuthOther  AuthMode = "other"
)

// Privileges are monotonic: once true, a field MUST NOT be reset false.
type Privileges struct {
	Read    bool
	Write   bool
	Execute bool
}

// Grant sets a privilege true, returning whether this was a false→true
// transition (callers use this to decide whether to emit privilegeAcquire).
func (p *Privileges) Grant(priv string) bool {
	switch priv {
	case "read":
		if p.Read {
			return false
		}
		p.Read = true
	case "write":
		if p.Write {
			return false
		}
		p.Write = true
	case "execute":
		if p.Execute {
			return false
		}
		p.Execute = true
	}
	return true
}

// UserConfig is a per-server user record (spec §3).
type UserConfig struct {
	UserID     string // display identifier
	Password   string // optional
	AuthMode   AuthMode
	Privileges Privileges
	Info       []string
}

// PortType is the protocol served on a port; "none" means unassigned.
type PortType string

const (
	PortNone PortType = "none"
	PortSSH  PortType = "ssh"
	PortFTP  PortType = "ftp"
	PortHTTP PortType = "http"
	PortSQL  PortType = "sql"
)

// Exposure controls which sources may reach a port.
type Exposure string

const (
	ExposurePublic    Exposure = "public"
	ExposureLAN       Exposure = "lan"
	ExposureLocalhost Exposure = "localhost"
)

// PortConfig describes one listening port (spec §3). Exposure is
// meaningless when Type == PortNone.
type PortConfig struct {
	Type      PortType
	Exposure  Exposure
	ServiceID string
	Banner    string
}

// DaemonConfig describes a non-port daemon (e.g. an OTP generator) keyed
// by daemonType on the server.
type DaemonConfig struct {
	DaemonType string
	UserKey    string // the user this daemon is associated with, if any
	Config     map[string]string
}

// ProcessState is a Process record's lifecycle state.
type ProcessState string

const (
	ProcessRunning  ProcessState = "running"
	ProcessFinished ProcessState = "finished"
	ProcessCanceled ProcessState = "canceled"
)

// Process is a scheduled unit of work (spec §3, component C7).
type Process struct {
	ProcessID   int
	HostNodeID  string
	UserKey     string // or "system"
	State       ProcessState
	Program     string
	ProcessType string
	Args        map[string]string
	EndAt       int64 // world-time-ms
}

// Session is a per-server authenticated connection (spec §3).
type Session struct {
	SessionID int
	UserKey   string
	RemoteIP  string
	Cwd       string
}

// Interface is one of a server's network attachments.
type Interface struct {
	NetID string
	IP    string
}

// Server is one node in the world (spec §3).
type Server struct {
	NodeID  string
	Name    string
	Role    Role
	Status  Status
	Reason  Reason
	Primary string // optional primary IP
	Ifaces  []Interface

	SubnetMembership map[string]struct{}
	IsExposedByNet   map[string]bool
	LANNeighbors     []string // ordered set of neighbor nodeIds

	Users    map[string]*UserConfig // userKey -> UserConfig
	Sessions map[int]*Session       // sessionId -> Session
	Ports    map[int]*PortConfig    // portNumber -> PortConfig
	Daemons  map[string]*DaemonConfig

	FS *vfs.Overlay

	Logs *LogRing

	OwnedProcesses map[int]struct{}

	nextSessionID    int
	initiallyExposed map[string]bool // netId -> seeded into KnownNodesByNet on first promotion
}

// MarkInitiallyExposed flags this server as part of a net's initial seed
// set, consulted the first time that net is promoted into VisibleNets.
func (s *Server) MarkInitiallyExposed(netID string) {
	if s.initiallyExposed == nil {
		s.initiallyExposed = map[string]bool{}
	}
	s.initiallyExposed[netID] = true
}

// NewServer returns a freshly initialized, empty server record.
func NewServer(nodeID, name string, role Role, fs *vfs.Overlay, logCapacity int) *Server {
	return &Server{
		NodeID:           nodeID,
		Name:             name,
		Role:             role,
		Status:           StatusOffline,
		Reason:           ReasonOK,
		SubnetMembership: map[string]struct{}{},
		IsExposedByNet:   map[string]bool{},
		Users:            map[string]*UserConfig{},
		Sessions:         map[int]*Session{},
		Ports:            map[int]*PortConfig{},
		Daemons:          map[string]*DaemonConfig{},
		FS:               fs,
		Logs:             NewLogRing(logCapacity),
		OwnedProcesses:   map[int]struct{}{},
		nextSessionID:    1,
	}
}

// NextSessionID returns the next monotonic sessionId for this server.
func (s *Server) NextSessionID() int {
	id := s.nextSessionID
	s.nextSessionID++
	return id
}

// NextSessionIDPeek returns the session id allocator's cursor without
// consuming it (internal/save snapshot support).
func (s *Server) NextSessionIDPeek() int { return s.nextSessionID }

// SetNextSessionID restores the session id allocator's cursor.
func (s *Server) SetNextSessionID(v int) { s.nextSessionID = v }
