package session

import (
	"strings"

	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/syscall"
	"github.com/hollowgrid/engine/internal/world"
)

// Manager owns every terminal's connection-frame stack for one world.
type Manager struct {
	w      *world.World
	events *event.System

	stacks map[string]*Stack // terminalKey -> Stack
}

// New builds a session manager bound to w, emitting privilegeAcquire
// onto sys.
func New(w *world.World, sys *event.System) *Manager {
	return &Manager{w: w, events: sys, stacks: map[string]*Stack{}}
}

// StackFor exposes a terminal's connection-frame stack to collaborators
// outside this package (internal/intrinsic resolves session|route
// arguments against it).
func (m *Manager) StackFor(terminalKey string) *Stack {
	return m.stackFor(terminalKey)
}

func (m *Manager) stackFor(terminalKey string) *Stack {
	s, ok := m.stacks[terminalKey]
	if !ok {
		s = &Stack{}
		m.stacks[terminalKey] = s
	}
	return s
}

// ConnectRequest is the input to Connect: an SSH-like connection from
// the terminal's current context to hostOrIP.
type ConnectRequest struct {
	HostOrIP string
	UserID   string
	Password string
	Port     int
}

// Connect implements the `connect` syscall / `ssh.connect` intrinsic
// (spec §4.8): resolves the target, authenticates, allocates a session,
// and pushes a frame. Returns the new terminal context plus a Result
// whose Data carries the transition for the terminal UI.
func (m *Manager) Connect(terminalKey string, cur Context, req ConnectRequest) (Context, syscall.Result) {
	stack := m.stackFor(terminalKey)
	if stack.Depth() >= world.MaxHops {
		return cur, syscall.Err(syscall.ErrInvalidArgs, "maximum ssh chain depth (8) reached")
	}

	targetID, ok := resolveTarget(m.w, req.HostOrIP)
	if !ok {
		return cur, syscall.Err(syscall.ErrNotFound, "unknown host: "+req.HostOrIP)
	}
	target, ok := m.w.ServerList[targetID]
	if !ok || target.Status != world.StatusOnline {
		return cur, syscall.Err(syscall.ErrNotFound, req.HostOrIP+" is not reachable")
	}

	port, ok := target.Ports[req.Port]
	if !ok || port.Type != world.PortSSH {
		return cur, syscall.Err(syscall.ErrPortClosed, "ssh port closed")
	}
	if !m.w.ExposureAllowed(cur.NodeID, targetID, req.Port) {
		return cur, syscall.Err(syscall.ErrNetDenied, "network access denied")
	}

	userKey, user, ok := findUserByID(target, req.UserID)
	if !ok {
		return cur, syscall.Err(syscall.ErrAuthFailed, "authentication failed")
	}
	if !authenticate(m.w, target, userKey, user, req.Password) {
		return cur, syscall.Err(syscall.ErrAuthFailed, "authentication failed")
	}

	sessionID := target.NextSessionID()
	remoteIP := pickRemoteIP(m.w, cur.NodeID, target)
	newCwd := "/"
	target.Sessions[sessionID] = &world.Session{SessionID: sessionID, UserKey: userKey, RemoteIP: remoteIP, Cwd: newCwd}

	stack.Push(Frame{Previous: cur, NodeID: targetID, SessionID: sessionID})

	if m.events != nil {
		m.emitExistingPrivileges(targetID, userKey, user)
	}

	next := Context{
		NodeID:     targetID,
		UserKey:    userKey,
		Cwd:        newCwd,
		PromptUser: user.UserID,
		PromptHost: target.Name,
	}
	return next, syscall.Ok().WithData(map[string]interface{}{
		"connected": true, "nodeId": targetID, "sessionId": sessionID,
	})
}

// emitExistingPrivileges announces every privilege the freshly
// authenticated user already holds, per spec §4.8 ("emit
// privilegeAcquire for every privilege... with via = ssh.connect").
func (m *Manager) emitExistingPrivileges(nodeID, userKey string, user *world.UserConfig) {
	for priv, held := range map[string]bool{
		"read": user.Privileges.Read, "write": user.Privileges.Write, "execute": user.Privileges.Execute,
	} {
		if !held {
			continue
		}
		m.events.Enqueue(event.GameEvent{
			EventType: event.PrivilegeAcquire,
			Seq:       m.w.NextEventSeq(),
			Payload: event.PrivilegeAcquirePayload{
				NodeID: nodeID, UserKey: userKey, Privilege: priv,
				Via: "ssh.connect", EmitWhenAlreadyGranted: true,
			},
		})
	}
}

// DisconnectResult summarizes a best-effort disconnect (spec §4.8).
type DisconnectResult struct {
	Requested     int
	Closed        int
	AlreadyClosed int
	Invalid       int
}

// Disconnect pops the top frame of terminalKey's stack, closing the
// remote session and returning the previous context.
func (m *Manager) Disconnect(terminalKey string) (Context, bool) {
	stack := m.stackFor(terminalKey)
	f, ok := stack.Pop()
	if !ok {
		return Context{}, false
	}
	m.closeSession(f.NodeID, f.SessionID)
	return f.Previous, true
}

// DisconnectAll implements "disconnect on a route" (spec §4.8): closes
// every hop from last to first, deduplicated by (nodeId, sessionId),
// returning the root context and a best-effort summary.
func (m *Manager) DisconnectAll(terminalKey string) (Context, DisconnectResult) {
	stack := m.stackFor(terminalKey)
	frames := stack.Frames()

	var root Context
	if len(frames) > 0 {
		root = frames[0].Previous
	}

	summary := DisconnectResult{Requested: len(frames)}
	seen := map[[2]interface{}]bool{}
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		key := [2]interface{}{f.NodeID, f.SessionID}
		if seen[key] {
			summary.AlreadyClosed++
			continue
		}
		seen[key] = true
		if m.closeSession(f.NodeID, f.SessionID) {
			summary.Closed++
		} else {
			summary.Invalid++
		}
	}
	stack.frames = nil
	return root, summary
}

func (m *Manager) closeSession(nodeID string, sessionID int) bool {
	s, ok := m.w.ServerList[nodeID]
	if !ok {
		return false
	}
	if _, ok := s.Sessions[sessionID]; !ok {
		return false
	}
	delete(s.Sessions, sessionID)
	return true
}

func resolveTarget(w *world.World, hostOrIP string) (string, bool) {
	if nodeID, ok := w.IPIndex[hostOrIP]; ok {
		return nodeID, true
	}
	if _, ok := w.ServerList[hostOrIP]; ok {
		return hostOrIP, true
	}
	for nodeID, s := range w.ServerList {
		if strings.EqualFold(s.Name, hostOrIP) {
			return nodeID, true
		}
	}
	return "", false
}

func findUserByID(s *world.Server, userID string) (string, *world.UserConfig, bool) {
	for key, u := range s.Users {
		if u.UserID == userID {
			return key, u, true
		}
	}
	return "", nil, false
}

// pickRemoteIP picks a source interface sharing a subnet with target,
// falling back to the target's primary IP or loopback (spec §4.8).
func pickRemoteIP(w *world.World, sourceNodeID string, target *world.Server) string {
	source, ok := w.ServerList[sourceNodeID]
	if ok {
		for _, iface := range source.Ifaces {
			if _, shared := target.SubnetMembership[iface.NetID]; shared {
				return iface.IP
			}
		}
	}
	if target.Primary != "" {
		return target.Primary
	}
	return "127.0.0.1"
}
