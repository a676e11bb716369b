package syscall

import (
	"github.com/hollowgrid/engine/internal/vfs"
	"github.com/hollowgrid/engine/internal/world"
)

// ExecContext is the terminal execution context a handler runs under:
// which server it's attached to, as which user, at which working
// directory. internal/session owns building and transitioning these.
type ExecContext struct {
	World *world.World

	NodeID  string
	UserKey string
	Cwd     string

	RemoteIP string
	NowMs    int64

	// TerminalSessionID identifies the player-facing terminal this call
	// runs under (distinct from world.Session, which is a remote SSH
	// hop). internal/session keys its per-terminal connection-frame
	// stack by this value; handlers that transition connections
	// (connect/disconnect) need it to find their stack.
	TerminalSessionID string
}

// Server resolves the context's current server record.
func (c *ExecContext) Server() (*world.Server, bool) {
	s, ok := c.World.ServerList[c.NodeID]
	return s, ok
}

// FS resolves the context's current server's overlay filesystem.
func (c *ExecContext) FS() (*vfs.Overlay, bool) {
	s, ok := c.Server()
	if !ok {
		return nil, false
	}
	return s.FS, true
}

// User resolves the context's current user record.
func (c *ExecContext) User() (*world.UserConfig, bool) {
	s, ok := c.Server()
	if !ok {
		return nil, false
	}
	u, ok := s.Users[c.UserKey]
	return u, ok
}

// Resolve normalizes rel against the context's cwd.
func (c *ExecContext) Resolve(rel string) string {
	return vfs.NormalizePath(c.Cwd, rel)
}
