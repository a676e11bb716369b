// Package session implements the per-terminal connection-frame stack and
// SSH route layer (spec §4.8, component C9): connect pushes a frame and
// authenticates against the target; disconnect pops back to the
// previous context; chained connects build a Route DTO with prefix
// routes. Route here is a plain ordered slice of hops, not a shortest-
// path computation — see DESIGN.md for why
// sandia-minimega-minimega/internal/meshage/route.go's BFS/Dijkstra
// route table was credited only for the "hop chain derived from
// connections" framing, not reused as an algorithm.
package session

import "github.com/hollowgrid/engine/internal/world"

// Context is a terminal's current location: which server, as which
// user, at which working directory, plus the prompt strings the UI
// shows for that location.
type Context struct {
	NodeID     string
	UserKey    string
	Cwd        string
	PromptUser string
	PromptHost string
}

// Frame is one pushed connection: where the terminal came from, and the
// session it opened on the new host (spec §4.8).
type Frame struct {
	Previous Context
	NodeID   string
	SessionID int
}

// Stack is one terminal's connection-frame stack.
type Stack struct {
	frames []Frame
}

// Depth returns the number of pushed frames (current hop count).
func (s *Stack) Depth() int { return len(s.frames) }

// Push adds a new frame atop the stack.
func (s *Stack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top frame, or ok=false if the stack is
// empty.
func (s *Stack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Frames returns the stack's frames, bottom (first connect) to top
// (most recent connect).
func (s *Stack) Frames() []Frame {
	return append([]Frame(nil), s.frames...)
}

// Route builds the Route DTO for this stack's current chain (spec
// §4.8): one hop per frame, session record per frame's allocated
// sessionId.
func (s *Stack) Route(w *world.World) world.Route {
	hops := make([]world.Session, 0, len(s.frames))
	for _, f := range s.frames {
		srv, ok := w.ServerList[f.NodeID]
		if !ok {
			continue
		}
		if sess, ok := srv.Sessions[f.SessionID]; ok {
			hops = append(hops, *sess)
		}
	}
	return world.Route{Hops: hops}
}
