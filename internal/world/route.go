package world

// Route is an ordered chain of session hops A→B→C→... (spec §3). It is
// a plain ordered list, not a shortest-path computation: the player
// builds it one ssh.connect at a time, hop by hop.
type Route struct {
	Hops []Session // hop[i] is the session established to reach hop i
}

// MaxHops is the hard ceiling on route length (spec §4.8).
const MaxHops = 8

// HopCount is the number of hops in the route.
func (r Route) HopCount() int { return len(r.Hops) }

// LastSession returns the final hop, or the zero Session if the route
// is empty.
func (r Route) LastSession() Session {
	if len(r.Hops) == 0 {
		return Session{}
	}
	return r.Hops[len(r.Hops)-1]
}

// PrefixRoutes returns every strict prefix of this route as its own
// Route, shortest first. Non-recursive: none of the returned routes
// themselves carry a PrefixRoutes field.
func (r Route) PrefixRoutes() []Route {
	out := make([]Route, 0, len(r.Hops))
	for i := 1; i < len(r.Hops); i++ {
		out = append(out, Route{Hops: append([]Session(nil), r.Hops[:i]...)})
	}
	return out
}
