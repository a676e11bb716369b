package world

// SeedInitialVisibility deploys every net already in VisibleNets at
// construction time (just "internet", per New) into KnownNodesByNet,
// per spec §4.11 step 7. internal/builder calls this once after
// registering every server's MarkInitiallyExposed flags.
func (w *World) SeedInitialVisibility() {
	for netID := range w.VisibleNets {
		w.seedKnownNodes(netID)
	}
}

// GrantExecute grants execute privilege to userKey on server nodeId. If
// this is a false→true transition, it runs the visibility-promotion
// system hook (spec §4.4) and reports true so callers know to emit
// privilegeAcquire. System hooks must run before scenario handlers see
// the event, so the event system calls this ahead of dispatch.
func (w *World) GrantExecute(nodeID, userKey string) bool {
	s, ok := w.ServerList[nodeID]
	if !ok {
		return false
	}
	u, ok := s.Users[userKey]
	if !ok {
		return false
	}

	granted := u.Privileges.Grant("execute")
	if granted {
		w.promoteVisibility(s)
	}
	return granted
}

// promoteVisibility adds every subnet s belongs to into VisibleNets. The
// first time a subnet enters VisibleNets, its initiallyExposed nodes
// seed KnownNodesByNet[netId]. isExposedByNet is then recomputed for
// every server touching a newly-known net.
func (w *World) promoteVisibility(s *Server) {
	for netID := range s.SubnetMembership {
		if _, already := w.VisibleNets[netID]; already {
			continue
		}
		w.VisibleNets[netID] = struct{}{}
		w.seedKnownNodes(netID)
	}
}

// seedKnownNodes populates KnownNodesByNet[netId] with every server on
// that net flagged initiallyExposed (recorded on the server at build
// time via MarkInitiallyExposed), then recomputes IsExposedByNet for
// every server on that net.
func (w *World) seedKnownNodes(netID string) {
	known, ok := w.KnownNodesByNet[netID]
	if !ok {
		known = map[string]struct{}{}
		w.KnownNodesByNet[netID] = known
	}

	for _, s := range w.ServerList {
		if _, onNet := s.SubnetMembership[netID]; !onNet {
			continue
		}
		if s.initiallyExposed[netID] {
			known[s.NodeID] = struct{}{}
		}
	}

	w.recomputeExposedByNet(netID)
}

// recomputeExposedByNet sets IsExposedByNet[netId] true on every server
// on that net whose nodeId is in KnownNodesByNet[netId].
func (w *World) recomputeExposedByNet(netID string) {
	known := w.KnownNodesByNet[netID]
	for _, s := range w.ServerList {
		if _, onNet := s.SubnetMembership[netID]; !onNet {
			continue
		}
		_, exposed := known[s.NodeID]
		s.IsExposedByNet[netID] = exposed
	}
}
