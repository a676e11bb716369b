package world

// SetScenarioFlag writes a scenario flag. Satisfies internal/event.Mutator.
func (w *World) SetScenarioFlag(key string, value interface{}) {
	w.ScenarioFlags[key] = value
}

// ScenarioFlag reads a scenario flag. Satisfies internal/event.ReadOnlyState.
func (w *World) ScenarioFlag(key string) (interface{}, bool) {
	v, ok := w.ScenarioFlags[key]
	return v, ok
}

// ServerOnline reports whether a server exists and is online. Satisfies
// internal/event.ReadOnlyState.
func (w *World) ServerOnline(nodeID string) bool {
	s, ok := w.ServerList[nodeID]
	return ok && s.Status == StatusOnline
}
