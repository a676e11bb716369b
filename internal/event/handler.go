package event

import "fmt"

// HandlerDescriptor is a compiled scenario event handler (spec §4.5),
// built from the blueprint's EventBlueprint. Optional condition fields
// normalize to AnySentinel when null/omitted; a required condition key
// missing entirely is a build-time error (a present-but-null value is
// not an error, it just means "match anything").
type HandlerDescriptor struct {
	ScenarioID    string
	EventID       string
	ConditionType Type

	NodeID    string // normalized, or AnySentinel
	UserKey   string // normalized, or AnySentinel
	Privilege string // normalized, or AnySentinel
	FileName  string // normalized, or AnySentinel

	Guard   Guard // nil means "always true"
	Actions []Action
}

// FiredKey is the (scenarioId, eventId) identity tracked in
// world.FiredHandlerIDs for once-only firing.
func (h *HandlerDescriptor) FiredKey() string {
	return h.ScenarioID + "/" + h.EventID
}

func normalize(v *string) string {
	if v == nil || *v == "" {
		return AnySentinel
	}
	return *v
}

// NewHandlerDescriptor builds a descriptor from raw blueprint fields,
// normalizing optional condition fields and validating that every
// condition key required by conditionType is present (nil pointer is a
// build error; a pointer to "" normalizes to AnySentinel).
func NewHandlerDescriptor(scenarioID, eventID string, conditionType Type, nodeID, userKey, privilege, fileName *string, guard Guard, actions []Action) (*HandlerDescriptor, error) {
	h := &HandlerDescriptor{
		ScenarioID:    scenarioID,
		EventID:       eventID,
		ConditionType: conditionType,
		Guard:         guard,
		Actions:       actions,
	}

	switch conditionType {
	case ProcessFinished:
		if nodeID == nil || userKey == nil {
			return nil, fmt.Errorf("event: %s/%s: processFinished requires nodeId and userKey keys", scenarioID, eventID)
		}
		h.NodeID, h.UserKey = normalize(nodeID), normalize(userKey)
	case PrivilegeAcquire:
		if privilege == nil || nodeID == nil || userKey == nil {
			return nil, fmt.Errorf("event: %s/%s: privilegeAcquire requires privilege, nodeId and userKey keys", scenarioID, eventID)
		}
		h.Privilege, h.NodeID, h.UserKey = normalize(privilege), normalize(nodeID), normalize(userKey)
	case FileAcquire:
		if fileName == nil || nodeID == nil {
			return nil, fmt.Errorf("event: %s/%s: fileAcquire requires fileName and nodeId keys", scenarioID, eventID)
		}
		h.FileName, h.NodeID = normalize(fileName), normalize(nodeID)
	default:
		return nil, fmt.Errorf("event: %s/%s: unknown condition type %q", scenarioID, eventID, conditionType)
	}

	return h, nil
}

// dims returns this handler's indexing dimensions in the fixed,
// most-selective-first order for its condition type (spec §4.5):
// privilege→nodeId→userKey for privilegeAcquire; fileName→nodeId for
// fileAcquire; nodeId→userKey for processFinished.
func (h *HandlerDescriptor) dims() []string {
	switch h.ConditionType {
	case PrivilegeAcquire:
		return []string{h.Privilege, h.NodeID, h.UserKey}
	case FileAcquire:
		return []string{h.FileName, h.NodeID}
	case ProcessFinished:
		return []string{h.NodeID, h.UserKey}
	default:
		return nil
	}
}

// eventDims extracts the same dimension tuple from a concrete GameEvent,
// for index lookup.
func eventDims(evt GameEvent) (Type, []string, bool) {
	switch p := evt.Payload.(type) {
	case ProcessFinishedPayload:
		return ProcessFinished, []string{p.HostNodeID, valueOr(p.UserKey, "system")}, true
	case PrivilegeAcquirePayload:
		return PrivilegeAcquire, []string{p.Privilege, p.NodeID, p.UserKey}, true
	case FileAcquirePayload:
		return FileAcquire, []string{p.FileName, p.FromNodeID}, true
	default:
		return "", nil, false
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
