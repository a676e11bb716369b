package event

import "fmt"

// ActionKind is one of the implementation-extensible action kinds
// (spec §4.5).
type ActionKind string

const (
	ActionPrint        ActionKind = "print"
	ActionSetFlag      ActionKind = "setFlag"
	ActionGrantExecute ActionKind = "grantExecute"
)

// Action is one step of a handler's action list. Args are interpreted
// per Kind: print reads "text"; setFlag reads "key" and "value";
// grantExecute reads "nodeId", "userKey" and optional "via".
type Action struct {
	Kind ActionKind
	Args map[string]interface{}
}

// Mutator is the write surface actions use; world.World implements it.
type Mutator interface {
	SetScenarioFlag(key string, value interface{})

	// GrantExecute grants execute privilege to userKey on nodeId,
	// running the visibility-promotion system hook on a false→true
	// transition (spec §4.4), and reports whether it was a transition.
	GrantExecute(nodeID, userKey string) bool

	// NextEventSeq returns the next monotonic event sequence number, for
	// actions that enqueue a follow-up event of their own.
	NextEventSeq() int64
}

// TerminalLine is one queued line of output tagged for delivery to a
// specific (nodeId, userKey) terminal. An empty tag broadcasts.
type TerminalLine struct {
	NodeID  string
	UserKey string
	Text    string
}

// TerminalQueue is the tagged delivery queue print actions append to,
// grounded on miniplumber's tagged-reader fan-out idea: a writer posts a
// tagged line, readers filter by tag (or accept broadcasts).
type TerminalQueue struct {
	lines []TerminalLine
}

// NewTerminalQueue returns an empty queue.
func NewTerminalQueue() *TerminalQueue {
	return &TerminalQueue{}
}

// Post appends a tagged (or, if both fields are empty, broadcast) line.
func (q *TerminalQueue) Post(nodeID, userKey, text string) {
	q.lines = append(q.lines, TerminalLine{NodeID: nodeID, UserKey: userKey, Text: text})
}

// Drain returns and clears every queued line matching tag (nodeId,
// userKey), plus any broadcast lines.
func (q *TerminalQueue) Drain(nodeID, userKey string) []TerminalLine {
	var matched, kept []TerminalLine
	for _, l := range q.lines {
		isBroadcast := l.NodeID == "" && l.UserKey == ""
		isMatch := l.NodeID == nodeID && l.UserKey == userKey
		if isBroadcast || isMatch {
			matched = append(matched, l)
		} else {
			kept = append(kept, l)
		}
	}
	q.lines = kept
	return matched
}

// runAction executes one action, recovering any panic into an error so a
// malformed action never aborts the rest of the handler's action list
// (spec §4.5: "actions may individually fail... but the remainder still
// executes"). enqueue lets an action post a follow-up event of its own
// (grantExecute posts privilegeAcquire on a genuine transition).
func runAction(a Action, tq *TerminalQueue, mut Mutator, enqueue func(GameEvent)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s panicked: %v", a.Kind, r)
		}
	}()

	switch a.Kind {
	case ActionPrint:
		text, _ := a.Args["text"].(string)
		nodeID, _ := a.Args["nodeId"].(string)
		userKey, _ := a.Args["userKey"].(string)
		tq.Post(nodeID, userKey, text)
		return nil
	case ActionSetFlag:
		key, ok := a.Args["key"].(string)
		if !ok || key == "" {
			return fmt.Errorf("setFlag: missing key")
		}
		mut.SetScenarioFlag(key, a.Args["value"])
		return nil
	case ActionGrantExecute:
		nodeID, _ := a.Args["nodeId"].(string)
		userKey, _ := a.Args["userKey"].(string)
		if nodeID == "" || userKey == "" {
			return fmt.Errorf("grantExecute: missing nodeId/userKey")
		}
		via, _ := a.Args["via"].(string)
		if granted := mut.GrantExecute(nodeID, userKey); granted {
			enqueue(GameEvent{
				EventType: PrivilegeAcquire,
				Seq:       mut.NextEventSeq(),
				Payload: PrivilegeAcquirePayload{
					NodeID: nodeID, UserKey: userKey, Privilege: "execute", Via: via,
				},
			})
		}
		return nil
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}
