package event

import (
	"sync"

	"github.com/hollowgrid/engine/pkg/minilog"
)

// Fired is the interface the event system uses to check and record
// once-only firing; world.World implements it.
type Fired interface {
	HasFired(key string) bool
	MarkFired(key string)
}

// System is the condition-indexed dispatcher (spec §4.5). One System
// belongs to one World; internal/engine wires them together.
type System struct {
	mu sync.Mutex

	state ReadOnlyState
	fired Fired
	mut   Mutator

	queue []*pendingDispatch

	handlers []*HandlerDescriptor
	index    map[Type]map[string][]int // dim-key ("\x00"-joined) -> handler indices

	Terminal *TerminalQueue

	log *minilog.Logger
}

// pendingDispatch tracks one queued event's scan position across its
// candidate handlers. indices is the flattened, ordered list of
// candidate handler indices, computed once on first touch; pos is the
// next untried index into it. Re-queuing the same *pendingDispatch
// (rather than the bare GameEvent) is what lets a tick-budget exhaustion
// resume mid-event instead of losing the handlers it hadn't reached yet
// (spec §4.5 "Excess handlers remain in queue for the next tick").
type pendingDispatch struct {
	evt     GameEvent
	indices []int
	pos     int
}

// NewSystem builds an empty dispatcher bound to world state.
func NewSystem(state ReadOnlyState, fired Fired, mut Mutator) *System {
	return &System{
		state:    state,
		fired:    fired,
		mut:      mut,
		index:    map[Type]map[string][]int{},
		Terminal: NewTerminalQueue(),
		log:      minilog.Get("event"),
	}
}

// Register adds a compiled handler to the dispatcher's index.
func (s *System) Register(h *HandlerDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.handlers)
	s.handlers = append(s.handlers, h)

	byType, ok := s.index[h.ConditionType]
	if !ok {
		byType = map[string][]int{}
		s.index[h.ConditionType] = byType
	}
	key := joinDims(h.dims())
	byType[key] = append(byType[key], idx)
}

// Enqueue appends an event to the drain queue, assigning it no seq
// itself (the caller, which owns the World's monotonic counter, must
// set evt.Seq before calling).
func (s *System) Enqueue(evt GameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, &pendingDispatch{evt: evt})
}

// Drain runs one tick's dispatch pass (spec §4.5 "Drain order per
// tick"): pops every queued event, for each scans candidate handlers via
// the index, skips already-fired ids, evaluates guards under the
// per-call and per-tick budgets, and runs actions for passing handlers.
// An event whose guard budget runs out partway through its candidate
// handlers is re-queued at its exact scan position, so the handlers it
// hadn't reached yet are retried next Drain rather than dropped.
func (s *System) Drain() {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	budget := newGuardBudget()
	var requeue []*pendingDispatch

	for _, pd := range pending {
		if s.dispatchOne(pd, budget) {
			continue
		}
		requeue = append(requeue, pd)
	}

	if len(requeue) > 0 {
		s.mu.Lock()
		s.queue = append(requeue, s.queue...)
		s.mu.Unlock()
	}
}

// dispatchOne advances pd's scan over its candidate handlers as far as
// the tick budget allows, reporting whether every candidate was tried
// (true) or the budget ran out first (false, resume at pd.pos next
// Drain).
func (s *System) dispatchOne(pd *pendingDispatch, budget *guardBudget) bool {
	if pd.indices == nil {
		condType, dims, ok := eventDims(pd.evt)
		if !ok {
			return true
		}
		pd.indices = s.flattenCandidates(condType, dims)
	}

	for pd.pos < len(pd.indices) {
		h := s.handlers[pd.indices[pd.pos]]
		if s.fired.HasFired(h.FiredKey()) {
			pd.pos++
			continue
		}
		if budget.exhausted() {
			return false
		}

		ok, warning := budget.run(h.Guard, pd.evt, s.state)
		if warning != "" {
			s.log.Warn("guard failed scenario=%s event=%s: %s", h.ScenarioID, h.EventID, warning)
		}
		if ok {
			for _, a := range h.Actions {
				if err := runAction(a, s.Terminal, s.mut, s.Enqueue); err != nil {
					s.log.Warn("action failed scenario=%s event=%s: %v", h.ScenarioID, h.EventID, err)
				}
			}
			s.fired.MarkFired(h.FiredKey())
		}
		pd.pos++
	}
	return true
}

// flattenCandidates computes the ordered, deduplication-free candidate
// handler index list for one event's condition dims: the Cartesian
// product of (actual, AnySentinel) per dimension, each key's registered
// handlers in registration order.
func (s *System) flattenCandidates(condType Type, dims []string) []int {
	byType := s.index[condType]
	var indices []int
	for _, key := range candidateKeys(dims) {
		indices = append(indices, byType[key]...)
	}
	return indices
}

func joinDims(dims []string) string {
	out := ""
	for i, d := range dims {
		if i > 0 {
			out += "\x00"
		}
		out += d
	}
	return out
}

// candidateKeys generates the Cartesian product of (actual, AnySentinel)
// per dimension, as joined index keys, per spec §4.5.
func candidateKeys(dims []string) []string {
	keys := []string{""}
	for i, d := range dims {
		options := []string{d}
		if d != AnySentinel {
			options = append(options, AnySentinel)
		}
		next := make([]string, 0, len(keys)*len(options))
		for _, k := range keys {
			for _, o := range options {
				if i == 0 {
					next = append(next, o)
				} else {
					next = append(next, k+"\x00"+o)
				}
			}
		}
		keys = next
	}
	return keys
}
