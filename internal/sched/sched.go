// Package sched implements the process scheduler (spec §4.6, component
// C7): a min-heap of (processId, endAt) popped in due-time order. The
// due-process lifecycle (flip server state, suppress side effects on a
// disabled/crashed host, emit processFinished) is new code; the
// offline→rebooting→online state transition it drives is modeled on
// sandia-minimega-minimega's VM lifecycle state machine (a pending
// operation completes and flips vm.State). The heap itself is stdlib
// container/heap — no pack repo carries a generic priority-queue
// library, see SPEC_FULL.md's stdlib-justification table.
package sched

import (
	"container/heap"

	"github.com/hollowgrid/engine/internal/event"
	"github.com/hollowgrid/engine/internal/world"
)

// dueEntry is one scheduled process in the heap.
type dueEntry struct {
	processID int
	endAt     int64
	index     int // heap.Interface bookkeeping
}

type dueHeap []*dueEntry

func (h dueHeap) Len() int            { return len(h) }
func (h dueHeap) Less(i, j int) bool  { return h[i].endAt < h[j].endAt }
func (h dueHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *dueHeap) Push(x interface{}) {
	e := x.(*dueEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *dueHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler owns the due-time min-heap for one world.
type Scheduler struct {
	h       dueHeap
	byProc  map[int]*dueEntry
	w       *world.World
	events  *event.System
}

// New builds a scheduler bound to w, emitting processFinished onto sys.
func New(w *world.World, sys *event.System) *Scheduler {
	s := &Scheduler{byProc: map[int]*dueEntry{}, w: w, events: sys}
	heap.Init(&s.h)
	return s
}

// Schedule registers a running process to fire at endAt.
func (s *Scheduler) Schedule(processID int, endAt int64) {
	e := &dueEntry{processID: processID, endAt: endAt}
	s.byProc[processID] = e
	heap.Push(&s.h, e)
}

// Cancel removes a process from the heap before it fires (used by
// reboot, which cancels every process the rebooting server owns).
func (s *Scheduler) Cancel(processID int) {
	e, ok := s.byProc[processID]
	if !ok {
		return
	}
	heap.Remove(&s.h, e.index)
	delete(s.byProc, processID)
}

// PopDue pops every process with endAt <= now, in ascending endAt order,
// applying the per-spec lifecycle and emitting processFinished for each.
func (s *Scheduler) PopDue(now int64) {
	for s.h.Len() > 0 && s.h[0].endAt <= now {
		e := heap.Pop(&s.h).(*dueEntry)
		delete(s.byProc, e.processID)
		s.finish(e.processID, now)
	}
}

func (s *Scheduler) finish(processID int, now int64) {
	p, ok := s.w.ProcessList[processID]
	if !ok {
		return
	}

	p.State = world.ProcessFinished
	if host, ok := s.w.ServerList[p.HostNodeID]; ok {
		delete(host.OwnedProcesses, processID)
	}

	effectApplied, skipReason := s.applyEffect(p)

	if s.events != nil {
		s.events.Enqueue(event.GameEvent{
			EventType: event.ProcessFinished,
			TimeMs:    now,
			Seq:       s.w.NextEventSeq(),
			Payload: event.ProcessFinishedPayload{
				ProcessID:        processID,
				HostNodeID:       p.HostNodeID,
				UserKey:          p.UserKey,
				Name:             p.Program,
				Path:             p.Program,
				ProcessType:      p.ProcessType,
				ProcessArgs:      p.Args,
				ScheduledEndAtMs: p.EndAt,
				FinishedAtMs:     now,
				EffectApplied:    effectApplied,
				EffectSkipReason: skipReason,
			},
		})
	}
}

// applyEffect runs the due process's side effect unless the host is
// disabled or crashed (spec §4.6 step 2). The only side effect modeled
// at this layer is "booting" turning offline/reboot back to online/OK;
// other process types' effects are applied by their own callers
// (internal/syscall, internal/intrinsic) before/after PopDue runs.
func (s *Scheduler) applyEffect(p *world.Process) (applied bool, skipReason string) {
	host, ok := s.w.ServerList[p.HostNodeID]
	if !ok {
		return false, "host missing"
	}
	if host.Reason == world.ReasonDisabled {
		return false, "disabled"
	}
	if host.Reason == world.ReasonCrashed {
		return false, "crashed"
	}

	if p.ProcessType == "booting" && host.Status == world.StatusOffline && host.Reason == world.ReasonReboot {
		host.Status = world.StatusOnline
		host.Reason = world.ReasonOK
	}
	return true, ""
}

// Reboot implements the reboot flow (spec §4.6): set offline/reboot,
// cancel every owned process, empty sessions, register one deterministic
// "booting" process.
func (s *Scheduler) Reboot(nodeID string, now int64, bootDurationMs int64) {
	host, ok := s.w.ServerList[nodeID]
	if !ok {
		return
	}

	host.Status = world.StatusOffline
	host.Reason = world.ReasonReboot

	for pid := range host.OwnedProcesses {
		s.Cancel(pid)
		if p, ok := s.w.ProcessList[pid]; ok {
			p.State = world.ProcessCanceled
		}
	}
	host.OwnedProcesses = map[int]struct{}{}
	host.Sessions = map[int]*world.Session{}

	pid := s.w.NextProcessID()
	endAt := now + bootDurationMs
	proc := &world.Process{
		ProcessID:   pid,
		HostNodeID:  nodeID,
		UserKey:     "system",
		State:       world.ProcessRunning,
		Program:     "boot",
		ProcessType: "booting",
		EndAt:       endAt,
	}
	s.w.ProcessList[pid] = proc
	host.OwnedProcesses[pid] = struct{}{}
	s.Schedule(pid, endAt)
}

// Rebuild reconstructs the heap from the world's running processes,
// per spec §4.6's "heap is rebuilt on load" invariant.
func (s *Scheduler) Rebuild() {
	s.h = s.h[:0]
	s.byProc = map[int]*dueEntry{}
	heap.Init(&s.h)
	for pid, p := range s.w.ProcessList {
		if p.State == world.ProcessRunning {
			s.Schedule(pid, p.EndAt)
		}
	}
}
