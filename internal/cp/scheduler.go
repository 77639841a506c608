package cp

import "github.com/rhartert/yagh"

// Scheduler is the priority-ordered queue of propagators awaiting a run.
// Priorities range 0-3 with lower values running first; re-entering an
// already-queued propagator is a no-op (enqueue is idempotent), mirroring
// the teacher's use of yagh.IntMap for VarOrder but keyed here by
// propagator priority instead of variable activity.
type Scheduler struct {
	propagators []Propagator
	queue       *yagh.IntMap[int]
	queued      []bool
	size        int
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{queue: yagh.New[int](0)}
}

// Register adds a propagator and returns the id used to enqueue/dequeue
// it. Registration order breaks ties between propagators of equal
// priority, same as yagh's tie-breaking by insertion index.
func (s *Scheduler) Register(p Propagator) int {
	id := len(s.propagators)
	s.propagators = append(s.propagators, p)
	s.queue.GrowBy(1)
	s.queued = append(s.queued, false)
	return id
}

// Enqueue schedules propagator id to run, unless it is already queued.
func (s *Scheduler) Enqueue(id int) {
	if s.queued[id] {
		return
	}
	s.queued[id] = true
	s.size++
	s.queue.Put(id, s.propagators[id].Priority())
}

// IsEmpty reports whether the scheduler has no propagator left to run.
func (s *Scheduler) IsEmpty() bool { return s.size == 0 }

// Pop removes and returns the highest-priority (lowest value) queued
// propagator and its id.
func (s *Scheduler) Pop() (Propagator, int, bool) {
	next, ok := s.queue.Pop()
	if !ok {
		return nil, 0, false
	}
	s.queued[next.Elem] = false
	s.size--
	return s.propagators[next.Elem], next.Elem, true
}

// Clear drains the queue without running anything. The engine does not
// call it: pending CP work survives a clausal conflict.
func (s *Scheduler) Clear() {
	for s.size > 0 {
		s.Pop()
	}
}
