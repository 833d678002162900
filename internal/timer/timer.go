// Package timer implements the monotonic timer service described in the
// E84 controller's concurrency design: a single min-heap keyed by
// deadline, with cancellation via a generation counter rather than heap
// removal, so that a stale fire already queued behind other events is
// detected and discarded on dequeue (§9 design note).
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Fired is posted on the Service's Events channel when an armed timer's
// deadline elapses without being cancelled or re-armed in the meantime.
type Fired struct {
	Name string
	At   time.Time
}

type item struct {
	name       string
	deadline   time.Time
	generation uint64
	index      int
}

type itemHeap []*item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *itemHeap) Push(x interface{}) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// Service owns the heap and a per-name generation counter. A timer
// identified by name is either unarmed (generation counter only, no heap
// entry), armed-with-deadline (one live heap entry matching the current
// generation), or fired (consumed until re-armed), matching the Timer
// invariant in spec.md §3.
type Service struct {
	mu          sync.Mutex
	h           itemHeap
	generation  map[string]uint64
	armedName   map[string]bool
	Events      chan Fired
	wake        chan struct{}
	stop        chan struct{}
	now         func() time.Time
	stopped     bool
}

// Options configures a Service at construction.
type Options struct {
	eventBuffer int
	now         func() time.Time
}

// NewOptions returns default timer service options.
func NewOptions() *Options {
	return &Options{eventBuffer: 16, now: time.Now}
}

// WithEventBuffer sets the buffer depth of the Events channel.
func (o *Options) WithEventBuffer(n int) *Options {
	o.eventBuffer = n
	return o
}

// WithClock overrides the monotonic clock source; used by tests to
// control timer firing deterministically.
func (o *Options) WithClock(now func() time.Time) *Options {
	o.now = now
	return o
}

// New constructs a Service. Call Run in its own goroutine to start
// dispatching Fired events.
func New(opts *Options) *Service {
	if opts == nil {
		opts = NewOptions()
	}
	return &Service{
		generation: make(map[string]uint64),
		armedName:  make(map[string]bool),
		Events:     make(chan Fired, opts.eventBuffer),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		now:        opts.now,
	}
}

// Arm schedules name to fire after d, replacing any previously armed
// deadline for the same name. At most one timer is considered armed per
// name at a time from the caller's point of view, even though the heap
// may transiently hold a stale entry for an old generation.
func (s *Service) Arm(name string, d time.Duration) {
	s.mu.Lock()
	s.generation[name]++
	gen := s.generation[name]
	s.armedName[name] = true
	heap.Push(&s.h, &item{name: name, deadline: s.now().Add(d), generation: gen})
	s.mu.Unlock()
	s.poke()
}

// Cancel unarms name. If a fire for it is already queued in the heap (or
// even already sent to Events), it is treated as stale and ignored.
func (s *Service) Cancel(name string) {
	s.mu.Lock()
	s.generation[name]++
	s.armedName[name] = false
	s.mu.Unlock()
}

// Armed reports whether name currently has a live armed deadline.
func (s *Service) Armed(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armedName[name]
}

func (s *Service) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Poke forces Run to recompute its next sleep against the current
// clock. Tests using WithClock call this after advancing a fake clock,
// since Run otherwise only re-evaluates deadlines when Arm/Cancel wake
// it or its current sleep elapses in real time.
func (s *Service) Poke() {
	s.poke()
}

// Run drains the heap, posting Fired events for each entry whose
// generation is still current when its deadline elapses, until Stop is
// called. It is meant to run on its own goroutine (§5).
func (s *Service) Run() {
	for {
		s.mu.Lock()
		var d time.Duration
		var ready *item
		if len(s.h) > 0 {
			next := s.h[0]
			now := s.now()
			if !next.deadline.After(now) {
				ready = heap.Pop(&s.h).(*item)
			} else {
				d = next.deadline.Sub(now)
			}
		} else {
			d = time.Hour
		}
		s.mu.Unlock()

		if ready != nil {
			s.mu.Lock()
			stale := s.generation[ready.name] != ready.generation
			if !stale {
				s.armedName[ready.name] = false
			}
			s.mu.Unlock()
			if stale {
				continue
			}
			select {
			case s.Events <- Fired{Name: ready.name, At: s.now()}:
			case <-s.stop:
				return
			}
			continue
		}

		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
		case <-s.stop:
			timer.Stop()
			return
		}
	}
}

// Stop terminates Run.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	close(s.stop)
}
