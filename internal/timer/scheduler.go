// Package timer implements the single shared scheduler the recurring-query
// engine uses instead of spawning one time.Timer per outstanding recurring
// query: a goroutine services a min-heap of pending deadlines and fires
// callbacks as they come due. This keeps recurring-query fan-out (thousands
// of entries, each with its own TTL-derived deadline) from turning into
// thousands of idle runtime timers.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Token identifies a scheduled callback so it can be cancelled before it
// fires. A zero Token is never issued by Scheduler.
type Token uint64

type entry struct {
	token Token
	at    time.Time
	fn    func()
	index int // heap index, maintained by container/heap
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *entryHeap) Push(x interface{}) { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler runs pending callbacks as their deadlines come due. The zero
// value is not usable; construct with New.
type Scheduler struct {
	mu      sync.Mutex
	heap    entryHeap
	entries map[Token]*entry
	nextTok Token
	wake    chan struct{}
	now     func() time.Time

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Scheduler and starts its background goroutine. Call Close to
// stop it; pending callbacks are discarded on Close, not fired.
func New() *Scheduler {
	s := &Scheduler{
		entries: make(map[Token]*entry),
		wake:    make(chan struct{}, 1),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	heap.Init(&s.heap)
	go s.run()
	return s
}

// At schedules fn to run at (or shortly after) the given time, returning a
// Token that can be passed to Cancel. fn runs on the scheduler's own
// goroutine, so it must not block; long work should be handed off (e.g. to a
// worker pool) rather than run inline.
func (s *Scheduler) At(at time.Time, fn func()) Token {
	s.mu.Lock()
	s.nextTok++
	tok := s.nextTok
	e := &entry{token: tok, at: at, fn: fn}
	heap.Push(&s.heap, e)
	s.entries[tok] = e
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return tok
}

// After is a convenience wrapper around At using the scheduler's clock.
func (s *Scheduler) After(d time.Duration, fn func()) Token {
	return s.At(s.now().Add(d), fn)
}

// Cancel prevents a previously scheduled callback from firing. It reports
// whether the token was still pending (false if it already fired or was
// already cancelled).
func (s *Scheduler) Cancel(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tok]
	if !ok {
		return false
	}
	heap.Remove(&s.heap, e.index)
	delete(s.entries, tok)
	return true
}

// Close stops the scheduler's goroutine. It is safe to call more than once.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Scheduler) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		var waitFor time.Duration
		if len(s.heap) == 0 {
			waitFor = time.Hour
		} else {
			waitFor = s.heap[0].at.Sub(s.now())
			if waitFor < 0 {
				waitFor = 0
			}
		}
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(waitFor)

		select {
		case <-s.done:
			return
		case <-s.wake:
			continue
		case <-timer.C:
			s.fireDue()
		}
	}
}

func (s *Scheduler) fireDue() {
	now := s.now()
	var due []*entry
	s.mu.Lock()
	for len(s.heap) > 0 && !s.heap[0].at.After(now) {
		e := heap.Pop(&s.heap).(*entry)
		delete(s.entries, e.token)
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		e.fn()
	}
}
