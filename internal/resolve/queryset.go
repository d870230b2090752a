package resolve

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type querySetEntry struct {
	query   *Query
	started atomic.Bool
}

// QuerySet is a fan-out of independent queries that completes with a single
// aggregate callback once every member has either completed or been
// cancelled.
type QuerySet struct {
	mu         sync.Mutex
	entries    []*querySetEntry
	userData   any
	completion func(*QuerySet, any)

	inProgress     atomic.Bool
	completedCount atomic.Int64
	cancelledCount atomic.Int64
	fired          atomic.Bool
}

// NewQuerySet creates an empty, not-yet-started query set.
func NewQuerySet() *QuerySet {
	return &QuerySet{}
}

// Add appends a new query to the set. It fails with ErrAlreadyStarted once
// ResolveAsync has been called.
func (s *QuerySet) Add(name string, rrType, rrClass uint16) error {
	if s.inProgress.Load() {
		return ErrAlreadyStarted
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inProgress.Load() {
		return ErrAlreadyStarted
	}
	s.entries = append(s.entries, &querySetEntry{query: &Query{Name: name, RRType: rrType, RRClass: rrClass}})
	return nil
}

// Len returns the number of queries currently in the set.
func (s *QuerySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns the set's underlying queries in add-order, the order the
// SIP resolver relies on to establish record preference.
func (s *QuerySet) Entries() []*Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Query, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.query
	}
	return out
}

// QuerySetResolveAsync latches the set in progress and issues every member
// query against the currently selected backend. completion fires exactly
// once, when every query has completed or been cancelled, unless every
// query was cancelled (in which case it is suppressed).
func (e *Engine) QuerySetResolveAsync(s *QuerySet, userData any, completion func(*QuerySet, any)) error {
	if completion == nil {
		return fmt.Errorf("%w: completion callback must not be nil", ErrInvalidArgument)
	}
	if !s.inProgress.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	s.userData = userData
	s.completion = completion

	total := int64(s.Len())
	if total == 0 {
		s.maybeFire(total)
		return nil
	}

	backend, ok := e.registry.Selected()
	if !ok {
		// No backend: every query synthetically completes empty.
		for _, entry := range s.entries {
			e.finishSetEntry(s, entry, total)
		}
		return nil
	}

	for _, entry := range s.entries {
		entry.query.Backend = backend
		entry.query.Callback = func(q *Query) {
			e.finishSetEntry(s, entry, total)
		}
		entry.started.Store(true)
		if err := backend.Resolve(entry.query); err != nil {
			e.finishSetEntry(s, entry, total)
		}
	}
	return nil
}

func (e *Engine) finishSetEntry(s *QuerySet, entry *querySetEntry, total int64) {
	if res, ok := entry.query.Result(); ok {
		res.sortInPlace()
	}
	completed := s.completedCount.Add(1)
	s.maybeFireAt(completed, total)
}

func (s *QuerySet) maybeFire(total int64) {
	s.maybeFireAt(s.completedCount.Load()+s.cancelledCount.Load(), total)
}

func (s *QuerySet) maybeFireAt(_ int64, total int64) {
	if s.completedCount.Load()+s.cancelledCount.Load() != total {
		return
	}
	if !s.fired.CompareAndSwap(false, true) {
		return
	}
	if s.cancelledCount.Load() == total && total > 0 {
		return
	}
	if s.completion != nil {
		s.completion(s, s.userData)
	}
}

// QuerySetResolveSync blocks until the set completes, returning the
// completed queries in add-order.
func (e *Engine) QuerySetResolveSync(s *QuerySet) ([]*Query, error) {
	done := make(chan struct{}, 1)
	err := e.QuerySetResolveAsync(s, nil, func(_ *QuerySet, _ any) {
		done <- struct{}{}
	})
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, nil
	}
	<-done
	return s.Entries(), nil
}

// QuerySetResolveCancel cancels every started query in the set. For
// queries that never started, they count as cancelled directly. Returns
// nil only if every query was successfully cancelled.
func (e *Engine) QuerySetResolveCancel(s *QuerySet) error {
	total := int64(s.Len())
	allCancelled := true
	for _, entry := range s.entries {
		if !entry.started.Load() {
			s.cancelledCount.Add(1)
			continue
		}
		if err := entry.query.Backend.Cancel(entry.query); err != nil {
			allCancelled = false
			continue
		}
		s.cancelledCount.Add(1)
		s.maybeFireAt(0, total)
	}
	s.maybeFireAt(0, total)
	if !allCancelled {
		return ErrBackendError
	}
	return nil
}
