package resolve

import (
	"fmt"
	"sync"
)

// fakeBackend is a test double that completes synchronously (inline, from
// inside Resolve) unless configured to defer completion until TriggerAll is
// called, which lets tests exercise cancel-before-completion paths.
type fakeBackend struct {
	name     string
	priority int

	mu      sync.Mutex
	pending []*Query
	manual  bool

	nextResult func(q *Query) (*Result, error)
	cancelErr  error
	cancelled  map[*Query]bool
}

func newFakeBackend(name string, priority int) *fakeBackend {
	return &fakeBackend{name: name, priority: priority, cancelled: map[*Query]bool{}}
}

func (f *fakeBackend) Name() string  { return f.name }
func (f *fakeBackend) Priority() int { return f.priority }

func (f *fakeBackend) Resolve(q *Query) error {
	f.mu.Lock()
	manual := f.manual
	f.mu.Unlock()

	if manual {
		f.mu.Lock()
		f.pending = append(f.pending, q)
		f.mu.Unlock()
		return nil
	}

	f.complete(q)
	return nil
}

func (f *fakeBackend) complete(q *Query) {
	var res *Result
	var err error
	if f.nextResult != nil {
		res, err = f.nextResult(q)
	} else {
		res, err = NewResult(false, false, 0, q.Name, []byte{1, 2, 3})
	}
	if err == nil && res != nil {
		_ = q.SetResult(res)
	}
	engineCompletedFor(q)
}

// engineCompletedFor lets the fake backend invoke the engine's completion
// path without holding an *Engine reference; it mirrors what Engine.Completed
// does (sort-in-place then callback) since tests construct backends before
// the engine exists.
func engineCompletedFor(q *Query) {
	if res, ok := q.Result(); ok {
		res.sortInPlace()
	}
	q.Callback(q)
}

func (f *fakeBackend) Cancel(q *Query) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.pending {
		if p == q {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			f.cancelled[q] = true
			return nil
		}
	}
	f.cancelled[q] = true
	return nil
}

// TriggerAll completes every pending manual query.
func (f *fakeBackend) TriggerAll() {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, q := range pending {
		f.complete(q)
	}
}

type erroringBackend struct {
	name string
}

func (e *erroringBackend) Name() string       { return e.name }
func (e *erroringBackend) Priority() int      { return 100 }
func (e *erroringBackend) Resolve(q *Query) error { return fmt.Errorf("boom") }
func (e *erroringBackend) Cancel(q *Query) error  { return fmt.Errorf("boom") }
