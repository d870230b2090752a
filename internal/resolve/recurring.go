package resolve

import (
	"fmt"
	"sync"
	"time"

	"github.com/vectorpbx/dnsresolver/internal/timer"
)

// MaxRecurringInterval caps the re-schedule delay, mirroring the source's
// INT_MAX/1000-second clamp so a huge TTL can't overflow a timer duration.
const MaxRecurringInterval = (1<<31 - 1) * time.Second / 1000

// RecurringQuery re-issues a query at the lowest TTL of its last successful
// result. At most one of its in-flight query and pending timer exists at any
// moment; once cancelled, neither is recreated.
type RecurringQuery struct {
	name    string
	rrType  uint16
	rrClass uint16
	userData any
	callback func(*Query, any)

	engine *Engine

	mu        sync.Mutex
	active    *ActiveQuery
	timerTok  *timer.Token
	cancelled bool
}

// ResolveRecurring validates the request and fires the first lookup
// immediately. The shared scheduler must already exist (i.e. at least one
// backend must have been registered).
func (e *Engine) ResolveRecurring(name string, rrType, rrClass uint16, userData any, callback func(*Query, any)) (*RecurringQuery, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name must be non-empty", ErrInvalidArgument)
	}
	if callback == nil {
		return nil, fmt.Errorf("%w: callback must not be nil", ErrInvalidArgument)
	}
	if e.registry.Scheduler() == nil {
		return nil, fmt.Errorf("%w: no backend registered, no timer scheduler available", ErrNoResolver)
	}

	rq := &RecurringQuery{
		name:     name,
		rrType:   rrType,
		rrClass:  rrClass,
		userData: userData,
		callback: callback,
		engine:   e,
	}

	if err := rq.fire(); err != nil {
		return nil, err
	}
	return rq, nil
}

func (rq *RecurringQuery) fire() error {
	aq, err := rq.engine.ResolveAsync(rq.name, rq.rrType, rq.rrClass, nil, rq.onComplete)
	if err != nil {
		return err
	}
	rq.mu.Lock()
	// A synchronously-completing backend (or one racing us) may have already
	// invoked onComplete before we get here; only track the handle if the
	// query is still genuinely in flight.
	if _, done := aq.query.Result(); !done {
		rq.active = aq
	}
	rq.mu.Unlock()
	return nil
}

// onComplete implements the design note's "pass both the query and the
// user's data explicitly" pattern: rather than mutating Query.UserData in
// place, the caller's data is handed to the callback as a second argument.
func (rq *RecurringQuery) onComplete(q *Query) {
	rq.callback(q, rq.userData)

	rq.mu.Lock()
	defer rq.mu.Unlock()
	rq.active = nil
	if rq.cancelled {
		return
	}

	res, ok := q.Result()
	if !ok {
		return
	}
	ttl := res.LowestTTL()
	if ttl == 0 {
		return
	}

	delay := time.Duration(ttl) * time.Second
	if delay > MaxRecurringInterval {
		delay = MaxRecurringInterval
	}
	sched := rq.engine.registry.Scheduler()
	tok := sched.After(delay, func() {
		rq.mu.Lock()
		cancelled := rq.cancelled
		rq.mu.Unlock()
		if cancelled {
			return
		}
		_ = rq.fire()
	})
	rq.timerTok = &tok
}

// Cancel stops the recurring query: any pending timer is removed and the
// in-flight query (if any) is asked to cancel. It returns the cancel
// backend's success/failure for the in-flight query, or nil if there was
// none in flight.
func (rq *RecurringQuery) Cancel() error {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	rq.cancelled = true

	if rq.timerTok != nil {
		sched := rq.engine.registry.Scheduler()
		if sched != nil {
			sched.Cancel(*rq.timerTok)
		}
		rq.timerTok = nil
	}

	if rq.active != nil {
		err := rq.engine.ResolveCancel(rq.active)
		rq.active = nil
		return err
	}
	return nil
}
