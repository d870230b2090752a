package resolve

import (
	"fmt"
	"log/slog"
)

// Engine drives queries against whatever backend the Registry currently
// selects. A single Engine is shared by every caller; it holds no
// per-caller state beyond the Registry it was built with.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
}

// NewEngine builds an Engine over the given registry. A nil logger falls
// back to slog.Default().
func NewEngine(registry *Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, logger: logger}
}

// ActiveQuery is the caller-visible handle returned by ResolveAsync.
// Dropping it (letting it become unreachable) detaches the caller but does
// not cancel the underlying query — use ResolveCancel for that.
type ActiveQuery struct {
	query *Query
}

// ResolveAsync validates the request, selects the highest-priority backend,
// and asks it to resolve the query. The backend is responsible for
// eventually calling Engine.Completed on the returned Query.
func (e *Engine) ResolveAsync(name string, rrType, rrClass uint16, userData any, callback func(*Query)) (*ActiveQuery, error) {
	if err := validateQueryArgs(name, callback); err != nil {
		return nil, err
	}

	backend, ok := e.registry.Selected()
	if !ok {
		return nil, ErrNoResolver
	}

	q := newQuery(name, rrType, rrClass, userData, backend, callback)
	if err := backend.Resolve(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendError, err)
	}
	return &ActiveQuery{query: q}, nil
}

func validateQueryArgs(name string, callback func(*Query)) error {
	if name == "" {
		return fmt.Errorf("%w: name must be non-empty", ErrInvalidArgument)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrInvalidArgument, MaxNameLength)
	}
	if callback == nil {
		return fmt.Errorf("%w: callback must not be nil", ErrInvalidArgument)
	}
	return nil
}

// Completed is called by a backend once it has attached a Result to the
// query (via Query.SetResult). It re-sorts SRV/NAPTR records in place and
// invokes the caller's callback. No engine-internal lock is held while the
// callback runs.
func (e *Engine) Completed(q *Query) {
	if res, ok := q.Result(); ok {
		res.sortInPlace()
	} else {
		e.logger.Warn("backend called Completed without a result", "query", q.Name)
	}
	q.Callback(q)
}

// ResolveCancel asks the query's backend to cancel it. On success the
// backend guarantees the callback will not fire.
func (e *Engine) ResolveCancel(aq *ActiveQuery) error {
	if aq == nil || aq.query == nil {
		return fmt.Errorf("%w: nil active query", ErrInvalidArgument)
	}
	q := aq.query
	if err := q.Backend.Cancel(q); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendError, err)
	}
	return nil
}

// ResolveSync resolves a single query and blocks the calling goroutine until
// it completes. It is the only blocking entry point in this package.
func (e *Engine) ResolveSync(name string, rrType, rrClass uint16) (*Result, error) {
	done := make(chan *Result, 1)
	_, err := e.ResolveAsync(name, rrType, rrClass, nil, func(q *Query) {
		res, _ := q.Result()
		done <- res
	})
	if err != nil {
		return nil, err
	}
	res := <-done
	if res == nil {
		return nil, ErrEmptyResult
	}
	return res, nil
}
