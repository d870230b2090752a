package resolve

import "github.com/google/uuid"

// MaxNameLength is the longest name the engine accepts, matching DNS's own
// 255-byte wire-format ceiling.
const MaxNameLength = 255

// Resolver is the interface a pluggable resolution backend implements.
// Resolve must eventually cause Engine.Completed (or the query-set /
// recurring equivalents) to be called exactly once for the query it was
// given, whether the lookup succeeds or fails, unless Resolve itself returns
// an error or a later Cancel succeeds, in which case it is never called.
type Resolver interface {
	Name() string
	Priority() int
	Resolve(q *Query) error
	Cancel(q *Query) error
}

// CapabilityReporter is an optional interface a Resolver may implement to
// declare that it does not actually support resolve or cancel (despite
// satisfying the Resolver interface at compile time, e.g. a decorator that
// wraps a half-implemented backend during development). Registering a
// backend that reports either capability false fails with
// ErrMissingCapability.
type CapabilityReporter interface {
	Capabilities() (resolve, cancel bool)
}

// Query carries one question through the engine: what is being asked
// (Name/RRType/RRClass), who is answering it (Backend), the caller's opaque
// UserData, the backend's private state, and — once resolution completes —
// the Result.
type Query struct {
	id uuid.UUID

	Name    string
	RRType  uint16
	RRClass uint16

	UserData any
	Backend  Resolver
	Callback func(*Query)

	backendData onceCell[any]
	result      onceCell[*Result]
}

func newQuery(name string, rrType, rrClass uint16, userData any, backend Resolver, callback func(*Query)) *Query {
	return &Query{
		id:       uuid.New(),
		Name:     name,
		RRType:   rrType,
		RRClass:  rrClass,
		UserData: userData,
		Backend:  backend,
		Callback: callback,
	}
}

// ID is an opaque identifier stable for the lifetime of the query, useful
// for log correlation.
func (q *Query) ID() uuid.UUID { return q.id }

// SetBackendData stores the backend's private per-query state. It may be
// called at most once; a second call returns ErrAlreadySet.
func (q *Query) SetBackendData(v any) error {
	return q.backendData.Set(v)
}

// BackendData returns the backend's private per-query state, if any was set.
func (q *Query) BackendData() (any, bool) {
	return q.backendData.Get()
}

// SetResult publishes the query's Result. It may be called at most once;
// once published the Result is treated as immutable.
func (q *Query) SetResult(r *Result) error {
	return q.result.Set(r)
}

// Result returns the published Result, if any.
func (q *Query) Result() (*Result, bool) {
	return q.result.Get()
}
