package querylog

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/vectorpbx/dnsresolver/internal/resolve"
)

// completer is the subset of *resolve.Engine a backend calls once it has
// attached a Result to a query.
type completer interface {
	Completed(q *resolve.Query)
}

// RecordingBackend decorates a resolve.Resolver, timing every query from
// Resolve to Completed and appending an Entry to a Store. It is itself both
// a resolve.Resolver (standing in for the wrapped backend in the registry)
// and the completer the wrapped backend reports to, which is how it
// observes both ends of a query's lifetime. Store failures are logged and
// never affect resolution.
type RecordingBackend struct {
	inner resolve.Resolver
	next  completer
	store *Store

	logger *slog.Logger

	mu     sync.Mutex
	starts map[*resolve.Query]time.Time
}

// NewRecordingBackend builds a RecordingBackend that will report completions
// to next once it has logged them. The wrapped backend is supplied via
// SetInner, since the backend's own constructor typically needs the
// RecordingBackend as its completer before the backend itself exists.
func NewRecordingBackend(store *Store, next completer, logger *slog.Logger) *RecordingBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordingBackend{
		next:   next,
		store:  store,
		logger: logger,
		starts: make(map[*resolve.Query]time.Time),
	}
}

// SetInner attaches the backend this RecordingBackend decorates. It must be
// called before the backend is registered.
func (b *RecordingBackend) SetInner(inner resolve.Resolver) {
	b.inner = inner
}

func (b *RecordingBackend) Name() string  { return b.inner.Name() }
func (b *RecordingBackend) Priority() int { return b.inner.Priority() }

func (b *RecordingBackend) Resolve(q *resolve.Query) error {
	b.mu.Lock()
	b.starts[q] = time.Now()
	b.mu.Unlock()
	return b.inner.Resolve(q)
}

func (b *RecordingBackend) Cancel(q *resolve.Query) error {
	b.mu.Lock()
	delete(b.starts, q)
	b.mu.Unlock()
	return b.inner.Cancel(q)
}

// Completed logs the query's outcome and then delegates to the wrapped
// completer (typically the engine), exactly as the inner backend would have
// reported directly.
func (b *RecordingBackend) Completed(q *resolve.Query) {
	b.mu.Lock()
	start, ok := b.starts[q]
	delete(b.starts, q)
	b.mu.Unlock()
	if !ok {
		start = time.Now()
	}
	b.record(start, q)
	b.next.Completed(q)
}

func (b *RecordingBackend) record(start time.Time, q *resolve.Query) {
	e := Entry{
		QueriedAt: start,
		Name:      q.Name,
		RRType:    rrTypeName(q.RRType),
		Backend:   b.inner.Name(),
		Latency:   time.Since(start),
	}

	if res, ok := q.Result(); ok {
		e.RCode = rcodeName(res.RCode)
		e.Answers = len(res.Records)
	} else {
		e.RCode = "none"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.store.Record(ctx, e); err != nil {
		b.logger.Warn("failed to record query log entry", "name", q.Name, "error", err)
	}
}

func rrTypeName(t uint16) string {
	switch t {
	case 1:
		return "A"
	case 28:
		return "AAAA"
	case 33:
		return "SRV"
	case 35:
		return "NAPTR"
	case 16:
		return "TXT"
	default:
		return "TYPE" + strconv.Itoa(int(t))
	}
}

func rcodeName(rcode uint16) string {
	switch rcode {
	case 0:
		return "NOERROR"
	case resolve.RCodeNXDOMAIN:
		return "NXDOMAIN"
	case 2:
		return "SERVFAIL"
	default:
		return "RCODE" + strconv.Itoa(int(rcode))
	}
}
