package resolve

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vectorpbx/dnsresolver/internal/records"
)

func TestRecurringReschedulesOnNonzeroTTL(t *testing.T) {
	fb := newFakeBackend("b", 1)
	var calls atomic.Int32
	fb.nextResult = func(q *Query) (*Result, error) {
		n := calls.Add(1)
		res, err := NewResult(false, false, 0, q.Name, []byte{1})
		if err != nil {
			return nil, err
		}
		ttl := uint32(0)
		if n == 1 {
			ttl = 1 // seconds, short for the test
		}
		res.AddRecord(testTTLRecord{ttl: ttl})
		return res, nil
	}
	e := newTestEngine(t, fb)

	fired := make(chan struct{}, 2)
	rq, err := e.ResolveRecurring("a.test", 1, 1, "ud", func(q *Query, ud any) {
		require.Equal(t, "ud", ud)
		fired <- struct{}{}
	})
	require.NoError(t, err)
	defer rq.Cancel()

	<-fired // first, immediate
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected reschedule after nonzero TTL")
	}
	require.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestRecurringStopsOnNXDOMAIN(t *testing.T) {
	fb := newFakeBackend("b", 1)
	fb.nextResult = func(q *Query) (*Result, error) {
		return NewResult(false, false, RCodeNXDOMAIN, q.Name, []byte{1})
	}
	e := newTestEngine(t, fb)

	fired := make(chan struct{}, 2)
	rq, err := e.ResolveRecurring("a.test", 1, 1, nil, func(q *Query, ud any) {
		fired <- struct{}{}
	})
	require.NoError(t, err)
	defer rq.Cancel()

	<-fired
	select {
	case <-fired:
		t.Fatal("recurring query should not reschedule after NXDOMAIN")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRecurringCancelStopsFutureFires(t *testing.T) {
	fb := newFakeBackend("b", 1)
	fb.nextResult = func(q *Query) (*Result, error) {
		res, err := NewResult(false, false, 0, q.Name, []byte{1})
		if err != nil {
			return nil, err
		}
		res.AddRecord(testTTLRecord{ttl: 1})
		return res, nil
	}
	e := newTestEngine(t, fb)

	var calls atomic.Int32
	rq, err := e.ResolveRecurring("a.test", 1, 1, nil, func(q *Query, ud any) {
		calls.Add(1)
	})
	require.NoError(t, err)

	require.NoError(t, rq.Cancel())
	time.Sleep(1500 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

type testTTLRecord struct{ ttl uint32 }

func (t testTTLRecord) Name() string       { return "x" }
func (t testTTLRecord) Type() records.Type { return 0 }
func (t testTTLRecord) TTL() uint32        { return t.ttl }
