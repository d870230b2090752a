package sipresolve

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vectorpbx/dnsresolver/internal/records"
	"github.com/vectorpbx/dnsresolver/internal/resolve"
	"github.com/vectorpbx/dnsresolver/internal/wire"
)

// scriptedBackend answers each query by name, synchronously, from a
// caller-supplied script. An address record is returned only to a query of
// its own type (A or AAAA).
type scriptedBackend struct {
	mu     sync.Mutex
	script map[string][]records.Record
}

func newScriptedBackend() *scriptedBackend {
	return &scriptedBackend{script: map[string][]records.Record{}}
}

func (b *scriptedBackend) Name() string  { return "scripted" }
func (b *scriptedBackend) Priority() int { return 0 }

func (b *scriptedBackend) Resolve(q *resolve.Query) error {
	b.mu.Lock()
	recs := b.script[q.Name]
	b.mu.Unlock()

	res, err := resolve.NewResult(false, false, 0, q.Name, []byte{0})
	if err != nil {
		return err
	}
	for _, r := range recs {
		if a, ok := r.(records.AddressRecord); ok && uint16(a.Type()) != q.RRType {
			continue
		}
		res.AddRecord(r)
	}
	if err := q.SetResult(res); err != nil {
		return err
	}
	q.Callback(q)
	return nil
}

func (b *scriptedBackend) Cancel(q *resolve.Query) error { return nil }

func newTestEngine(t *testing.T, backend resolve.Resolver) *resolve.Engine {
	t.Helper()
	reg := resolve.NewRegistry()
	require.NoError(t, reg.Register(backend))
	return resolve.NewEngine(reg, nil)
}

func resolveSyncForTest(t *testing.T, r *Resolver, target Target) ([]Entry, error) {
	t.Helper()
	var out []Entry
	var resErr error
	done := make(chan struct{})
	r.Resolve(context.Background(), target, func(entries []Entry, err error) {
		out, resErr = entries, err
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resolution")
	}
	return out, resErr
}

func TestResolveLiteralIPv4(t *testing.T) {
	engine := newTestEngine(t, newScriptedBackend())
	r := New(engine, nil)

	out, err := resolveSyncForTest(t, r, Target{Host: "192.0.2.10", Port: 5060})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, TransportUDP, out[0].Transport)
	require.Equal(t, uint16(5060), out[0].Port)
	require.Equal(t, netip.MustParseAddr("192.0.2.10"), out[0].Addr)
}

func TestResolveLiteralIPv6UpgradesTransport(t *testing.T) {
	engine := newTestEngine(t, newScriptedBackend())
	r := New(engine, nil, WithMaxAddresses(4))

	out, err := resolveSyncForTest(t, r, Target{Host: "2001:db8::1", Secure: true})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, TransportUDP6, out[0].Transport)
	require.Equal(t, uint16(5060), out[0].Port)
}

func TestResolveSRVFollowupOverridesDirectAddress(t *testing.T) {
	backend := newScriptedBackend()
	backend.script["_sip._udp.example.com"] = []records.Record{
		records.SRVRecord{Priority: 0, Weight: 0, Port: 6060, Target: "sipserver.example.com"},
	}
	backend.script["sipserver.example.com"] = []records.Record{
		addressRecordFor(t, "192.0.2.50"),
	}
	backend.script["example.com"] = []records.Record{
		addressRecordFor(t, "192.0.2.99"),
	}

	engine := newTestEngine(t, backend)
	r := New(engine, nil)

	out, err := resolveSyncForTest(t, r, Target{Host: "example.com"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, TransportUDP, out[0].Transport)
	require.Equal(t, uint16(6060), out[0].Port)
	require.Equal(t, netip.MustParseAddr("192.0.2.50"), out[0].Addr)
}

func TestResolveNAPTRFollowupOverridesSRV(t *testing.T) {
	backend := newScriptedBackend()
	backend.script["example.com"] = []records.Record{
		records.NAPTRRecord{
			Order: 10, Preference: 0,
			Flags: "s", Service: "SIP+D2U",
			Replacement: "udpserver.example.com",
		},
	}
	backend.script["_sip._udp.example.com"] = []records.Record{
		records.SRVRecord{Priority: 0, Weight: 0, Port: 5555, Target: "wrong.example.com"},
	}
	backend.script["_sip._udp.udpserver.example.com"] = []records.Record{
		records.SRVRecord{Priority: 0, Weight: 0, Port: 7070, Target: "real.example.com"},
	}
	backend.script["real.example.com"] = []records.Record{
		addressRecordFor(t, "192.0.2.77"),
	}
	backend.script["wrong.example.com"] = []records.Record{
		addressRecordFor(t, "192.0.2.1"),
	}

	engine := newTestEngine(t, backend)
	r := New(engine, nil)

	out, err := resolveSyncForTest(t, r, Target{Host: "example.com"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, uint16(7070), out[0].Port)
	require.Equal(t, netip.MustParseAddr("192.0.2.77"), out[0].Addr)
}

func TestResolveNoAnswer(t *testing.T) {
	engine := newTestEngine(t, newScriptedBackend())
	r := New(engine, nil)

	out, err := resolveSyncForTest(t, r, Target{Host: "nowhere.example.com"})
	require.ErrorIs(t, err, ErrNoAnswer)
	require.Empty(t, out)
}

func addressRecordFor(t *testing.T, addr string) records.AddressRecord {
	t.Helper()
	raw := netip.MustParseAddr(addr).AsSlice()
	rr := wire.RRHeader{Name: "test.", TTL: 300}
	a, err := records.ParseAddress(raw, rr, 0, len(raw), records.TypeA)
	require.NoError(t, err)
	return a
}
