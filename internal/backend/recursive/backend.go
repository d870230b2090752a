// Package recursive is the reference recursive-stub backend: it implements
// resolve.Resolver on top of github.com/miekg/dns, dispatching each query to
// the explicitly configured nameservers (Config.Nameservers; the resolv.conf
// and hosts paths in Config are not used to find nameservers, so with no
// explicit nameserver every Resolve fails) and feeding the raw wire answer
// back through internal/wire
// and internal/records so the engine sees the same typed records regardless
// of which backend produced them.
package recursive

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/vectorpbx/dnsresolver/internal/pool"
	"github.com/vectorpbx/dnsresolver/internal/records"
	"github.com/vectorpbx/dnsresolver/internal/resolve"
	"github.com/vectorpbx/dnsresolver/internal/wire"
)

// msgPool reuses *dns.Msg allocations across queries; every query on the hot
// path allocates one to hold the outgoing question.
var msgPool = pool.New(func() *dns.Msg { return new(dns.Msg) })

// DefaultEDNSUDPSize is the UDP payload size advertised via EDNS0, large
// enough to avoid truncation for typical SRV/NAPTR answer sets without
// inviting IP fragmentation.
const DefaultEDNSUDPSize = 4096

const exchangeTimeout = 5 * time.Second

// Completer is the subset of *resolve.Engine the backend needs: the hook a
// backend calls once it has attached a Result to a query.
type Completer interface {
	Completed(q *resolve.Query)
}

// Backend is the recursive-stub resolve.Resolver implementation.
type Backend struct {
	name     string
	priority int

	cfg       Config
	client    *dns.Client
	health    *nameserverHealth
	completer Completer
	logger    *slog.Logger
	ednsSize  uint16

	mu      sync.Mutex
	cancels map[*resolve.Query]context.CancelFunc
}

// New builds a Backend from a resolved Config. priority is the value the
// registry sorts on (lower = tried first).
func New(name string, priority int, cfg Config, completer Completer, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		name:      name,
		priority:  priority,
		cfg:       cfg,
		client:    &dns.Client{Timeout: exchangeTimeout},
		health:    newNameserverHealth(),
		completer: completer,
		logger:    logger,
		ednsSize:  DefaultEDNSUDPSize,
		cancels:   make(map[*resolve.Query]context.CancelFunc),
	}
}

func (b *Backend) Name() string  { return b.name }
func (b *Backend) Priority() int { return b.priority }

// Resolve submits the query to a background goroutine that performs the
// actual exchange(s); Resolve itself never blocks. Each query gets its own
// goroutine; together they stand in for the reference implementation's
// dedicated I/O thread.
func (b *Backend) Resolve(q *resolve.Query) error {
	if len(b.cfg.Nameservers) == 0 {
		return fmt.Errorf("recursive: no nameservers configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := q.SetBackendData(cancel); err != nil {
		cancel()
		return fmt.Errorf("recursive: %w", err)
	}

	b.mu.Lock()
	b.cancels[q] = cancel
	b.mu.Unlock()

	go b.run(ctx, q)
	return nil
}

func (b *Backend) run(ctx context.Context, q *resolve.Query) {
	defer b.cleanup(q)

	msg := msgPool.Get()
	*msg = dns.Msg{}
	defer msgPool.Put(msg)

	msg.SetQuestion(dns.Fqdn(q.Name), q.RRType)
	msg.Question[0].Qclass = q.RRClass
	msg.SetEdns0(b.ednsSize, false)

	resp, err := b.exchangeWithFallback(ctx, msg)
	if ctx.Err() != nil {
		// Cancelled: the contract is that the callback must not fire.
		return
	}
	if err != nil {
		b.logger.Warn("recursive resolve failed", "name", q.Name, "error", err)
		b.completer.Completed(q)
		return
	}

	if err := b.populateResult(q, resp); err != nil {
		b.logger.Warn("recursive resolve: malformed answer", "name", q.Name, "error", err)
	}
	b.completer.Completed(q)
}

// exchangeWithFallback tries each healthy nameserver in order, then the ones
// in cooldown after them, retrying over TCP
// if the UDP response is truncated.
func (b *Backend) exchangeWithFallback(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	candidates := b.health.orderedCandidates(b.cfg.Nameservers)

	var lastErr error
	for _, ns := range candidates {
		addr := withDefaultPort(ns)
		resp, _, err := b.client.ExchangeContext(ctx, msg, addr)
		if err != nil {
			lastErr = err
			b.health.markFailed(ns)
			continue
		}
		if resp.Truncated {
			tcpClient := &dns.Client{Net: "tcp", Timeout: exchangeTimeout}
			tcpResp, _, tcpErr := tcpClient.ExchangeContext(ctx, msg, addr)
			if tcpErr == nil {
				resp = tcpResp
			}
		}
		b.health.markHealthy(ns)
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("recursive: no nameserver answered")
	}
	return nil, lastErr
}

func withDefaultPort(ns string) string {
	if _, _, err := net.SplitHostPort(ns); err == nil {
		return ns
	}
	return net.JoinHostPort(ns, "53")
}

// populateResult re-packs resp to raw wire bytes and parses it through
// internal/wire + internal/records, exactly like the engine's own result
// construction path — SRV/NAPTR/TXT/A/AAAA get their typed constructors,
// anything else becomes a records.GenericRecord. A record is only dropped
// here if its RDATA itself fails to parse.
func (b *Backend) populateResult(q *resolve.Query, resp *dns.Msg) error {
	raw, err := resp.Pack()
	if err != nil {
		return fmt.Errorf("packing answer: %w", err)
	}

	canonical := q.Name
	if len(resp.Question) > 0 {
		canonical = wire.NormalizeName(resp.Question[0].Name)
	}

	res, err := resolve.NewResult(false, false, uint16(resp.Rcode), canonical, raw)
	if err != nil {
		return err
	}
	if err := q.SetResult(res); err != nil {
		return err
	}

	off := 0
	if _, err := wire.ParseHeader(raw, &off); err != nil {
		return err
	}
	if err := wire.SkipQuestions(raw, &off, len(resp.Question)); err != nil {
		return err
	}
	for range resp.Answer {
		rr, rdataOff, err := wire.ParseRRHeader(raw, &off)
		if err != nil {
			return err
		}
		rec, err := records.Parse(raw, rr, rdataOff)
		if err != nil {
			b.logger.Debug("dropping malformed record", "name", rr.Name, "error", err)
			continue
		}
		res.AddRecord(rec)
	}
	return nil
}

// Cancel asks the backend to stop the in-flight exchange for q. Success
// means the backend guarantees Completed will not be called for this query.
func (b *Backend) Cancel(q *resolve.Query) error {
	b.mu.Lock()
	cancel, ok := b.cancels[q]
	if ok {
		delete(b.cancels, q)
	}
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("recursive: query not in flight")
	}
	cancel()
	return nil
}

func (b *Backend) cleanup(q *resolve.Query) {
	b.mu.Lock()
	delete(b.cancels, q)
	b.mu.Unlock()
}

// HealthSnapshot exposes nameserver health for the admin API.
func (b *Backend) HealthSnapshot() []Snapshot {
	return b.health.snapshot(b.cfg.Nameservers)
}
