// Package sipresolve implements the RFC 3263 SIP server location
// algorithm on top of internal/resolve: given a target host, port and
// transport preference, it composes NAPTR/SRV/A/AAAA queries, resolves
// them in waves via a query set, and produces a preference-ordered list of
// concrete (transport, address, port) destinations.
package sipresolve

import (
	"context"
	"log/slog"
	"net/netip"
	"strings"

	"github.com/qmuntal/stateless"

	"github.com/vectorpbx/dnsresolver/internal/records"
	"github.com/vectorpbx/dnsresolver/internal/resolve"
)

const (
	stateStart     = "start"
	stateComposing = "composing"
	stateResolving = "resolving"
	stateDone      = "done"

	triggerLiteral = "literal"
	triggerInfer   = "infer"
	triggerComposed = "composed"
	triggerMore     = "more"
	triggerExhausted = "exhausted"
)

// DefaultMaxAddresses bounds the output list when the caller doesn't
// specify one.
const DefaultMaxAddresses = 12

// Resolver drives RFC 3263 target resolution for a single consumer. It is
// safe for concurrent use; each call to Resolve runs its own state machine
// instance.
type Resolver struct {
	engine      *resolve.Engine
	probe       TransportProbe
	maxAddr     int
	dispatch    func(func())
	logger      *slog.Logger
}

// Option configures a Resolver at construction time.
type Option func(*Resolver)

// WithTransportProbe overrides the default (all transports available)
// probe with one backed by the real SIP transport layer.
func WithTransportProbe(p TransportProbe) Option {
	return func(r *Resolver) { r.probe = p }
}

// WithMaxAddresses overrides DefaultMaxAddresses.
func WithMaxAddresses(n int) Option {
	return func(r *Resolver) { r.maxAddr = n }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New builds a Resolver. dispatch is how the caller's completion callback
// is delivered — it must post onto the SIP layer's own task queue rather
// than run inline on whatever goroutine finished the last DNS query.
func New(engine *resolve.Engine, dispatch func(func()), opts ...Option) *Resolver {
	r := &Resolver{
		engine:   engine,
		probe:    AllTransportsAvailable{},
		maxAddr:  DefaultMaxAddresses,
		dispatch: dispatch,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// queryMeta is bookkeeping kept alongside each resolve.QuerySet entry, in
// the same add-order the query set preserves, so a round's results can be
// matched back to why they were asked.
type queryMeta struct {
	kind      string // "naptr", "srv", "addr"
	tier      int    // 0 = naptr-derived, 1 = srv-derived, 2 = direct address
	transport Transport
	port      uint16
}

// run holds the mutable state threaded through one Resolve call's state
// machine instance.
type run struct {
	target    Target
	transport Transport
	probe     TransportProbe

	metas   []queryMeta
	pending []pendingQuery

	latchedOrder    *uint16
	candidates      [3][]Entry // indexed by tier
	callback        func([]Entry, error)
}

type pendingQuery struct {
	name string
	typ  uint16
	meta queryMeta
}

// Resolve runs RFC 3263 resolution for target and invokes cb, via r's
// dispatch func, with the resulting address list, or with ErrNoAnswer when
// no address was found. Query failures are logged and count as empty
// answers; they are not passed to cb.
func (r *Resolver) Resolve(ctx context.Context, target Target, cb func([]Entry, error)) {
	go r.resolveSync(ctx, target, cb)
}

func (r *Resolver) resolveSync(ctx context.Context, target Target, cb func([]Entry, error)) {
	rn := &run{target: target, probe: r.probe, callback: cb}

	sm := stateless.NewStateMachine(stateStart)
	sm.Configure(stateStart).
		Permit(triggerLiteral, stateDone).
		Permit(triggerInfer, stateComposing)

	sm.Configure(stateComposing).
		OnEntryFrom(triggerInfer, func(ctx context.Context, _ ...any) error {
			r.inferTransport(rn)
			queries, metas := r.composeInitial(rn)
			rn.pending = nil
			if len(queries) == 0 {
				return sm.FireCtx(ctx, triggerExhausted)
			}
			r.runRound(rn, queries, metas)
			return sm.FireCtx(ctx, triggerComposed)
		}).
		Permit(triggerComposed, stateResolving).
		Permit(triggerExhausted, stateDone)

	sm.Configure(stateResolving).
		OnEntry(func(ctx context.Context, _ ...any) error {
			queries, metas := r.drainPending(rn)
			if len(queries) == 0 {
				return sm.FireCtx(ctx, triggerExhausted)
			}
			r.runRound(rn, queries, metas)
			if len(rn.pending) > 0 {
				return sm.FireCtx(ctx, triggerMore)
			}
			return sm.FireCtx(ctx, triggerExhausted)
		}).
		PermitReentry(triggerMore).
		Permit(triggerExhausted, stateDone)

	sm.Configure(stateDone).
		OnEntry(func(ctx context.Context, _ ...any) error {
			r.finish(rn)
			return nil
		})

	if addr, ok := literalAddr(target.Host); ok {
		r.emitLiteral(rn, addr)
		_ = sm.FireCtx(ctx, triggerLiteral)
		return
	}
	_ = sm.FireCtx(ctx, triggerInfer)
}

// literalAddr parses host as a literal IPv4/IPv6 address.
func literalAddr(host string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}

// emitLiteral implements RFC 3263 step 1: a literal IP short-circuits
// straight to a single output entry.
func (r *Resolver) emitLiteral(rn *run, addr netip.Addr) {
	transport := rn.target.Transport
	if transport == TransportUnspecified {
		transport = TransportUDP
	}
	if addr.Is6() {
		transport = transport.toIPv6()
	}
	port := uint16(rn.target.Port)
	if port == 0 {
		port = transport.defaultPort()
	}
	rn.candidates[2] = append(rn.candidates[2], Entry{Transport: transport, Addr: addr, Port: port})
}

// inferTransport implements RFC 3263 step 2.
func (r *Resolver) inferTransport(rn *run) {
	t := rn.target.Transport
	if t == TransportUnspecified {
		switch {
		case rn.target.Secure:
			t = TransportTLS
		case rn.target.Reliable:
			t = TransportTCP
		case rn.target.Port != 0:
			t = TransportUDP
		default:
			t = TransportUnspecified
		}
	}
	if addr, err := netip.ParseAddr(rn.target.Host); err == nil && addr.Is6() {
		t = t.toIPv6()
	}
	rn.transport = t
}

// composeInitial implements RFC 3263 step 3.
func (r *Resolver) composeInitial(rn *run) ([]pendingQuery, []queryMeta) {
	var queries []pendingQuery

	if rn.target.Port == 0 {
		queries = append(queries, pendingQuery{
			name: rn.target.Host,
			typ:  uint16(records.TypeNAPTR),
			meta: queryMeta{kind: "naptr", tier: 0},
		})
	}

	for _, svc := range sipServices {
		if !r.probe.Available(svc.transport) {
			continue
		}
		if rn.transport != TransportUnspecified && baseTransport(rn.transport) != svc.transport {
			continue
		}
		queries = append(queries, pendingQuery{
			name: svc.label + "." + rn.target.Host,
			typ:  uint16(records.TypeSRV),
			meta: queryMeta{kind: "srv", tier: 1, transport: svc.transport, port: uint16(rn.target.Port)},
		})
	}

	addrTransport := rn.transport
	if addrTransport == TransportUnspecified {
		addrTransport = TransportUDP
	}
	if r.probe.Available(addrTransport) {
		queries = append(queries, pendingQuery{
			name: rn.target.Host,
			typ:  1, // A
			meta: queryMeta{kind: "addr", tier: 2, transport: rn.transport, port: uint16(rn.target.Port)},
		})
	}
	if r.probe.Available(addrTransport.toIPv6()) {
		queries = append(queries, pendingQuery{
			name: rn.target.Host,
			typ:  28, // AAAA
			meta: queryMeta{kind: "addr", tier: 2, transport: rn.transport, port: uint16(rn.target.Port)},
		})
	}

	metas := make([]queryMeta, len(queries))
	for i, q := range queries {
		metas[i] = q.meta
	}
	return queries, metas
}

func baseTransport(t Transport) Transport {
	switch t {
	case TransportUDP6:
		return TransportUDP
	case TransportTCP6:
		return TransportTCP
	case TransportTLS6:
		return TransportTLS
	default:
		return t
	}
}

// runRound issues queries as a query set, blocks for the wave to complete,
// and walks the results in add-order (the engine's query set preserves
// add-order), implementing steps 4-6: follow-up generation and the NAPTR
// strict-order tie-break. Generated follow-ups are appended to rn.pending
// for the next round.
func (r *Resolver) runRound(rn *run, queries []pendingQuery, metas []queryMeta) {
	set := resolve.NewQuerySet()
	for _, q := range queries {
		if err := set.Add(q.name, q.typ, 1); err != nil {
			r.logger.Warn("sipresolve: could not add query", "name", q.name, "error", err)
			return
		}
	}

	done, err := r.engine.QuerySetResolveSync(set)
	if err != nil {
		r.logger.Warn("sipresolve: query set failed", "error", err)
		return
	}

	for i, q := range done {
		if i >= len(metas) {
			break
		}
		meta := metas[i]
		res, ok := q.Result()
		if !ok {
			continue
		}
		r.handleResult(rn, meta, res)
	}
}

func (r *Resolver) handleResult(rn *run, meta queryMeta, res *resolve.Result) {
	switch meta.kind {
	case "naptr":
		for _, rec := range res.Records {
			n, ok := rec.(records.NAPTRRecord)
			if !ok {
				continue
			}
			if !strings.EqualFold(n.Flags, "s") {
				continue
			}
			transport, ok := naptrServiceTransport[strings.ToLower(n.Service)]
			if !ok || n.Replacement == "" {
				continue
			}
			if rn.latchedOrder != nil && *rn.latchedOrder != n.Order {
				continue
			}
			order := n.Order
			rn.latchedOrder = &order

			rn.pending = append(rn.pending, pendingQuery{
				name: naptrSRVPrefix(transport) + n.Replacement,
				typ:  uint16(records.TypeSRV),
				meta: queryMeta{kind: "srv", tier: 0, transport: transport},
			})
		}
	case "srv":
		for _, rec := range res.Records {
			s, ok := rec.(records.SRVRecord)
			if !ok {
				continue
			}
			rn.pending = append(rn.pending,
				pendingQuery{name: s.Target, typ: 1, meta: queryMeta{kind: "addr", tier: meta.tier, transport: meta.transport, port: s.Port}},
				pendingQuery{name: s.Target, typ: 28, meta: queryMeta{kind: "addr", tier: meta.tier, transport: meta.transport, port: s.Port}},
			)
		}
	case "addr":
		for _, rec := range res.Records {
			a, ok := rec.(records.AddressRecord)
			if !ok {
				continue
			}
			transport := meta.transport
			if transport == TransportUnspecified {
				transport = TransportUDP
			}
			if a.Addr.Is6() {
				transport = transport.toIPv6()
			}
			port := meta.port
			if port == 0 {
				port = transport.defaultPort()
			}
			rn.candidates[meta.tier] = append(rn.candidates[meta.tier], Entry{Transport: transport, Addr: a.Addr, Port: port})
		}
	}
}

func naptrSRVPrefix(t Transport) string {
	switch t {
	case TransportTLS:
		return "_sips._tcp."
	case TransportTCP:
		return "_sip._tcp."
	default:
		return "_sip._udp."
	}
}

func (r *Resolver) drainPending(rn *run) ([]pendingQuery, []queryMeta) {
	queries := rn.pending
	rn.pending = nil
	metas := make([]queryMeta, len(queries))
	for i, q := range queries {
		metas[i] = q.meta
	}
	return queries, metas
}

// finish implements step 7: collapse tiers into a single bounded output
// list (NAPTR-derived over SRV-derived over direct address) and deliver it
// via the configured dispatch func.
func (r *Resolver) finish(rn *run) {
	var out []Entry
	for tier := 0; tier < len(rn.candidates); tier++ {
		if len(rn.candidates[tier]) > 0 {
			out = rn.candidates[tier]
			break
		}
	}
	if len(out) > r.maxAddr {
		out = out[:r.maxAddr]
	}

	deliver := func() {
		if len(out) == 0 {
			rn.callback(nil, ErrNoAnswer)
			return
		}
		rn.callback(out, nil)
	}
	if r.dispatch != nil {
		r.dispatch(deliver)
		return
	}
	deliver()
}
