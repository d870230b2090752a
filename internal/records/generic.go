package records

import (
	"fmt"
	"net/netip"

	"github.com/vectorpbx/dnsresolver/internal/wire"
)

// AddressRecord is a parsed A or AAAA record.
type AddressRecord struct {
	header
	Addr netip.Addr
}

// GenericRecord is the catch-all representation for any RR type this package
// doesn't have a typed parser for — CNAME is the common case in a real
// answer set, but anything else the engine is handed RDATA for lands here
// too. It carries the raw RDATA bytes uninterpreted; callers that care about
// a specific unhandled type decode it themselves.
type GenericRecord struct {
	name    string
	rrType  uint16
	rrClass uint16
	ttl     uint32
	data    []byte
}

func (r GenericRecord) Name() string    { return r.name }
func (r GenericRecord) Type() Type      { return Type(r.rrType) }
func (r GenericRecord) TTL() uint32     { return r.ttl }
func (r GenericRecord) RRType() uint16  { return r.rrType }
func (r GenericRecord) RRClass() uint16 { return r.rrClass }
func (r GenericRecord) Data() []byte    { return r.data }
func (r GenericRecord) DataSize() int   { return len(r.data) }

// ParseGeneric captures an unrecognized RR type's RDATA verbatim.
func ParseGeneric(msg []byte, rr wire.RRHeader, rdataOff int, rdlen int) (GenericRecord, error) {
	end := rdataOff + rdlen
	if end > len(msg) {
		return GenericRecord{}, fmt.Errorf("%w: generic RDATA overruns message", ErrMalformed)
	}
	data := make([]byte, rdlen)
	copy(data, msg[rdataOff:end])
	return GenericRecord{
		name:    rr.Name,
		rrType:  rr.Type,
		rrClass: rr.Class,
		ttl:     rr.TTL,
		data:    data,
	}, nil
}

// ParseAddress parses the RDATA of an A or AAAA record.
func ParseAddress(msg []byte, rr wire.RRHeader, rdataOff int, rdlen int, typ Type) (AddressRecord, error) {
	end := rdataOff + rdlen
	if end > len(msg) {
		return AddressRecord{}, fmt.Errorf("%w: address RDATA overruns message", ErrMalformed)
	}
	raw := msg[rdataOff:end]
	addr, ok := netip.AddrFromSlice(raw)
	if !ok {
		return AddressRecord{}, fmt.Errorf("%w: invalid address length %d for %s", ErrMalformed, len(raw), typ)
	}
	return AddressRecord{header: headerFrom(rr, typ), Addr: addr}, nil
}

// Parse dispatches on rr.Type to the matching typed parser, returning a
// Record for types this package understands. Any other type — CNAME is the
// one that shows up routinely in real answers — is still a legitimately
// valid record, just not one this package has a typed representation for, so
// it comes back as a GenericRecord rather than an error. ErrMalformed is
// reserved for RDATA that fails to parse.
func Parse(msg []byte, rr wire.RRHeader, rdataOff int) (Record, error) {
	switch Type(rr.Type) {
	case TypeSRV:
		r, err := ParseSRV(msg, rr, rdataOff)
		return r, err
	case TypeNAPTR:
		r, err := ParseNAPTR(msg, rr, rdataOff)
		return r, err
	case TypeTXT:
		r, err := ParseTXT(msg, rr, rdataOff, int(rr.RDLength))
		return r, err
	case TypeA, TypeAAAA:
		r, err := ParseAddress(msg, rr, rdataOff, int(rr.RDLength), Type(rr.Type))
		return r, err
	default:
		r, err := ParseGeneric(msg, rr, rdataOff, int(rr.RDLength))
		return r, err
	}
}
