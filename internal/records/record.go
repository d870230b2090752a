package records

import "github.com/vectorpbx/dnsresolver/internal/wire"

// Type enumerates the record types this package understands. Values match
// their IANA DNS RRTYPE assignments so a Record's Type() can be compared
// directly against a question's QTYPE.
type Type uint16

const (
	TypeA     Type = 1
	TypeAAAA  Type = 28
	TypeTXT   Type = 16
	TypeSRV   Type = 33
	TypeNAPTR Type = 35
)

func (t Type) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeAAAA:
		return "AAAA"
	case TypeTXT:
		return "TXT"
	case TypeSRV:
		return "SRV"
	case TypeNAPTR:
		return "NAPTR"
	default:
		return "UNKNOWN"
	}
}

// Record is the common surface every parsed record type implements. The
// engine stores results as []Record without caring which concrete type it
// holds; callers type-assert to the type they asked for.
type Record interface {
	Name() string
	Type() Type
	TTL() uint32
}

type header struct {
	name string
	typ  Type
	ttl  uint32
}

func (h header) Name() string { return h.name }
func (h header) Type() Type   { return h.typ }
func (h header) TTL() uint32  { return h.ttl }

func headerFrom(rr wire.RRHeader, typ Type) header {
	return header{name: rr.Name, typ: typ, ttl: rr.TTL}
}
