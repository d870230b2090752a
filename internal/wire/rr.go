package wire

import (
	"encoding/binary"
	"fmt"
)

// RRHeader is the fixed-format prefix common to every resource record (RFC
// 1035 Section 4.1.3): owner name, type, class, TTL, and RDATA length.
type RRHeader struct {
	Name     string
	Type     uint16
	Class    uint16
	TTL      uint32
	RDLength uint16
}

// ParseRRHeader parses a resource record's header at *off, advancing *off
// past the record's RDATA to the start of the next record. The returned int
// is the offset where the RDATA starts, handed back so record parsers can
// decode compressed names inside RDATA against the full message rather than
// just the RDATA slice.
func ParseRRHeader(msg []byte, off *int) (RRHeader, int, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return RRHeader{}, 0, err
	}
	if *off+10 > len(msg) {
		return RRHeader{}, 0, fmt.Errorf("%w: truncated resource record header", ErrMalformed)
	}
	h := RRHeader{
		Name:     NormalizeName(name),
		Type:     binary.BigEndian.Uint16(msg[*off : *off+2]),
		Class:    binary.BigEndian.Uint16(msg[*off+2 : *off+4]),
		TTL:      binary.BigEndian.Uint32(msg[*off+4 : *off+8]),
		RDLength: binary.BigEndian.Uint16(msg[*off+8 : *off+10]),
	}
	*off += 10
	rdataOff := *off
	if rdataOff+int(h.RDLength) > len(msg) {
		return RRHeader{}, 0, fmt.Errorf("%w: RDATA overruns message", ErrMalformed)
	}
	*off += int(h.RDLength)
	return h, rdataOff, nil
}
