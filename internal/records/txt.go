package records

import (
	"fmt"
	"strings"

	"github.com/vectorpbx/dnsresolver/internal/wire"
)

// TXTRecord is a parsed TXT record (RFC 1035 Section 3.3.14): one or more
// concatenated <character-string> segments.
type TXTRecord struct {
	header
	Segments []string
}

// Joined concatenates all segments with no separator, the common convention
// for TXT records that encode a single logical string split only because of
// the 255-byte <character-string> limit.
func (t TXTRecord) Joined() string {
	return strings.Join(t.Segments, "")
}

// ParseTXT parses the RDATA of a TXT record spanning [rdataOff, rdataOff+rdlen).
func ParseTXT(msg []byte, rr wire.RRHeader, rdataOff int, rdlen int) (TXTRecord, error) {
	end := rdataOff + rdlen
	if end > len(msg) {
		return TXTRecord{}, fmt.Errorf("%w: TXT RDATA overruns message", ErrMalformed)
	}
	cursor := rdataOff
	var segs []string
	for cursor < end {
		s, err := readCharString(msg, &cursor)
		if err != nil {
			return TXTRecord{}, fmt.Errorf("%w: TXT segment: %v", ErrMalformed, err)
		}
		segs = append(segs, s)
	}
	return TXTRecord{header: headerFrom(rr, TypeTXT), Segments: segs}, nil
}
