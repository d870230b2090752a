package resolve

import (
	"fmt"

	"github.com/vectorpbx/dnsresolver/internal/records"
)

// RCodeNXDOMAIN is the DNS response code meaning "name does not exist".
const RCodeNXDOMAIN = 3

// Result is the immutable-once-published outcome of a resolved Query: the
// secure/bogus/rcode flags reported by the backend, the canonical name, the
// raw answer bytes exactly as received over the wire, and the typed records
// parsed out of them.
type Result struct {
	Secure    bool
	Bogus     bool
	RCode     uint16
	Canonical string
	Answer    []byte
	Records   []records.Record
}

// NewResult constructs a Result, enforcing the invariants from the data
// model: secure and bogus cannot both be true, canonical must be non-empty,
// and answer must be non-empty.
func NewResult(secure, bogus bool, rcode uint16, canonical string, answer []byte) (*Result, error) {
	if secure && bogus {
		return nil, fmt.Errorf("%w: result cannot be both secure and bogus", ErrInvalidArgument)
	}
	if canonical == "" {
		return nil, fmt.Errorf("%w: result canonical name must be non-empty", ErrInvalidArgument)
	}
	if len(answer) == 0 {
		return nil, fmt.Errorf("%w: result answer bytes must be non-empty", ErrInvalidArgument)
	}
	return &Result{
		Secure:    secure,
		Bogus:     bogus,
		RCode:     rcode,
		Canonical: canonical,
		Answer:    answer,
	}, nil
}

// AddRecord appends a parsed record, preserving insertion order for types
// that don't define their own sort.
func (r *Result) AddRecord(rec records.Record) {
	r.Records = append(r.Records, rec)
}

// LowestTTL returns the smallest nonzero TTL among the result's records, or
// 0 if there are no records or the rcode is NXDOMAIN — the signal the
// recurring-query engine uses to decide whether to keep recurring.
func (r *Result) LowestTTL() uint32 {
	if r.RCode == RCodeNXDOMAIN || len(r.Records) == 0 {
		return 0
	}
	var lowest uint32
	for _, rec := range r.Records {
		ttl := rec.TTL()
		if ttl == 0 {
			continue
		}
		if lowest == 0 || ttl < lowest {
			lowest = ttl
		}
	}
	return lowest
}

// sortInPlace re-sorts any SRV and NAPTR records according to their RFC
// selection order, leaving other record types at their original positions
// within the sequence (RFC 2782 / RFC 2915; see records.SortSRV /
// SortNAPTR).
func (r *Result) sortInPlace() {
	var srvIdx []int
	var srvVals []records.SRVRecord
	var naptrIdx []int
	var naptrVals []records.NAPTRRecord

	for i, rec := range r.Records {
		switch v := rec.(type) {
		case records.SRVRecord:
			srvIdx = append(srvIdx, i)
			srvVals = append(srvVals, v)
		case records.NAPTRRecord:
			naptrIdx = append(naptrIdx, i)
			naptrVals = append(naptrVals, v)
		}
	}

	if len(srvVals) > 1 {
		sorted := records.SortSRV(srvVals)
		for i, idx := range srvIdx {
			r.Records[idx] = sorted[i]
		}
	}
	if len(naptrVals) > 1 {
		sorted := records.SortNAPTR(naptrVals)
		for i, idx := range naptrIdx {
			r.Records[idx] = sorted[i]
		}
	}
}
