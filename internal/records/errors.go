// Package records parses the resource record types the resolution engine
// cares about — SRV, NAPTR, and TXT — out of RDATA bytes located inside a
// full DNS answer buffer, and implements their RFC-mandated selection orders
// (RFC 2782 SRV weighted-random, RFC 2915 NAPTR order/preference).
package records

import "errors"

var ErrMalformed = errors.New("records: malformed record data")
