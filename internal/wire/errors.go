// Package wire decodes the raw DNS message bytes that a resolution backend
// hands back to the engine: the fixed header, the question section, and
// (possibly compressed) domain names. It does not perform any network I/O —
// it only reads bytes a backend already obtained.
package wire

import "errors"

// ErrMalformed is wrapped by every parse failure in this package so callers
// can distinguish "backend gave us garbage" from other error classes with
// errors.Is.
var ErrMalformed = errors.New("wire: malformed DNS message")
