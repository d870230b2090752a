package sipresolve

import (
	"errors"
	"net/netip"
)

// ErrNoAnswer is delivered to the caller's callback when the resolution
// produced no usable address.
var ErrNoAnswer = errors.New("sipresolve: no answer")

// Target is the input to a single RFC 3263 resolution.
type Target struct {
	Host string
	Port int // 0 means unspecified

	// Transport is the caller's explicit transport preference, or
	// TransportUnspecified to let the resolver infer/negotiate one via
	// NAPTR/SRV.
	Transport Transport

	Secure   bool
	Reliable bool
}

// Entry is one resolved destination, in preference order.
type Entry struct {
	Transport Transport
	Addr      netip.Addr
	Port      uint16
}

// TransportProbe answers "is this transport usable on this host", the one
// question the resolver asks of the wider SIP transport layer (probing the
// transport itself is explicitly out of scope here).
type TransportProbe interface {
	Available(t Transport) bool
}

// AllTransportsAvailable is a TransportProbe that reports every transport
// as usable, for callers with no transport-layer constraints to enforce.
type AllTransportsAvailable struct{}

func (AllTransportsAvailable) Available(Transport) bool { return true }
