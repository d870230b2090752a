package sipresolve

// Transport is a SIP transport, including its address-family variant
// (IPv4 vs IPv6), mirroring the pjsip_transport_type_e family split: the
// resolver treats e.g. UDP and UDP6 as distinct transports once a literal
// IPv6 address or an AAAA answer is involved.
type Transport uint8

const (
	TransportUnspecified Transport = iota
	TransportUDP
	TransportUDP6
	TransportTCP
	TransportTCP6
	TransportTLS
	TransportTLS6
)

func (t Transport) String() string {
	switch t {
	case TransportUDP:
		return "udp"
	case TransportUDP6:
		return "udp6"
	case TransportTCP:
		return "tcp"
	case TransportTCP6:
		return "tcp6"
	case TransportTLS:
		return "tls"
	case TransportTLS6:
		return "tls6"
	default:
		return "unspecified"
	}
}

// IsIPv6 reports whether t is the IPv6 variant of its family.
func (t Transport) IsIPv6() bool {
	switch t {
	case TransportUDP6, TransportTCP6, TransportTLS6:
		return true
	default:
		return false
	}
}

// toIPv6 upgrades t to its IPv6 variant, per step 2's "if the host is
// literally an IPv6 address, upgrade the chosen transport" rule.
func (t Transport) toIPv6() Transport {
	switch t {
	case TransportUDP:
		return TransportUDP6
	case TransportTCP:
		return TransportTCP6
	case TransportTLS:
		return TransportTLS6
	default:
		return t
	}
}

// defaultPort returns the well-known SIP port for t.
func (t Transport) defaultPort() uint16 {
	switch t {
	case TransportTLS, TransportTLS6:
		return 5061
	default:
		return 5060
	}
}

// reliable reports whether t runs over a connection-oriented transport.
func (t Transport) reliable() bool {
	switch t {
	case TransportTCP, TransportTCP6, TransportTLS, TransportTLS6:
		return true
	default:
		return false
	}
}

// sipService is one of the three SIP SRV service labels this resolver
// queries, per RFC 3263 step 3.
type sipService struct {
	label     string // e.g. "_sips._tcp"
	transport Transport
}

var sipServices = []sipService{
	{label: "_sips._tcp", transport: TransportTLS},
	{label: "_sip._tcp", transport: TransportTCP},
	{label: "_sip._udp", transport: TransportUDP},
}

// naptrServiceTransport maps the RFC 3958 SIP NAPTR service tokens this
// resolver follows (step 5) to the transport an SRV lookup on the
// replacement will resolve.
var naptrServiceTransport = map[string]Transport{
	"sip+d2u":  TransportUDP,
	"sip+d2t":  TransportTCP,
	"sips+d2t": TransportTLS,
}
