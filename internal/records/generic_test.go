package records

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vectorpbx/dnsresolver/internal/wire"
)

func TestParseAddressA(t *testing.T) {
	msg := make([]byte, 12)
	rdataOff := len(msg)
	msg = append(msg, 192, 0, 2, 1)
	rr := wire.RRHeader{Name: "example.com", Type: 1, Class: 1, TTL: 60, RDLength: 4}
	rec, err := ParseAddress(msg, rr, rdataOff, 4, TypeA)
	require.NoError(t, err)
	require.Equal(t, netip.MustParseAddr("192.0.2.1"), rec.Addr)
}

func TestParseDispatchesByType(t *testing.T) {
	msg := make([]byte, 12)
	rdataOff := len(msg)
	msg = append(msg, 192, 0, 2, 1)
	rr := wire.RRHeader{Name: "example.com", Type: uint16(TypeA), Class: 1, TTL: 60, RDLength: 4}
	rec, err := Parse(msg, rr, rdataOff)
	require.NoError(t, err)
	require.Equal(t, TypeA, rec.Type())
}

func TestParseUnsupportedTypeBecomesGeneric(t *testing.T) {
	msg := make([]byte, 12)
	rdataOff := len(msg)
	msg = append(msg, 3, 'f', 'o', 'o')
	rr := wire.RRHeader{Name: "example.com", Type: 5, Class: 1, TTL: 60, RDLength: 4}
	rec, err := Parse(msg, rr, rdataOff)
	require.NoError(t, err)
	generic, ok := rec.(GenericRecord)
	require.True(t, ok)
	require.Equal(t, uint16(5), generic.RRType())
	require.Equal(t, uint16(1), generic.RRClass())
	require.Equal(t, []byte{3, 'f', 'o', 'o'}, generic.Data())
	require.Equal(t, 4, generic.DataSize())
}

func TestParseGenericRejectsTruncatedRData(t *testing.T) {
	msg := make([]byte, 12)
	rr := wire.RRHeader{Name: "example.com", Type: 999, Class: 1, TTL: 60, RDLength: 10}
	_, err := Parse(msg, rr, len(msg))
	require.ErrorIs(t, err, ErrMalformed)
}
