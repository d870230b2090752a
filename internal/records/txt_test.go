package records

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vectorpbx/dnsresolver/internal/wire"
)

func TestParseTXTMultiSegment(t *testing.T) {
	msg := make([]byte, 12)
	rdataOff := len(msg)
	msg = appendCharString(msg, "hello ")
	msg = appendCharString(msg, "world")
	rdlen := len(msg) - rdataOff

	rr := wire.RRHeader{Name: "example.com", Type: 16, Class: 1, TTL: 300, RDLength: uint16(rdlen)}
	rec, err := ParseTXT(msg, rr, rdataOff, rdlen)
	require.NoError(t, err)
	require.Equal(t, []string{"hello ", "world"}, rec.Segments)
	require.Equal(t, "hello world", rec.Joined())
}
