package records

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vectorpbx/dnsresolver/internal/wire"
)

func buildSRVMessage(t *testing.T, priority, weight, port uint16, target string) ([]byte, wire.RRHeader, int) {
	t.Helper()
	msg := make([]byte, 12)
	for _, label := range splitLabels(target) {
		msg = append(msg, byte(len(label)))
		msg = append(msg, label...)
	}
	msg = append(msg, 0)

	rdataOff := len(msg)
	msg = append(msg, byte(priority>>8), byte(priority))
	msg = append(msg, byte(weight>>8), byte(weight))
	msg = append(msg, byte(port>>8), byte(port))
	nameOff := len(msg)
	for _, label := range splitLabels(target) {
		msg = append(msg, byte(len(label)))
		msg = append(msg, label...)
	}
	msg = append(msg, 0)
	_ = nameOff

	rr := wire.RRHeader{Name: "_sip._tcp.example.com", Type: 33, Class: 1, TTL: 60, RDLength: uint16(len(msg) - rdataOff)}
	return msg, rr, rdataOff
}

func splitLabels(name string) []string {
	var labels []string
	start := 0
	for i := 0; i <= len(name); i++ {
		if i == len(name) || name[i] == '.' {
			labels = append(labels, name[start:i])
			start = i + 1
		}
	}
	return labels
}

func TestParseSRV(t *testing.T) {
	msg, rr, rdataOff := buildSRVMessage(t, 10, 20, 5060, "sip.example.com")
	rec, err := ParseSRV(msg, rr, rdataOff)
	require.NoError(t, err)
	require.Equal(t, uint16(10), rec.Priority)
	require.Equal(t, uint16(20), rec.Weight)
	require.Equal(t, uint16(5060), rec.Port)
	require.Equal(t, "sip.example.com", rec.Target)
	require.Equal(t, TypeSRV, rec.Type())
}

func TestSortSRVPriorityOrder(t *testing.T) {
	in := []SRVRecord{
		{header: header{typ: TypeSRV}, Priority: 20, Weight: 0},
		{header: header{typ: TypeSRV}, Priority: 10, Weight: 0},
	}
	out := SortSRV(in)
	require.Equal(t, uint16(10), out[0].Priority)
	require.Equal(t, uint16(20), out[1].Priority)
}

func TestSortSRVWeightedDistribution(t *testing.T) {
	in := []SRVRecord{
		{header: header{typ: TypeSRV}, Priority: 1, Weight: 1, Port: 1},
		{header: header{typ: TypeSRV}, Priority: 1, Weight: 100, Port: 2},
	}
	counts := map[uint16]int{}
	for range 500 {
		out := SortSRV(in)
		require.Len(t, out, 2)
		counts[out[0].Port]++
	}
	// The weight-100 record should be picked first far more often than the
	// weight-1 record, though both are possible.
	require.Greater(t, counts[2], counts[1])
}

func TestSortSRVAllZeroWeight(t *testing.T) {
	in := []SRVRecord{
		{header: header{typ: TypeSRV}, Priority: 1, Weight: 0, Port: 1},
		{header: header{typ: TypeSRV}, Priority: 1, Weight: 0, Port: 2},
	}
	out := SortSRV(in)
	require.Len(t, out, 2)
}
