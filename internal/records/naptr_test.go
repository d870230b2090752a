package records

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vectorpbx/dnsresolver/internal/wire"
)

func buildNAPTRMessage(t *testing.T, order, pref uint16, flags, service, regexp, replacement string) ([]byte, wire.RRHeader, int) {
	t.Helper()
	msg := make([]byte, 12)
	rdataOff := len(msg)
	msg = append(msg, byte(order>>8), byte(order))
	msg = append(msg, byte(pref>>8), byte(pref))
	msg = appendCharString(msg, flags)
	msg = appendCharString(msg, service)
	msg = appendCharString(msg, regexp)
	for _, label := range splitLabels(replacement) {
		if label == "" {
			continue
		}
		msg = append(msg, byte(len(label)))
		msg = append(msg, label...)
	}
	msg = append(msg, 0)

	rr := wire.RRHeader{Name: "example.com", Type: 35, Class: 1, TTL: 3600, RDLength: uint16(len(msg) - rdataOff)}
	return msg, rr, rdataOff
}

func appendCharString(msg []byte, s string) []byte {
	msg = append(msg, byte(len(s)))
	msg = append(msg, s...)
	return msg
}

func TestParseNAPTR(t *testing.T) {
	msg, rr, rdataOff := buildNAPTRMessage(t, 10, 50, "S", "SIP+D2T", "", "_sip._tcp.example.com")
	rec, err := ParseNAPTR(msg, rr, rdataOff)
	require.NoError(t, err)
	require.Equal(t, uint16(10), rec.Order)
	require.Equal(t, uint16(50), rec.Preference)
	require.Equal(t, "S", rec.Flags)
	require.Equal(t, "SIP+D2T", rec.Service)
	require.Equal(t, "_sip._tcp.example.com", rec.Replacement)
	require.True(t, rec.IsTerminal())
	require.True(t, rec.MatchesService("sip+d2t"))
}

func TestParseNAPTRNonAlphanumericFlags(t *testing.T) {
	msg, rr, rdataOff := buildNAPTRMessage(t, 1, 1, "!", "BLAH", "!.*!horse.mane!", "")
	_, err := ParseNAPTR(msg, rr, rdataOff)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseNAPTRClashingTerminalFlags(t *testing.T) {
	msg, rr, rdataOff := buildNAPTRMessage(t, 1, 1, "sa", "SIP+D2T", "", "")
	_, err := ParseNAPTR(msg, rr, rdataOff)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseNAPTRRegexpAndReplacementMutuallyExclusive(t *testing.T) {
	msg, rr, rdataOff := buildNAPTRMessage(t, 1, 1, "", "SIP+D2T", "!.*!sip:\\1@example.com!", "example.com")
	_, err := ParseNAPTR(msg, rr, rdataOff)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestSortNAPTR(t *testing.T) {
	in := []NAPTRRecord{
		{Order: 2, Preference: 1},
		{Order: 1, Preference: 5},
		{Order: 1, Preference: 1},
	}
	out := SortNAPTR(in)
	require.Equal(t, uint16(1), out[0].Order)
	require.Equal(t, uint16(1), out[0].Preference)
	require.Equal(t, uint16(1), out[1].Order)
	require.Equal(t, uint16(5), out[1].Preference)
	require.Equal(t, uint16(2), out[2].Order)
}

func TestNAPTRNonTerminal(t *testing.T) {
	r := NAPTRRecord{Flags: ""}
	require.False(t, r.IsTerminal())
}
