package records

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"

	"github.com/vectorpbx/dnsresolver/internal/wire"
)

// SRVRecord is a parsed SRV record (RFC 2782).
type SRVRecord struct {
	header
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

// ParseSRV parses the RDATA of an SRV record located at rdataOff within the
// full message msg (msg is needed so the Target name, which may be
// compressed, decodes correctly).
func ParseSRV(msg []byte, rr wire.RRHeader, rdataOff int) (SRVRecord, error) {
	if rdataOff+6 > len(msg) {
		return SRVRecord{}, fmt.Errorf("%w: SRV RDATA too short", ErrMalformed)
	}
	priority := binary.BigEndian.Uint16(msg[rdataOff : rdataOff+2])
	weight := binary.BigEndian.Uint16(msg[rdataOff+2 : rdataOff+4])
	port := binary.BigEndian.Uint16(msg[rdataOff+4 : rdataOff+6])

	nameOff := rdataOff + 6
	target, err := wire.DecodeName(msg, &nameOff)
	if err != nil {
		return SRVRecord{}, fmt.Errorf("%w: SRV target: %v", ErrMalformed, err)
	}
	target = wire.NormalizeName(target)
	if target == "" {
		return SRVRecord{}, fmt.Errorf("%w: SRV target %q means no service available (RFC 2782)", ErrMalformed, ".")
	}

	return SRVRecord{
		header:   headerFrom(rr, TypeSRV),
		Priority: priority,
		Weight:   weight,
		Port:     port,
		Target:   target,
	}, nil
}

// SortSRV orders records per RFC 2782: ascending priority, and within each
// priority tier, a weighted-random ordering where every record is given a
// chance of selection proportional to its weight (a weight of 0 is chosen
// only after all nonzero-weight siblings in the tier have been placed,
// unless the whole tier is weight 0). The input slice is not mutated; a new
// ordered slice is returned.
func SortSRV(in []SRVRecord) []SRVRecord {
	if len(in) <= 1 {
		out := make([]SRVRecord, len(in))
		copy(out, in)
		return out
	}

	tiers := map[uint16][]SRVRecord{}
	var priorities []uint16
	for _, r := range in {
		if _, ok := tiers[r.Priority]; !ok {
			priorities = append(priorities, r.Priority)
		}
		tiers[r.Priority] = append(tiers[r.Priority], r)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	out := make([]SRVRecord, 0, len(in))
	for _, p := range priorities {
		out = append(out, weightedPick(tiers[p])...)
	}
	return out
}

// weightedPick implements the RFC 2782 selection algorithm for a single
// priority tier. The nonzero-weight records are drawn one at a time: pick a
// uniform random integer in [1, totalWeight], walk the running cumulative
// sum, and emit the first candidate whose sum is >= the draw. Zero-weight
// records can never be drawn that way; they are appended, in their original
// order, once the nonzero-weight records are exhausted.
func weightedPick(tier []SRVRecord) []SRVRecord {
	var zeros, nonzero []SRVRecord
	for _, r := range tier {
		if r.Weight == 0 {
			zeros = append(zeros, r)
		} else {
			nonzero = append(nonzero, r)
		}
	}

	out := make([]SRVRecord, 0, len(tier))

	for len(nonzero) > 0 {
		var total uint64
		for _, r := range nonzero {
			total += uint64(r.Weight)
		}
		if total == 0 {
			out = append(out, nonzero...)
			break
		}

		draw := randUint64(total) + 1 // uniform in [1, total]
		var sum uint64
		pick := 0
		for i, r := range nonzero {
			sum += uint64(r.Weight)
			if sum >= draw {
				pick = i
				break
			}
		}
		out = append(out, nonzero[pick])
		nonzero = append(nonzero[:pick], nonzero[pick+1:]...)
	}
	out = append(out, zeros...)
	return out
}

// randUint64 returns a cryptographically random value in [0, n).
func randUint64(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, new(big.Int).SetUint64(n))
	if err != nil {
		return 0
	}
	return v.Uint64()
}
