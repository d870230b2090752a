package records

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/vectorpbx/dnsresolver/internal/wire"
)

// NAPTRRecord is a parsed NAPTR record (RFC 2915), including the SIP-specific
// service token syntax of RFC 3958 ("S+E2U" style tokens such as "SIP+D2T").
type NAPTRRecord struct {
	header
	Order       uint16
	Preference  uint16
	Flags       string
	Service     string
	Regexp      string
	Replacement string
}

// ParseNAPTR parses the RDATA of a NAPTR record at rdataOff within msg.
func ParseNAPTR(msg []byte, rr wire.RRHeader, rdataOff int) (NAPTRRecord, error) {
	if rdataOff+4 > len(msg) {
		return NAPTRRecord{}, fmt.Errorf("%w: NAPTR RDATA too short", ErrMalformed)
	}
	order := binary.BigEndian.Uint16(msg[rdataOff : rdataOff+2])
	preference := binary.BigEndian.Uint16(msg[rdataOff+2 : rdataOff+4])

	cursor := rdataOff + 4
	flags, err := readCharString(msg, &cursor)
	if err != nil {
		return NAPTRRecord{}, fmt.Errorf("%w: NAPTR flags: %v", ErrMalformed, err)
	}
	service, err := readCharString(msg, &cursor)
	if err != nil {
		return NAPTRRecord{}, fmt.Errorf("%w: NAPTR service: %v", ErrMalformed, err)
	}
	regexpField, err := readCharString(msg, &cursor)
	if err != nil {
		return NAPTRRecord{}, fmt.Errorf("%w: NAPTR regexp: %v", ErrMalformed, err)
	}
	replacement, err := wire.DecodeName(msg, &cursor)
	if err != nil {
		return NAPTRRecord{}, fmt.Errorf("%w: NAPTR replacement: %v", ErrMalformed, err)
	}

	if err := validateFlags(flags); err != nil {
		return NAPTRRecord{}, err
	}
	if err := validateService(service); err != nil {
		return NAPTRRecord{}, err
	}
	replacement = wire.NormalizeName(replacement)
	if err := validateRegexpAndReplacement(regexpField, replacement); err != nil {
		return NAPTRRecord{}, err
	}

	return NAPTRRecord{
		header:      headerFrom(rr, TypeNAPTR),
		Order:       order,
		Preference:  preference,
		Flags:       flags,
		Service:     service,
		Regexp:      regexpField,
		Replacement: replacement,
	}, nil
}

// readCharString reads a single <character-string> (RFC 1035 Section 3.3): a
// one-byte length prefix followed by that many bytes.
func readCharString(msg []byte, off *int) (string, error) {
	if *off >= len(msg) {
		return "", fmt.Errorf("%w: unexpected EOF reading character-string", ErrMalformed)
	}
	n := int(msg[*off])
	*off++
	if *off+n > len(msg) {
		return "", fmt.Errorf("%w: character-string overruns message", ErrMalformed)
	}
	s := string(msg[*off : *off+n])
	*off += n
	return s, nil
}

// validateFlags rejects flags that contain any non-alphanumeric byte, or
// that contain more than one of the mutually exclusive terminal flags
// {s, a, u, p} (case-insensitive). An empty flags field is valid (it means
// "not terminal, look further").
func validateFlags(flags string) error {
	terminalSeen := byte(0)
	for i := 0; i < len(flags); i++ {
		c := flags[i]
		if !isAlphaNumericASCII(c) {
			return fmt.Errorf("%w: NAPTR flags contain non-alphanumeric byte %q", ErrMalformed, c)
		}
		switch lower := c | 0x20; lower {
		case 's', 'a', 'u', 'p':
			if terminalSeen != 0 && terminalSeen != lower {
				return fmt.Errorf("%w: NAPTR flags contain clashing terminal flags %q and %q", ErrMalformed, terminalSeen, lower)
			}
			terminalSeen = lower
		}
	}
	return nil
}

func isAlphaNumericASCII(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// maxServiceLength bounds the total service token length per RFC 3958
// guidance (informally "reasonable", taken here as 32 bytes as the spec
// suggests).
const maxServiceLength = 32

// validateService checks the "protocol[+rs[+rs…]]" grammar: empty is valid
// (no terminal service), otherwise each '+'-separated token must start with
// a letter and contain only alphanumerics, and the whole string must not
// exceed maxServiceLength.
func validateService(service string) error {
	if service == "" {
		return nil
	}
	if len(service) > maxServiceLength {
		return fmt.Errorf("%w: NAPTR service token too long (%d > %d)", ErrMalformed, len(service), maxServiceLength)
	}
	for _, token := range strings.Split(service, "+") {
		if token == "" {
			return fmt.Errorf("%w: NAPTR service has an empty token", ErrMalformed)
		}
		if !unicode.IsLetter(rune(token[0])) || token[0] > unicode.MaxASCII {
			return fmt.Errorf("%w: NAPTR service token %q must start with a letter", ErrMalformed, token)
		}
		for i := 0; i < len(token); i++ {
			if !isAlphaNumericASCII(token[i]) {
				return fmt.Errorf("%w: NAPTR service token %q has a non-alphanumeric byte", ErrMalformed, token)
			}
		}
	}
	return nil
}

// validateRegexpAndReplacement enforces that regexp and a non-empty
// replacement are mutually exclusive, and that a non-empty regexp is a
// well-formed !pattern!replacement!flags! substitution: the first byte picks
// a delimiter that must be printable and non-alphanumeric, the string must
// contain exactly three occurrences of that delimiter, trailing flags must
// be alphanumeric, backreferences "\0" are illegal, and the pattern half
// must compile as a regular expression.
func validateRegexpAndReplacement(regexpField, replacement string) error {
	if regexpField != "" && replacement != "" {
		return fmt.Errorf("%w: NAPTR regexp and replacement are mutually exclusive", ErrMalformed)
	}
	if regexpField == "" {
		return nil
	}

	delim := regexpField[0]
	if delim < 0x21 || delim > 0x7E || isAlphaNumericASCII(delim) {
		return fmt.Errorf("%w: NAPTR regexp delimiter %q must be printable and non-alphanumeric", ErrMalformed, delim)
	}

	count := strings.Count(regexpField, string(delim))
	if count != 3 {
		return fmt.Errorf("%w: NAPTR regexp must contain exactly 3 delimiters, found %d", ErrMalformed, count)
	}

	parts := strings.SplitN(regexpField[1:], string(delim), 3)
	if len(parts) != 3 {
		return fmt.Errorf("%w: NAPTR regexp malformed substitution", ErrMalformed)
	}
	pattern, replace, flags := parts[0], parts[1], parts[2]

	for i := 0; i < len(flags); i++ {
		if !isAlphaNumericASCII(flags[i]) {
			return fmt.Errorf("%w: NAPTR regexp trailing flags must be alphanumeric", ErrMalformed)
		}
	}
	if strings.Contains(replace, `\0`) {
		return fmt.Errorf("%w: NAPTR regexp backreference \\0 is illegal", ErrMalformed)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%w: NAPTR regexp pattern does not compile: %v", ErrMalformed, err)
	}
	return nil
}

// IsTerminal reports whether this record's flags mark it as the last step
// (S, A, or U resolve directly to a target rather than another NAPTR
// lookup).
func (n NAPTRRecord) IsTerminal() bool {
	switch strings.ToUpper(n.Flags) {
	case "S", "A", "U":
		return true
	default:
		return false
	}
}

// SortNAPTR orders records per RFC 2915: ascending order, then ascending
// preference within each order. Unlike SRV there is no weighted-random
// component.
func SortNAPTR(in []NAPTRRecord) []NAPTRRecord {
	out := make([]NAPTRRecord, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Preference < out[j].Preference
	})
	return out
}

// MatchesService reports whether this record's service token matches the
// wanted enumeration protocol ("E2U") or SIP ("SIP+D2T"/"SIPS+D2T"/"SIP+D2U")
// service, per RFC 3958's "service:protocol" grammar. Comparison is
// case-insensitive and covers the whole service string; a prefix alone does
// not match.
func (n NAPTRRecord) MatchesService(want string) bool {
	return strings.EqualFold(n.Service, want)
}
