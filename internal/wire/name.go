package wire

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const maxCompressionDepth = 20

// NormalizeName lowercases a name and strips a trailing dot, for
// case-insensitive comparisons per RFC 4343.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// DecodeName decodes a possibly-compressed domain name from msg starting at
// *off (RFC 1035 Section 4.1.4), advancing *off past the name (including any
// compression pointer). This is the routine SRV/NAPTR record parsing relies
// on to resolve a compressed target name against the full answer buffer.
func DecodeName(msg []byte, off *int) (string, error) {
	name, err := decodeName(msg, off, 0, map[int]struct{}{})
	if err != nil {
		return "", err
	}
	return name, nil
}

func decodeName(msg []byte, off *int, depth int, visited map[int]struct{}) (string, error) {
	if depth > maxCompressionDepth {
		return "", fmt.Errorf("%w: too many compression pointer indirections", ErrMalformed)
	}
	if *off < 0 || *off >= len(msg) {
		return "", fmt.Errorf("%w: unexpected EOF decoding name", ErrMalformed)
	}

	labels := make([]string, 0, 6)
	for {
		if *off >= len(msg) {
			return "", fmt.Errorf("%w: unexpected EOF decoding name", ErrMalformed)
		}
		labelLen := msg[*off]
		*off++

		if labelLen == 0 {
			break
		}
		if isCompressionPointer(labelLen) {
			rest, err := followPointer(msg, off, labelLen, depth, visited)
			if err != nil {
				return "", err
			}
			if rest != "" {
				labels = append(labels, rest)
			}
			break
		}
		if hasReservedBits(labelLen) {
			return "", fmt.Errorf("%w: reserved label length bits set", ErrMalformed)
		}
		label, err := readLabel(msg, off, int(labelLen))
		if err != nil {
			return "", err
		}
		labels = append(labels, label)
	}
	return joinLabels(labels), nil
}

func isCompressionPointer(b byte) bool { return b&0xC0 == 0xC0 }
func hasReservedBits(b byte) bool      { return b&0xC0 != 0 }

func followPointer(msg []byte, off *int, firstByte byte, depth int, visited map[int]struct{}) (string, error) {
	if *off >= len(msg) {
		return "", fmt.Errorf("%w: unexpected EOF in compression pointer", ErrMalformed)
	}
	ptr := int(binary.BigEndian.Uint16([]byte{firstByte & 0x3F, msg[*off]}))
	*off++

	if ptr >= len(msg) {
		return "", fmt.Errorf("%w: compression pointer out of bounds", ErrMalformed)
	}
	if _, seen := visited[ptr]; seen {
		return "", fmt.Errorf("%w: compression pointer loop", ErrMalformed)
	}
	visited[ptr] = struct{}{}

	ptrOff := ptr
	return decodeName(msg, &ptrOff, depth+1, visited)
}

func readLabel(msg []byte, off *int, length int) (string, error) {
	if *off+length > len(msg) {
		return "", fmt.Errorf("%w: unexpected EOF reading label", ErrMalformed)
	}
	label := msg[*off : *off+length]
	*off += length
	for _, b := range label {
		if b > 0x7F {
			return "", fmt.Errorf("%w: non-ASCII label", ErrMalformed)
		}
	}
	return string(label), nil
}

func joinLabels(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	if len(labels) == 1 {
		return labels[0]
	}
	size := len(labels) - 1
	for _, l := range labels {
		size += len(l)
	}
	var b strings.Builder
	b.Grow(size)
	b.WriteString(labels[0])
	for _, l := range labels[1:] {
		b.WriteByte('.')
		b.WriteString(l)
	}
	return b.String()
}
