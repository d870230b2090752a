package wire

import (
	"encoding/binary"
	"fmt"
)

// Question is one entry of a DNS question section (RFC 1035 Section 4.1.2).
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// ParseQuestion parses a question from msg at *off, advancing *off past it.
// Name is normalized to lowercase.
func ParseQuestion(msg []byte, off *int) (Question, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return Question{}, err
	}
	if *off+4 > len(msg) {
		return Question{}, fmt.Errorf("%w: truncated question", ErrMalformed)
	}
	q := Question{
		Name:  NormalizeName(name),
		Type:  binary.BigEndian.Uint16(msg[*off : *off+2]),
		Class: binary.BigEndian.Uint16(msg[*off+2 : *off+4]),
	}
	*off += 4
	return q, nil
}

// SkipQuestions advances *off past count question-section entries without
// allocating Question values, used when the engine only needs the answer
// section.
func SkipQuestions(msg []byte, off *int, count int) error {
	for range count {
		if _, err := ParseQuestion(msg, off); err != nil {
			return err
		}
	}
	return nil
}
