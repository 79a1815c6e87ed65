// Package encoding is the wire-format codec for ccnfwd: it parses and
// builds the two top-level framed messages (Interest, ContentObject) and
// the single-level link PDU that may wrap either. It is an external
// collaborator to the matching engine, which only ever touches parsed
// offsets, never raw TLV bytes directly.
package encoding

import "fmt"

// Buffer is a contiguous byte buffer - a face's inbound decode buffer
// holds exactly one of these per in-flight message.
type Buffer = []byte

type ErrFormat struct {
	Msg string
}

func (e ErrFormat) Error() string { return e.Msg }

var ErrBufferOverflow = fmt.Errorf("ccnfwd/encoding: buffer overflow parsing a TLV length")

type ErrUnrecognizedField struct {
	TypeNum TLNum
}

func (e ErrUnrecognizedField) Error() string {
	return fmt.Sprintf("ccnfwd/encoding: unrecognized critical field type %d", e.TypeNum)
}
