package encoding

import "encoding/binary"

// TLNum is a TLV Type or Length number, using a variable-length encoding
// (1/3/5/9 bytes, chosen by magnitude) shared by this forwarder's
// CCNx-flavored tag set.
type TLNum uint64

// EncodingLength returns the number of bytes EncodeInto will write.
func (v TLNum) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xfc:
		return 1
	case x <= 0xffff:
		return 3
	case x <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// EncodeInto writes v into buf (which must be at least EncodingLength()
// bytes) and returns the number of bytes written.
func (v TLNum) EncodeInto(buf []byte) int {
	switch x := uint64(v); {
	case x <= 0xfc:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		buf[0] = 0xfd
		binary.BigEndian.PutUint16(buf[1:], uint16(x))
		return 3
	case x <= 0xffffffff:
		buf[0] = 0xfe
		binary.BigEndian.PutUint32(buf[1:], uint32(x))
		return 5
	default:
		buf[0] = 0xff
		binary.BigEndian.PutUint64(buf[1:], uint64(x))
		return 9
	}
}

// ParseTLNum parses a TLNum from the front of buf, returning the value and
// the number of bytes it occupied. Panics on a short buffer - callers parse
// through a Cursor, which bounds-checks before calling this.
func ParseTLNum(buf []byte) (val TLNum, pos int) {
	switch x := buf[0]; {
	case x <= 0xfc:
		val, pos = TLNum(x), 1
	case x == 0xfd:
		val, pos = TLNum(binary.BigEndian.Uint16(buf[1:3])), 3
	case x == 0xfe:
		val, pos = TLNum(binary.BigEndian.Uint32(buf[1:5])), 5
	case x == 0xff:
		val, pos = TLNum(binary.BigEndian.Uint64(buf[1:9])), 9
	}
	return
}
