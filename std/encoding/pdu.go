package encoding

// Message is one decoded top-level message: either an Interest or a
// ContentObject, located inside a face's inbound buffer (possibly after
// unwrapping one link PDU layer).
type Message struct {
	Kind      MessageKind
	Interest  *ParsedInterest
	Content   *ParsedContentObject
	RawStart  int // offset of the outer tag within the original buffer
	RawEnd    int
	LinkFramed bool // true if this message arrived inside a CCNProtocolDataUnit
}

type MessageKind int

const (
	KindInterest MessageKind = iota
	KindContentObject
)

// ParseMessage decodes exactly one top-level message at the front of buf,
// unwrapping a single link PDU layer if present. pduOK gates whether a PDU
// tag is accepted at this call: nested link PDUs are forbidden, so the
// outer decode consumes the container tag, then iterates inner messages
// with pduOK=false. It returns the number of bytes consumed from buf.
func ParseMessage(buf []byte, pduOK bool) (*Message, int, error) {
	c := NewCursor(buf)
	typ, val, err := c.ReadTL()
	if err != nil {
		return nil, 0, err
	}
	consumed := c.Pos()

	switch typ {
	case TypeProtocolDataUnit:
		if !pduOK {
			return nil, 0, ErrFormat{"nested link PDU"}
		}
		inner, innerConsumed, err := ParseMessage(val, false)
		if err != nil {
			return nil, 0, err
		}
		if innerConsumed != len(val) {
			return nil, 0, ErrFormat{"trailing bytes inside link PDU"}
		}
		inner.LinkFramed = true
		inner.RawStart = 0
		inner.RawEnd = consumed
		return inner, consumed, nil

	case TypeInterest:
		pi, err := ParseInterest(val, consumed-len(val))
		if err != nil {
			return nil, 0, err
		}
		return &Message{Kind: KindInterest, Interest: pi, RawStart: 0, RawEnd: consumed}, consumed, nil

	case TypeContentObject:
		pc, err := ParseContentObject(val, 0)
		if err != nil {
			return nil, 0, err
		}
		return &Message{Kind: KindContentObject, Content: pc, RawStart: 0, RawEnd: consumed}, consumed, nil

	default:
		return nil, 0, ErrUnrecognizedField{TypeNum: typ}
	}
}

// WrapLinkPDU wraps msg in a single CCNProtocolDataUnit container, the
// framing a face is flagged link-framed to expect.
func WrapLinkPDU(msg []byte) []byte {
	return AppendTLV(nil, TypeProtocolDataUnit, msg)
}
