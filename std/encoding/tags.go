package encoding

// Top-level message tags: two top-level framed messages identified by
// their outermost nested-TLV tag, Interest and ContentObject. A link PDU
// CCNProtocolDataUnit may wrap either.
const (
	TypeInterest         TLNum = 0x01
	TypeContentObject    TLNum = 0x02
	TypeProtocolDataUnit TLNum = 0x03
)

// Interest field tags.
const (
	TypeName             TLNum = 0x10
	TypeComponent        TLNum = 0x11
	TypeDigestComponent  TLNum = 0x1d
	TypeScope            TLNum = 0x12
	TypeOrderPreference   TLNum = 0x13
	TypePrefixComponents TLNum = 0x14
	TypeNonce            TLNum = 0x15
	TypeResponseFilter   TLNum = 0x16
	TypeSelectors        TLNum = 0x17
	TypePublisher        TLNum = 0x18
	TypeMinSuffixComps   TLNum = 0x19
	TypeMaxSuffixComps   TLNum = 0x1a
	TypeExclude          TLNum = 0x1b
	TypeAnswerOriginKind TLNum = 0x1c
)

// ContentObject field tags.
const (
	TypeSignature     TLNum = 0x20
	TypeSignatureBits TLNum = 0x21
	TypeContent       TLNum = 0x22
	TypeSignatureType TLNum = 0x23
)

// digestComponentLen is the value length of a digest-shaped component: a
// SHA-256 digest, 32 bytes exactly. The original ccnb encoding identified
// this shape by byte offset (length 1+2+32+1); translated into this
// codec's own TLV shape, the equivalent signal is "component tagged as a
// digest component with a 32-byte value".
const digestComponentLen = 32

// OrderPreference values.
const (
	OrderLeftmost  = 0
	OrderRightmost = 5
)

// AnswerOriginKind values.
const (
	AnswerContentStore = 1 << 0
	AnswerGenerated    = 1 << 1
)
