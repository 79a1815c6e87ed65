package encoding

// Scope values for an Interest.
const (
	ScopeUnlimited  = 2 // may propagate anywhere
	ScopeLocalLinks = 1 // may propagate, but not onto link-framed faces
	ScopeLocalOnly  = 0 // local processing only, never propagated
)

// ParsedInterest holds every offset and parsed field the matching engine
// needs: scope, order preference, prefix component count, and the
// per-component name offsets.
type ParsedInterest struct {
	Raw []byte

	ScopeVal   int // defaults to ScopeUnlimited if absent, per ccnd convention
	OrderPref  int
	PrefixComp int // prefix_comps: number of leading components used for PIT aggregation

	NameVal Name

	HasNonce bool
	Nonce    [NonceLength]byte
	// NonceOffset is the byte offset of the Nonce TLV's value, counted from
	// the same base as the other offsets ParseInterest records, or -1 if
	// absent.
	NonceOffset, NonceLen int

	HasResponseFilter bool
	ResponseFilter    []byte // wire bytes of the experimental already-seen-signature filter

	// Selectors.
	HasPublisher      bool
	Publisher         []byte
	MinSuffixComps    int
	MaxSuffixComps    int
	HasMinSuffixComps bool
	HasMaxSuffixComps bool
	Exclude           []Component
	AnswerOriginKind  int
}

// ParseInterest decodes an Interest TLV's value (the bytes inside the outer
// TypeInterest tag). base is the offset of value's start within the owning
// message buffer, so returned offsets are absolute.
func ParseInterest(value []byte, base int) (*ParsedInterest, error) {
	pi := &ParsedInterest{
		Raw:              value,
		ScopeVal:         ScopeUnlimited,
		OrderPref:        OrderLeftmost,
		NonceOffset:      -1,
		AnswerOriginKind: AnswerContentStore,
	}
	c := NewCursor(value)
	for !c.IsEOF() {
		start := c.Pos()
		typ, val, err := c.ReadTL()
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeName:
			n, err := ParseName(val, base+start+tlHeaderLen(typ, val))
			if err != nil {
				return nil, err
			}
			pi.NameVal = n
			if pi.PrefixComp == 0 {
				pi.PrefixComp = n.Len()
			}
		case TypeScope:
			if len(val) != 1 {
				return nil, ErrFormat{"scope must be one byte"}
			}
			pi.ScopeVal = int(val[0])
		case TypeOrderPreference:
			if len(val) != 1 {
				return nil, ErrFormat{"order preference must be one byte"}
			}
			pi.OrderPref = int(val[0])
		case TypePrefixComponents:
			if len(val) != 1 {
				return nil, ErrFormat{"prefix components must be one byte"}
			}
			pi.PrefixComp = int(val[0])
		case TypeNonce:
			if len(val) != NonceLength {
				return nil, ErrFormat{"nonce must be 6 bytes"}
			}
			pi.HasNonce = true
			copy(pi.Nonce[:], val)
			pi.NonceOffset = base + start + tlHeaderLen(typ, val)
			pi.NonceLen = len(val)
		case TypeResponseFilter:
			pi.HasResponseFilter = true
			pi.ResponseFilter = val
		case TypeSelectors:
			if err := parseSelectors(pi, val); err != nil {
				return nil, err
			}
		}
	}
	if pi.PrefixComp > pi.NameVal.Len() {
		pi.PrefixComp = pi.NameVal.Len()
	}
	return pi, nil
}

func parseSelectors(pi *ParsedInterest, value []byte) error {
	c := NewCursor(value)
	for !c.IsEOF() {
		typ, val, err := c.ReadTL()
		if err != nil {
			return err
		}
		switch typ {
		case TypePublisher:
			pi.HasPublisher = true
			pi.Publisher = val
		case TypeMinSuffixComps:
			if len(val) != 1 {
				return ErrFormat{"min suffix components must be one byte"}
			}
			pi.HasMinSuffixComps = true
			pi.MinSuffixComps = int(val[0])
		case TypeMaxSuffixComps:
			if len(val) != 1 {
				return ErrFormat{"max suffix components must be one byte"}
			}
			pi.HasMaxSuffixComps = true
			pi.MaxSuffixComps = int(val[0])
		case TypeExclude:
			n, err := ParseName(val, 0)
			if err != nil {
				return err
			}
			pi.Exclude = n.Comps
		case TypeAnswerOriginKind:
			if len(val) != 1 {
				return ErrFormat{"answer origin kind must be one byte"}
			}
			pi.AnswerOriginKind = int(val[0])
		}
	}
	return nil
}

// tlHeaderLen returns the size of the (Type, Length) header that would
// precede val when typ/val are re-encoded - used to compute absolute
// offsets for nested fields already sliced out of their parent.
func tlHeaderLen(typ TLNum, val []byte) int {
	return typ.EncodingLength() + TLNum(len(val)).EncodingLength()
}

// Prefix returns the Name truncated to the Interest's PrefixComp - the key
// used to look up/insert an InterestPrefixEntry.
func (pi *ParsedInterest) Prefix() Name {
	return pi.NameVal.Prefix(pi.PrefixComp)
}

// BuildInterest encodes an Interest TLV from its fields. Used to rebuild a
// message with a synthesized nonce spliced in, or to construct test
// fixtures.
func BuildInterest(name []Component, scope, orderPref int, nonce *[NonceLength]byte) []byte {
	var nameBody []byte
	for _, c := range name {
		nameBody = AppendTLV(nameBody, c.Typ, c.Val)
	}
	var body []byte
	body = AppendTLV(body, TypeName, nameBody)
	body = AppendTLV(body, TypeScope, []byte{byte(scope)})
	body = AppendTLV(body, TypeOrderPreference, []byte{byte(orderPref)})
	if nonce != nil {
		body = AppendTLV(body, TypeNonce, nonce[:])
	}
	return AppendTLV(nil, TypeInterest, body)
}
