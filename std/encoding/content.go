package encoding

// ParsedContentObject holds the offsets and parsed fields the matching
// engine and content store need: magic, the signature/content offsets,
// and the per-component name offsets.
type ParsedContentObject struct {
	Raw []byte

	NameVal Name

	// SignatureStart/SignatureEnd bound the Signature TLV's value within
	// Raw; SignatureBitsStart/End bound the 32-byte signature bits inside
	// it, used for response-filter suppression.
	SignatureStart, SignatureEnd         int
	SignatureBitsStart, SignatureBitsEnd int

	ContentStart, ContentEnd int

	// HashKeyEnd is the offset one past the end of the name - the hash key
	// for the by-hash index is the full name bytes up through this point.
	HashKeyEnd int
}

// SignatureBits returns the 32-byte signature bits, used as the response-
// filter suppression key.
func (p *ParsedContentObject) SignatureBits() []byte {
	return p.Raw[p.SignatureBitsStart:p.SignatureBitsEnd]
}

// Body returns the content body bytes.
func (p *ParsedContentObject) Body() []byte {
	return p.Raw[p.ContentStart:p.ContentEnd]
}

// Tail returns the bytes from the end of the name onward - used for
// duplicate-vs-collision disambiguation: matching tail bytes mean a
// duplicate, differing tail bytes mean a name collision.
func (p *ParsedContentObject) Tail() []byte {
	return p.Raw[p.HashKeyEnd:]
}

// ParseContentObject decodes a ContentObject TLV's value. base is the
// offset of value's start within the owning message buffer.
func ParseContentObject(value []byte, base int) (*ParsedContentObject, error) {
	p := &ParsedContentObject{Raw: value}
	c := NewCursor(value)
	for !c.IsEOF() {
		start := c.Pos()
		typ, val, err := c.ReadTL()
		if err != nil {
			return nil, err
		}
		hdr := tlHeaderLen(typ, val)
		switch typ {
		case TypeName:
			n, err := ParseName(val, base+start+hdr)
			if err != nil {
				return nil, err
			}
			p.NameVal = n
			p.HashKeyEnd = base + start + hdr + len(val)
		case TypeSignature:
			p.SignatureStart = base + start + hdr
			p.SignatureEnd = base + start + hdr + len(val)
			if err := locateSignatureBits(p, val, p.SignatureStart); err != nil {
				return nil, err
			}
		case TypeContent:
			p.ContentStart = base + start + hdr
			p.ContentEnd = base + start + hdr + len(val)
		}
	}
	return p, nil
}

// locateSignatureBits finds the TypeSignatureBits field within a Signature
// TLV's value and records its absolute offsets.
func locateSignatureBits(p *ParsedContentObject, value []byte, base int) error {
	c := NewCursor(value)
	for !c.IsEOF() {
		start := c.Pos()
		typ, val, err := c.ReadTL()
		if err != nil {
			return err
		}
		if typ == TypeSignatureBits {
			hdr := tlHeaderLen(typ, val)
			p.SignatureBitsStart = base + start + hdr
			p.SignatureBitsEnd = p.SignatureBitsStart + len(val)
			return nil
		}
	}
	return nil
}

// BuildContentObject encodes a complete ContentObject message (the outer
// TypeContentObject tag included) from a name, 32-byte signature bits, and
// a content body. Used by tests and by any local content-injection path.
func BuildContentObject(name []Component, sigBits, content []byte) []byte {
	sigBody := AppendTLV(nil, TypeSignatureBits, sigBits)
	var body []byte
	body = AppendTLV(body, TypeName, encodeComponents(name))
	body = AppendTLV(body, TypeSignature, sigBody)
	body = AppendTLV(body, TypeContent, content)
	return AppendTLV(nil, TypeContentObject, body)
}

func encodeComponents(comps []Component) []byte {
	var body []byte
	for _, c := range comps {
		body = AppendTLV(body, c.Typ, c.Val)
	}
	return body
}
