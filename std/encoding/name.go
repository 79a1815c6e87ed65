package encoding

import "bytes"

// Component is one name component: a type tag plus its raw value bytes,
// viewed without copy into the owning message buffer.
type Component struct {
	Typ TLNum
	Val []byte
}

// IsDigestShaped reports whether this component has the shape of an
// oversize last component that looks like a content digest. See the
// digestComponentLen comment in tags.go for how the equivalent heuristic
// maps onto this codec's TLV shape.
func (c Component) IsDigestShaped() bool {
	return c.Typ == TypeDigestComponent && len(c.Val) == digestComponentLen
}

// Compare does canonical component-wise comparison: unsigned byte-string
// order.
func (c Component) Compare(o Component) int {
	if c.Typ != o.Typ {
		if c.Typ < o.Typ {
			return -1
		}
		return 1
	}
	return bytes.Compare(c.Val, o.Val)
}

// Name is a parsed sequence of components, plus the byte offsets of each
// component within the owning message.
type Name struct {
	Comps   []Component
	Offsets []int // Offsets[i] = start of component i in the source buffer; Offsets[len(Comps)] = end of the last component.
}

// Len returns the number of components.
func (n Name) Len() int { return len(n.Comps) }

// Prefix returns the first k components as a new Name view (no copy).
func (n Name) Prefix(k int) Name {
	if k > len(n.Comps) {
		k = len(n.Comps)
	}
	return Name{Comps: n.Comps[:k], Offsets: n.Offsets[:k+1]}
}

// Compare implements canonical component-wise lexicographic order:
// compare component by component; a shorter prefix loses only if all of
// its components equal the corresponding components of the longer name.
func Compare(a, b Name) int {
	n := len(a.Comps)
	if len(b.Comps) < n {
		n = len(b.Comps)
	}
	for i := 0; i < n; i++ {
		if c := a.Comps[i].Compare(b.Comps[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.Comps) < len(b.Comps):
		return -1
	case len(a.Comps) > len(b.Comps):
		return 1
	default:
		return 0
	}
}

// HasPrefix reports whether every component of prefix equals the
// corresponding component of n. It strips nothing; the digest-suffix
// tolerance is MatchesPrefixWithDigestSuffix's.
func (n Name) HasPrefix(prefix Name) bool {
	if len(n.Comps) < len(prefix.Comps) {
		return false
	}
	for i, pc := range prefix.Comps {
		if n.Comps[i].Compare(pc) != 0 {
			return false
		}
	}
	return true
}

// MatchesPrefixWithDigestSuffix reports a full prefix match, OR (when the
// prefix's last component is digest-shaped and the candidate has exactly
// one component fewer than the prefix) a match after stripping that
// digest component from the prefix.
func (n Name) MatchesPrefixWithDigestSuffix(prefix Name) bool {
	if n.HasPrefix(prefix) {
		return true
	}
	k := len(prefix.Comps)
	if k > 0 && len(n.Comps) == k-1 && prefix.Comps[k-1].IsDigestShaped() {
		return n.HasPrefix(Name{Comps: prefix.Comps[:k-1]})
	}
	return false
}

// BuildName encodes a Name as a Name TLV (type TypeName, one nested
// Component TLV per component).
func BuildName(comps []Component) []byte {
	var body []byte
	for _, c := range comps {
		body = AppendTLV(body, c.Typ, c.Val)
	}
	return AppendTLV(nil, TypeName, body)
}

// ParseName parses a Name TLV value (the bytes inside the outer Name tag)
// into components, recording each component's absolute byte offset within
// base (base is the position in the full message where value begins).
func ParseName(value []byte, base int) (Name, error) {
	c := NewCursor(value)
	var comps []Component
	var offsets []int
	for !c.IsEOF() {
		offsets = append(offsets, base+c.Pos())
		typ, val, err := c.ReadTL()
		if err != nil {
			return Name{}, err
		}
		comps = append(comps, Component{Typ: typ, Val: val})
	}
	offsets = append(offsets, base+c.Pos())
	return Name{Comps: comps, Offsets: offsets}, nil
}

// NewGenericComponent builds a generic (non-digest) component.
func NewGenericComponent(val []byte) Component {
	return Component{Typ: TypeComponent, Val: val}
}

// NewDigestComponent builds a digest-shaped component (a 32-byte SHA-256
// digest, the implicit-digest name component).
func NewDigestComponent(digest []byte) Component {
	return Component{Typ: TypeDigestComponent, Val: digest}
}
