package encoding

// ResponseFilter wraps the wire bytes of an Interest's optional
// already-seen-signature filter: a compact summary of signature-bits the
// requester has already seen, so a forwarder can skip resending
// ContentObjects the requester would discard as duplicates. The filter is
// opaque on the wire - a run of 32-byte digests, one per ContentObject
// hash already known to the requester - and is consumed by std/filter
// into a cuckoofilter-backed membership test, not interpreted here.
type ResponseFilter struct {
	Digests [][]byte
}

// ParseResponseFilter splits a TypeResponseFilter value into its
// constituent 32-byte digests. A malformed length (not a multiple of 32)
// is reported rather than silently truncated, since a partially-applied
// filter would cause false negatives that leak duplicate content back to
// a requester that already discarded it.
func ParseResponseFilter(value []byte) (*ResponseFilter, error) {
	if len(value)%digestComponentLen != 0 {
		return nil, ErrFormat{"response filter length not a multiple of 32"}
	}
	rf := &ResponseFilter{}
	for i := 0; i < len(value); i += digestComponentLen {
		rf.Digests = append(rf.Digests, value[i:i+digestComponentLen])
	}
	return rf, nil
}

// BuildResponseFilter encodes a TypeResponseFilter TLV from a set of
// 32-byte digests.
func BuildResponseFilter(digests [][]byte) []byte {
	var val []byte
	for _, d := range digests {
		val = append(val, d...)
	}
	return AppendTLV(nil, TypeResponseFilter, val)
}
