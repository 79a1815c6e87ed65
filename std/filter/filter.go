// Package filter implements a response-filter membership test: given the
// set of ContentObject signature-digests a requester already claims to
// have seen, answer whether a candidate digest is a member. A cuckoo
// filter gives this a compact, allocation-light representation per-
// Interest instead of a map keyed by 32-byte digest strings.
package filter

import (
	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// ResponseFilter is a one-shot membership test built fresh per Interest
// that carries a response filter - it is never mutated after Build.
type ResponseFilter struct {
	cf *cuckoo.Filter
}

// Build inserts every digest into a freshly sized cuckoo filter.
func Build(digests [][]byte) *ResponseFilter {
	cf := cuckoo.NewFilter(nextPow2(len(digests)))
	for _, d := range digests {
		cf.Insert(d)
	}
	return &ResponseFilter{cf: cf}
}

// Contains reports whether digest is (probably) already known to the
// requester - a false positive only ever causes a forwarder to skip
// resending content the requester would have discarded anyway, never the
// reverse: false positives are acceptable, false negatives are not.
func (rf *ResponseFilter) Contains(digest []byte) bool {
	if rf == nil || rf.cf == nil {
		return false
	}
	return rf.cf.Lookup(digest)
}

func nextPow2(n int) uint {
	if n < 1 {
		n = 1
	}
	p := uint(1)
	for p < uint(n) {
		p <<= 1
	}
	return p
}
