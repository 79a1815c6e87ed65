package encoding

import "math/rand"

// NonceLength is the length of a Nonce TLV value: 6 random bytes, good
// enough for loop suppression.
const NonceLength = 6

// NewNonce synthesizes a 6-byte nonce from successive shifted bytes of a
// single rand.Uint32 draw. This is deliberately not cryptographically
// secure - loop suppression needs uniqueness among concurrently in-flight
// Interests, not unpredictability.
func NewNonce() [NonceLength]byte {
	var n [NonceLength]byte
	r := rand.Uint32()
	for i := range n {
		n[i] = byte(r >> uint(i))
	}
	return n
}

// BuildNonce encodes a Nonce TLV.
func BuildNonce(nonce [NonceLength]byte) []byte {
	return AppendTLV(nil, TypeNonce, nonce[:])
}
