// Package sha1 implements the session hash digest used by the Minecraft
// session server. The digest is SHA-1 rendered as a signed big-endian
// two's complement integer in lowercase hex.
package sha1

import (
	"crypto/sha1"
	"hash"
	"math/big"
)

type Hash struct {
	h hash.Hash
}

func NewHash() *Hash {
	return &Hash{
		h: sha1.New(),
	}
}

// Update adds b to the running digest.
func (h *Hash) Update(b []byte) {
	// hash.Hash never returns an error on Write
	_, _ = h.h.Write(b)
}

func (h *Hash) HexDigest() string {
	return HexDigest(h.h.Sum(nil))
}

// HexDigest formats sum as a signed hex integer without leading zeros.
func HexDigest(sum []byte) string {
	n := new(big.Int).SetBytes(sum)
	if len(sum) > 0 && sum[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(sum)*8)))
	}
	return n.Text(16)
}
