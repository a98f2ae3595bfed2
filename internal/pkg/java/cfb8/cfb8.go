// Package cfb8 implements the 8-bit cipher feedback mode used to encrypt
// the connection after login. The standard library only ships full block CFB.
package cfb8

import "crypto/cipher"

type cfb8 struct {
	block     cipher.Block
	blockSize int
	iv        []byte
	tmp       []byte
	decrypt   bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) cipher.Stream {
	blockSize := block.BlockSize()
	if len(iv) != blockSize {
		panic("cfb8: IV length must equal block size")
	}

	c := &cfb8{
		block:     block,
		blockSize: blockSize,
		iv:        make([]byte, blockSize),
		tmp:       make([]byte, blockSize),
		decrypt:   decrypt,
	}
	copy(c.iv, iv)
	return c
}

// NewEncrypter returns a stream which encrypts in 8-bit CFB mode.
func NewEncrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, false)
}

// NewDecrypter returns a stream which decrypts in 8-bit CFB mode.
func NewDecrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, true)
}

func (c *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("cfb8: output smaller than input")
	}

	for i, b := range src {
		c.block.Encrypt(c.tmp, c.iv)
		out := b ^ c.tmp[0]

		copy(c.iv, c.iv[1:])
		if c.decrypt {
			c.iv[c.blockSize-1] = b
		} else {
			c.iv[c.blockSize-1] = out
		}
		dst[i] = out
	}
}
