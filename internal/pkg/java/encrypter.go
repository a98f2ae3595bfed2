package java

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/haveachin/gatekeeper/internal/pkg/java/sha1"
)

const (
	keyBitSize         = 1024
	verifyTokenLength  = 4
	sharedSecretLength = 16
)

var (
	ErrDecryption                = errors.New("rsa decryption failed")
	ErrVerifyTokenMismatch       = errors.New("verify token did not match")
	ErrInvalidSharedSecretLength = errors.New("invalid shared secret length")
)

// SessionEncrypter holds the server keypair used during login. It is
// shared read-only by all connections.
type SessionEncrypter interface {
	// PublicKey returns the PKIX DER encoded public key.
	PublicKey() []byte
	GenerateVerifyToken() ([]byte, error)
	DecryptAndVerifySharedSecret(verifyToken, encVerifyToken, encSharedSecret []byte) ([]byte, error)
}

type rsaSessionEncrypter struct {
	privKey *rsa.PrivateKey
	pubKey  []byte
}

// NewDefaultSessionEncrypter generates a fresh RSA-1024 keypair.
func NewDefaultSessionEncrypter() (SessionEncrypter, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBitSize)
	if err != nil {
		return nil, err
	}
	return NewSessionEncrypter(key)
}

func NewSessionEncrypter(key *rsa.PrivateKey) (SessionEncrypter, error) {
	pubKey, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	return &rsaSessionEncrypter{
		privKey: key,
		pubKey:  pubKey,
	}, nil
}

func (enc *rsaSessionEncrypter) PublicKey() []byte {
	return enc.pubKey
}

func (enc *rsaSessionEncrypter) GenerateVerifyToken() ([]byte, error) {
	verifyToken := make([]byte, verifyTokenLength)
	if _, err := rand.Read(verifyToken); err != nil {
		return nil, err
	}

	return verifyToken, nil
}

func (enc *rsaSessionEncrypter) DecryptAndVerifySharedSecret(verifyToken, encVerifyToken, encSharedSecret []byte) ([]byte, error) {
	decVerifyToken, err := rsa.DecryptPKCS1v15(rand.Reader, enc.privKey, encVerifyToken)
	if err != nil {
		return nil, fmt.Errorf("%w: verify token: %v", ErrDecryption, err)
	}

	if subtle.ConstantTimeCompare(verifyToken, decVerifyToken) != 1 {
		return nil, ErrVerifyTokenMismatch
	}

	sharedSecret, err := rsa.DecryptPKCS1v15(rand.Reader, enc.privKey, encSharedSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: shared secret: %v", ErrDecryption, err)
	}

	if len(sharedSecret) != sharedSecretLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSharedSecretLength, len(sharedSecret))
	}

	return sharedSecret, nil
}

// GenerateSessionHash computes the server hash the client and the session
// server agree on.
func GenerateSessionHash(serverID string, sharedSecret, publicKey []byte) string {
	notchHash := sha1.NewHash()
	notchHash.Update([]byte(serverID))
	notchHash.Update(sharedSecret)
	notchHash.Update(publicKey)
	return notchHash.HexDigest()
}
