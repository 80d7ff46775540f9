// pkg/secrets/secrets.go
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
)

// ErrCrypto covers a missing/malformed key and corrupt or mismatched blobs.
var ErrCrypto = errors.New("crypto error")

const blobVersion = 0x01

// Cipher encrypts platform access tokens before persistence. Key material is
// derived once from the process-wide secret; blobs are AES-256-GCM with a
// fresh random nonce per encryption, framed as version|nonce|ciphertext.
type Cipher struct {
	aead cipher.AEAD
}

// New derives the cipher from the configured secret. An empty secret is a
// startup error, not a per-request one.
func New(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: encryption key not set", ErrCrypto)
	}
	h := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(h[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return &Cipher{aead: gcm}, nil
}

func (c *Cipher) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	ct := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	out := make([]byte, 1+len(nonce)+len(ct))
	out[0] = blobVersion
	copy(out[1:1+len(nonce)], nonce)
	copy(out[1+len(nonce):], ct)
	return out, nil
}

func (c *Cipher) Decrypt(blob []byte) (string, error) {
	ns := c.aead.NonceSize()
	if len(blob) < 1+ns || blob[0] != blobVersion {
		return "", fmt.Errorf("%w: malformed blob", ErrCrypto)
	}
	nonce, ct := blob[1:1+ns], blob[1+ns:]
	plain, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return string(plain), nil
}
