package pathoram

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
)

const (
	// aesKeySize and nonceSize are pinned by SPEC_FULL.md §6: AES-GCM
	// with a 128-bit key and a 96-bit nonce. This is the one piece of
	// the implementation that stays on the standard library rather
	// than reaching for a pack dependency — the scheme is specified
	// exactly, and crypto/aes + crypto/cipher is how the teacher itself
	// builds it (encryptor.go).
	aesKeySize = 16
	nonceSize  = 12
)

// bucketCipher owns one bucket's AEAD key and its current nonce. The
// client holds one of these per tree node; neither the key nor the
// nonce ever leaves the client.
type bucketCipher struct {
	aead  cipher.AEAD
	nonce [nonceSize]byte
}

// newBucketCipher samples a fresh AES-128 key for one bucket.
func newBucketCipher(rnd io.Reader) (*bucketCipher, error) {
	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(rnd, key); err != nil {
		return nil, fmt.Errorf("pathoram: sample bucket key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("pathoram: new AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("pathoram: new GCM: %w", err)
	}
	return &bucketCipher{aead: aead}, nil
}

// associatedData returns the "bucket_<i>" ASCII tag for node i, binding
// a ciphertext to its tree position so the server can't swap buckets
// between nodes without detection.
func associatedData(nodeIndex int) []byte {
	return []byte(fmt.Sprintf("bucket_%d", nodeIndex))
}

// seal samples a fresh nonce, stores it, and authenticate-encrypts
// plaintext under this bucket's key and the given node's AAD.
func (c *bucketCipher) seal(rnd io.Reader, nodeIndex int, plaintext []byte) ([]byte, error) {
	if _, err := io.ReadFull(rnd, c.nonce[:]); err != nil {
		return nil, fmt.Errorf("pathoram: sample bucket nonce: %w", err)
	}
	aad := associatedData(nodeIndex)
	return c.aead.Seal(nil, c.nonce[:], plaintext, aad), nil
}

// open authenticate-decrypts ciphertext under this bucket's key, the
// current stored nonce, and the given node's AAD. Any failure — wrong
// key, tampered ciphertext, or mismatched AAD — is reported as
// ErrIntegrity.
func (c *bucketCipher) open(nodeIndex int, ciphertext []byte) ([]byte, error) {
	aad := associatedData(nodeIndex)
	plaintext, err := c.aead.Open(nil, c.nonce[:], ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: node %d: %v", ErrIntegrity, nodeIndex, err)
	}
	return plaintext, nil
}

