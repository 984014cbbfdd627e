package drm

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Cipher encrypts sample payloads for one protection scheme.
type Cipher interface {
	Encrypt(data, iv []byte) ([]byte, error)
}

// NewCipher returns the sample cipher for a protection scheme. CTR mode
// serves 'cenc'/'cens'; CBC serves 'cbc1'/'cbcs' and Apple Sample-AES.
func NewCipher(scheme ProtectionScheme, key []byte) (Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case SchemeCENC, SchemeCENS:
		return &ctrCipher{block: block}, nil
	case SchemeCBC1, SchemeCBCS, AppleSampleAES:
		return &cbcCipher{block: block}, nil
	default:
		return nil, fmt.Errorf("unsupported protection scheme %s", scheme)
	}
}

type ctrCipher struct {
	block cipher.Block
}

func (c *ctrCipher) Encrypt(data, iv []byte) ([]byte, error) {
	out := make([]byte, len(data))
	cipher.NewCTR(c.block, padIV(iv)).XORKeyStream(out, data)
	return out, nil
}

type cbcCipher struct {
	block cipher.Block
}

func (c *cbcCipher) Encrypt(data, iv []byte) ([]byte, error) {
	// CBC operates on whole blocks; the trailing partial block stays
	// clear, matching sample encryption semantics.
	whole := len(data) / aes.BlockSize * aes.BlockSize
	out := make([]byte, len(data))
	copy(out, data)
	if whole > 0 {
		cipher.NewCBCEncrypter(c.block, padIV(iv)).CryptBlocks(out[:whole], data[:whole])
	}
	return out, nil
}

// padIV widens an 8-byte IV to the 16 bytes AES needs.
func padIV(iv []byte) []byte {
	if len(iv) == aes.BlockSize {
		return iv
	}
	padded := make([]byte, aes.BlockSize)
	copy(padded, iv)
	return padded
}
