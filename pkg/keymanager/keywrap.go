package keymanager

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"

	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// keyWrapIV is the default integrity check register from RFC 3394 section 2.2.3.1.
var keyWrapIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// aesKeyWrap implements RFC 3394 AES Key Wrap. plaintext must be a multiple
// of 8 bytes and at least 16 bytes long. The returned ciphertext is 8 bytes
// longer than plaintext.
//
// No library in this module's dependency graph implements RFC 3394 key
// wrap, so this is a direct, from-the-RFC implementation on top of
// crypto/aes.
func aesKeyWrap(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext)%8 != 0 || len(plaintext) < 16 {
		return nil, vaulterr.NewInvalidArgumentError("key wrap plaintext must be a multiple of 8 bytes, at least 16")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "invalid key-encryption key", err)
	}

	n := len(plaintext) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], plaintext[i*8:(i+1)*8])
	}

	a := keyWrapIV

	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Encrypt(buf, buf)

			t := uint64(n*j + i)
			var tBytes [8]byte
			binary.BigEndian.PutUint64(tBytes[:], t)
			for k := 0; k < 8; k++ {
				a[k] = buf[k] ^ tBytes[k]
			}
			copy(r[i-1][:], buf[8:])
		}
	}

	out := make([]byte, 8+len(plaintext))
	copy(out[:8], a[:])
	for i := 0; i < n; i++ {
		copy(out[8+i*8:8+(i+1)*8], r[i][:])
	}
	return out, nil
}

// aesKeyUnwrap implements RFC 3394 AES Key Unwrap. ciphertext must be a
// multiple of 8 bytes and at least 24 bytes long. Returns
// vaulterr.ErrBadPassphrase if the integrity check register does not
// match after unwrapping, since in this vault format the only realistic
// cause is an incorrect key-encryption key derived from a wrong passphrase.
func aesKeyUnwrap(kek, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%8 != 0 || len(ciphertext) < 24 {
		return nil, vaulterr.NewInvalidArgumentError("key wrap ciphertext must be a multiple of 8 bytes, at least 24")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "invalid key-encryption key", err)
	}

	n := len(ciphertext)/8 - 1
	var a [8]byte
	copy(a[:], ciphertext[:8])

	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], ciphertext[8+i*8:8+(i+1)*8])
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			var tBytes [8]byte
			binary.BigEndian.PutUint64(tBytes[:], t)

			var xored [8]byte
			for k := 0; k < 8; k++ {
				xored[k] = a[k] ^ tBytes[k]
			}
			copy(buf[:8], xored[:])
			copy(buf[8:], r[i-1][:])

			block.Decrypt(buf, buf)

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], keyWrapIV[:]) != 1 {
		return nil, vaulterr.NewBadPassphraseError()
	}

	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		copy(out[i*8:(i+1)*8], r[i][:])
	}
	return out, nil
}
