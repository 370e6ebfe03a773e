// Package filecipher implements Cryptomator's per-file encryption
// envelope: a 68-byte header carrying a random per-file content key, and
// a chunked AES-GCM body whose associated data binds every chunk to both
// its index and its file's header nonce. Grounded on the AES-GCM
// gcmCryptor in the retrieval pack's rclone Cryptomator backend
// (other_examples/...cryptomator-cryptor.go), generalized to the
// streaming reader/writer pkg/streaming builds on top.
package filecipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/vaultfs/vault8/pkg/bufpool"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

const (
	// HeaderNonceSize is the size of the random nonce prepended to every file header.
	HeaderNonceSize = 12
	// HeaderPayloadSize is the size of the AEAD-encrypted payload inside a header
	// (32-byte content key + 8 reserved bytes).
	HeaderPayloadSize = 40
	// HeaderTagSize is the size of the GCM authentication tag on the header.
	HeaderTagSize = 16
	// HeaderSize is the total on-disk size of a file header.
	HeaderSize = HeaderNonceSize + HeaderPayloadSize + HeaderTagSize

	// ContentKeySize is the size of the per-file content key carried in the header.
	ContentKeySize = 32
	contentKeyReservedSize = HeaderPayloadSize - ContentKeySize

	// ChunkSize is the maximum size of a plaintext chunk.
	ChunkSize = 32 * 1024
	// ChunkNonceSize is the size of the random nonce prepended to every chunk.
	ChunkNonceSize = 12
	// ChunkTagSize is the size of the GCM authentication tag on every chunk.
	ChunkTagSize = 16
	// chunkOverhead is the total per-chunk framing overhead on disk.
	chunkOverhead = ChunkNonceSize + ChunkTagSize
)

// Header is a decoded, decrypted file header: the per-file content key
// plus the header nonce it was authenticated with (needed as part of
// every chunk's associated data).
type Header struct {
	Nonce      [HeaderNonceSize]byte
	ContentKey [ContentKeySize]byte
}

// NewHeader generates a fresh random header nonce and a fresh random
// content key, as required for every newly created file (§4.4).
func NewHeader() (Header, error) {
	var h Header
	if _, err := rand.Read(h.Nonce[:]); err != nil {
		return Header{}, vaulterr.Wrap(vaulterr.ErrIO, "failed to generate header nonce", err)
	}
	if _, err := rand.Read(h.ContentKey[:]); err != nil {
		return Header{}, vaulterr.Wrap(vaulterr.ErrIO, "failed to generate content key", err)
	}
	return h, nil
}

// EncodeHeader encrypts h under encKey and returns the 68-byte on-disk
// representation: nonce ‖ AEAD(contentKey‖reserved8) ‖ tag.
func EncodeHeader(h Header, encKey []byte) ([]byte, error) {
	gcm, err := newGCM(encKey)
	if err != nil {
		return nil, err
	}

	payload := bufpool.Get(HeaderPayloadSize)
	defer bufpool.Put(payload)
	payload = payload[:HeaderPayloadSize]
	copy(payload, h.ContentKey[:])
	for i := ContentKeySize; i < HeaderPayloadSize; i++ {
		payload[i] = 0
	}

	out := make([]byte, 0, HeaderSize)
	out = append(out, h.Nonce[:]...)
	sealed := gcm.Seal(nil, h.Nonce[:], payload, nil)
	out = append(out, sealed...)
	return out, nil
}

// DecodeHeader authenticates and decrypts a 68-byte on-disk header under
// encKey. Returns vaulterr.ErrHeaderIntegrity if authentication fails.
func DecodeHeader(raw []byte, encKey []byte) (Header, error) {
	if len(raw) != HeaderSize {
		return Header{}, vaulterr.NewCorruptVaultError("file header has wrong size")
	}
	gcm, err := newGCM(encKey)
	if err != nil {
		return Header{}, err
	}

	var h Header
	copy(h.Nonce[:], raw[:HeaderNonceSize])

	plaintext, err := gcm.Open(nil, h.Nonce[:], raw[HeaderNonceSize:], nil)
	if err != nil {
		return Header{}, vaulterr.NewHeaderIntegrityError("")
	}
	if len(plaintext) != HeaderPayloadSize {
		return Header{}, vaulterr.NewCorruptVaultError("decrypted header payload has wrong size")
	}
	copy(h.ContentKey[:], plaintext[:ContentKeySize])
	return h, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "invalid file encryption key", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "failed to construct AEAD cipher", err)
	}
	return gcm, nil
}
