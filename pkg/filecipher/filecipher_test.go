package filecipher

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()
	encKey := randomBytes(t, 32)

	h, err := NewHeader()
	require.NoError(t, err)

	raw, err := EncodeHeader(h, encKey)
	require.NoError(t, err)
	require.Len(t, raw, HeaderSize)

	got, err := DecodeHeader(raw, encKey)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeaderDecodeFailsOnBitFlip(t *testing.T) {
	t.Parallel()
	encKey := randomBytes(t, 32)
	h, err := NewHeader()
	require.NoError(t, err)
	raw, err := EncodeHeader(h, encKey)
	require.NoError(t, err)

	raw[HeaderSize-1] ^= 0x01
	_, err = DecodeHeader(raw, encKey)
	require.Error(t, err)
}

func TestChunkRoundTrip(t *testing.T) {
	t.Parallel()
	contentKey := randomBytes(t, 32)
	var nonce [HeaderNonceSize]byte
	copy(nonce[:], randomBytes(t, HeaderNonceSize))

	plaintext := randomBytes(t, ChunkSize)
	frame, err := EncryptChunk(plaintext, 3, nonce, contentKey)
	require.NoError(t, err)

	got, err := DecryptChunk(frame, 3, nonce, contentKey, "/foo")
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestChunkDecryptFailsOnWrongIndex(t *testing.T) {
	t.Parallel()
	contentKey := randomBytes(t, 32)
	var nonce [HeaderNonceSize]byte

	frame, err := EncryptChunk([]byte("hello"), 0, nonce, contentKey)
	require.NoError(t, err)

	_, err = DecryptChunk(frame, 1, nonce, contentKey, "/foo")
	require.Error(t, err)
}

func TestChunkDecryptFailsOnWrongHeaderNonce(t *testing.T) {
	t.Parallel()
	contentKey := randomBytes(t, 32)
	var nonceA, nonceB [HeaderNonceSize]byte
	nonceB[0] = 1

	frame, err := EncryptChunk([]byte("hello"), 0, nonceA, contentKey)
	require.NoError(t, err)

	_, err = DecryptChunk(frame, 0, nonceB, contentKey, "/foo")
	require.Error(t, err)
}

func TestChunkDecryptFailsOnBitFlip(t *testing.T) {
	t.Parallel()
	contentKey := randomBytes(t, 32)
	var nonce [HeaderNonceSize]byte

	frame, err := EncryptChunk(bytes.Repeat([]byte{0x42}, 100), 0, nonce, contentKey)
	require.NoError(t, err)
	frame[len(frame)-1] ^= 0x01

	_, err = DecryptChunk(frame, 0, nonce, contentKey, "/foo")
	require.Error(t, err)
}

func TestSizeMathRoundTrip(t *testing.T) {
	t.Parallel()
	lengths := []uint64{0, 1, 37, ChunkSize - 1, ChunkSize, ChunkSize + 1, 10*ChunkSize + 37}
	for _, l := range lengths {
		ct := PlaintextToCiphertextSize(l)
		pt, err := CiphertextToPlaintextSize(ct)
		require.NoError(t, err)
		assert.Equal(t, l, pt, "round trip for plaintext length %d", l)
	}
}

func TestCiphertextToPlaintextRejectsTruncatedTrailingChunk(t *testing.T) {
	t.Parallel()
	// A body shorter than a single chunk's nonce+tag overhead can't be a
	// valid (possibly short) final chunk frame.
	ct := uint64(HeaderSize + chunkOverhead - 1)
	_, err := CiphertextToPlaintextSize(ct)
	require.Error(t, err)
}
