package filecipher

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/vaultfs/vault8/pkg/bufpool"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// chunkAAD builds the associated data for chunk index i: be64(i) ‖
// headerNonce. Binding both the index and the header nonce is what makes
// reorder, truncation, and cross-file splicing detectable (§4.4, P3).
func chunkAAD(index uint64, headerNonce [HeaderNonceSize]byte) []byte {
	aad := bufpool.Get(8 + HeaderNonceSize)
	defer bufpool.Put(aad)
	binary.BigEndian.PutUint64(aad[:8], index)
	copy(aad[8:], headerNonce[:])
	out := make([]byte, 8+HeaderNonceSize)
	copy(out, aad)
	return out
}

// EncryptChunk encrypts one plaintext chunk (≤ ChunkSize) under the
// file's content key, returning the on-disk frame: nonce ‖ ciphertext ‖
// tag.
func EncryptChunk(plaintext []byte, index uint64, headerNonce [HeaderNonceSize]byte, contentKey []byte) ([]byte, error) {
	if len(plaintext) > ChunkSize {
		return nil, vaulterr.NewInvalidArgumentError("chunk plaintext exceeds maximum chunk size")
	}
	gcm, err := newGCM(contentKey)
	if err != nil {
		return nil, err
	}

	var nonce [ChunkNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIO, "failed to generate chunk nonce", err)
	}

	aad := chunkAAD(index, headerNonce)
	out := make([]byte, 0, ChunkNonceSize+len(plaintext)+ChunkTagSize)
	out = append(out, nonce[:]...)
	out = append(out, gcm.Seal(nil, nonce[:], plaintext, aad)...)
	return out, nil
}

// DecryptChunk authenticates and decrypts one on-disk chunk frame.
// Returns vaulterr.ErrChunkIntegrity (carrying index) on any
// authentication failure: wrong key, tampered bytes, wrong index, or a
// frame spliced in from a different file (different header nonce).
func DecryptChunk(frame []byte, index uint64, headerNonce [HeaderNonceSize]byte, contentKey []byte, path string) ([]byte, error) {
	if len(frame) < chunkOverhead {
		return nil, vaulterr.NewChunkIntegrityError(path, int64(index))
	}
	gcm, err := newGCM(contentKey)
	if err != nil {
		return nil, err
	}

	nonce := frame[:ChunkNonceSize]
	ciphertextAndTag := frame[ChunkNonceSize:]
	aad := chunkAAD(index, headerNonce)

	plaintext, err := gcm.Open(nil, nonce, ciphertextAndTag, aad)
	if err != nil {
		return nil, vaulterr.NewChunkIntegrityError(path, int64(index))
	}
	return plaintext, nil
}

// EncryptedChunkFrameSize returns the on-disk size of a chunk frame whose
// plaintext has the given length.
func EncryptedChunkFrameSize(plaintextLen int) int {
	return ChunkNonceSize + plaintextLen + ChunkTagSize
}

// PlaintextToCiphertextSize computes the on-disk body length (header +
// all chunk frames) for a file whose plaintext is plaintextLen bytes
// long (§4.4 Size math, P5).
func PlaintextToCiphertextSize(plaintextLen uint64) uint64 {
	if plaintextLen == 0 {
		return HeaderSize
	}
	fullChunks := plaintextLen / ChunkSize
	remainder := plaintextLen % ChunkSize

	numChunks := fullChunks
	if remainder > 0 {
		numChunks++
	}
	return uint64(HeaderSize) + numChunks*uint64(chunkOverhead) + plaintextLen
}

// CiphertextToPlaintextSize is the inverse of PlaintextToCiphertextSize:
// given the total on-disk size of a file (header + body), returns the
// plaintext length. Returns an error if the size is not a value that
// PlaintextToCiphertextSize could have produced.
func CiphertextToPlaintextSize(ciphertextLen uint64) (uint64, error) {
	if ciphertextLen < HeaderSize {
		return 0, vaulterr.NewCorruptVaultError("ciphertext shorter than the file header")
	}
	body := ciphertextLen - HeaderSize
	if body == 0 {
		return 0, nil
	}

	fullFrame := uint64(ChunkSize + chunkOverhead)
	numFullChunks := body / fullFrame
	remainder := body % fullFrame

	if remainder == 0 {
		return numFullChunks * ChunkSize, nil
	}
	if remainder <= uint64(chunkOverhead) {
		return 0, vaulterr.NewCorruptVaultError("ciphertext body has a truncated trailing chunk")
	}
	lastChunkPlaintext := remainder - uint64(chunkOverhead)
	return numFullChunks*ChunkSize + lastChunkPlaintext, nil
}

// ChunkIndexForOffset returns the index of the chunk containing the given
// plaintext byte offset.
func ChunkIndexForOffset(offset uint64) uint64 {
	return offset / ChunkSize
}

// ChunkOffsetOnDisk returns the byte offset, within the file's on-disk
// body (i.e. after the header), of chunk index's frame.
func ChunkOffsetOnDisk(index uint64) uint64 {
	return index * uint64(ChunkSize+chunkOverhead)
}
