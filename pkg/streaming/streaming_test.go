package streaming

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/vault8/pkg/filecipher"
)

func testEncKey() []byte {
	return bytes.Repeat([]byte{0x09}, 32)
}

func writeFixture(t *testing.T, fs afero.Fs, path string, plaintext []byte) {
	t.Helper()
	w := CreateWriter(fs, path, testEncKey())
	require.NoError(t, w.Write(0, plaintext))
	require.NoError(t, w.Flush())
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	plaintext := bytes.Repeat([]byte{0x7}, 3*filecipher.ChunkSize+123)

	writeFixture(t, fs, "/f.c9r", plaintext)

	r, err := OpenReader(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint64(len(plaintext)), r.Size())

	got, err := r.ReadRange(0, uint64(len(plaintext)))
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestReadRangePartitionsMatchWholeRead(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	plaintext := bytes.Repeat([]byte{0x3}, 2*filecipher.ChunkSize+500)
	writeFixture(t, fs, "/f.c9r", plaintext)

	r, err := OpenReader(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	defer r.Close()

	ranges := [][2]uint64{{0, 100}, {100, filecipher.ChunkSize}, {100 + filecipher.ChunkSize, filecipher.ChunkSize}, {100 + 2*filecipher.ChunkSize, 400}}
	var reassembled []byte
	for _, rg := range ranges {
		got, err := r.ReadRange(rg[0], rg[1])
		require.NoError(t, err)
		reassembled = append(reassembled, got...)
	}
	assert.Equal(t, plaintext, reassembled)
}

func TestReadPastEOFReturnsShortBuffer(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "/f.c9r", []byte("hello"))

	r, err := OpenReader(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadRange(2, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("llo"), got)
}

func TestReadRangeZeroLength(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "/f.c9r", []byte("hello"))

	r, err := OpenReader(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadRange(0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRandomWriteAcrossChunkBoundary(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()

	original := make([]byte, 100000)
	for i := range original {
		original[i] = byte(i % 256)
	}
	writeFixture(t, fs, "/f.c9r", original)

	w, err := OpenWriter(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	overlay := bytes.Repeat([]byte{0xAB}, 8*1024)
	require.NoError(t, w.Write(30720, overlay))
	require.NoError(t, w.Flush())

	r, err := OpenReader(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	defer r.Close()

	expected := make([]byte, len(original))
	copy(expected, original)
	copy(expected[30720:], overlay)

	got, err := r.ReadRange(0, uint64(len(expected)))
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	info, err := fs.Stat("/f.c9r")
	require.NoError(t, err)
	assert.Equal(t, filecipher.PlaintextToCiphertextSize(uint64(len(expected))), uint64(info.Size()))
}

func TestTamperedChunkFailsRead(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	plaintext := make([]byte, 3*filecipher.ChunkSize)
	writeFixture(t, fs, "/f.c9r", plaintext)

	raw, err := afero.ReadFile(fs, "/f.c9r")
	require.NoError(t, err)
	tamperOffset := filecipher.HeaderSize + filecipher.ChunkOffsetOnDisk(2) + 5
	raw[tamperOffset] ^= 0xFF
	require.NoError(t, afero.WriteFile(fs, "/f.c9r", raw, 0o644))

	r, err := OpenReader(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadRange(0, filecipher.ChunkSize)
	require.NoError(t, err, "chunk 0 should still be readable")

	_, err = r.ReadRange(2*filecipher.ChunkSize, filecipher.ChunkSize)
	require.Error(t, err)
}

func TestCloseWithoutFlushDiscardsChanges(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "/f.c9r", []byte("original"))

	w, err := OpenWriter(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	require.NoError(t, w.Write(0, []byte("changed!")))
	require.NoError(t, w.Close())

	r, err := OpenReader(fs, "/f.c9r", testEncKey())
	require.NoError(t, err)
	defer r.Close()
	got, err := r.ReadRange(0, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}
