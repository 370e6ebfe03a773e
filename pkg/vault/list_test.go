package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAllClassifiesEveryEntryKind(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	require.NoError(t, v.WriteFile(root, "file.txt", []byte("123")))
	_, err = v.CreateDirectory(root, "dir")
	require.NoError(t, err)
	require.NoError(t, v.CreateSymlink(root, "link", "target"))

	files, dirs, symlinks, err := v.ListAll(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Len(t, dirs, 1)
	require.Len(t, symlinks, 1)
	assert.Equal(t, "file.txt", files[0].Name)
	assert.EqualValues(t, 3, files[0].Size)
	assert.Equal(t, "dir", dirs[0].Name)
	assert.Equal(t, "link", symlinks[0].Name)
}

func TestListFilesReportsPlaintextSize(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, v.WriteFile(root, "big.bin", payload))

	files, err := v.ListFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.EqualValues(t, len(payload), files[0].Size)
}
