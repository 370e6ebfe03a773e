package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/vault8/pkg/vaulterr"
)

func TestByPathWriteReadDeleteFile(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)

	_, err := v.CreateDirectoryByPath("/docs")
	require.NoError(t, err)
	require.NoError(t, v.WriteFileByPath("/docs/note.txt", []byte("note contents")))

	got, err := v.ReadFileByPath("/docs/note.txt")
	require.NoError(t, err)
	assert.Equal(t, "note contents", string(got))

	files, err := v.ListFilesByPath("/docs")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "note.txt", files[0].Name)

	require.NoError(t, v.DeleteFileByPath("/docs/note.txt"))
	_, err = v.ReadFileByPath("/docs/note.txt")
	require.Error(t, err)
	assert.True(t, vaulterr.IsNotFound(err))
}

func TestByPathCreateDirectoryCreatesIntermediateLookup(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)

	_, err := v.CreateDirectoryByPath("/a")
	require.NoError(t, err)
	_, err = v.CreateDirectoryByPath("/a/b")
	require.NoError(t, err)

	require.NoError(t, v.WriteFileByPath("/a/b/deep.txt", []byte("deep")))
	got, err := v.ReadFileByPath("/a/b/deep.txt")
	require.NoError(t, err)
	assert.Equal(t, "deep", string(got))
}

func TestRenameFileByPathRejectsCrossDirectory(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)

	_, err := v.CreateDirectoryByPath("/a")
	require.NoError(t, err)
	_, err = v.CreateDirectoryByPath("/b")
	require.NoError(t, err)
	require.NoError(t, v.WriteFileByPath("/a/f.txt", []byte("x")))

	err = v.RenameFileByPath("/a/f.txt", "/b/f.txt")
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.ErrInvalidArgument))
}

func TestMoveFileByPathAcrossDirectories(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)

	_, err := v.CreateDirectoryByPath("/a")
	require.NoError(t, err)
	_, err = v.CreateDirectoryByPath("/b")
	require.NoError(t, err)
	require.NoError(t, v.WriteFileByPath("/a/f.txt", []byte("move me")))

	require.NoError(t, v.MoveFileByPath("/a/f.txt", "/b"))

	got, err := v.ReadFileByPath("/b/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "move me", string(got))
}

func TestCreateSymlinkAndReadByPath(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)

	require.NoError(t, v.CreateSymlinkByPath("/link", "/a/b/c"))
	target, err := v.ReadSymlinkByPath("/link")
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", target)
}

func TestOpenWriterByPathAndOpenReaderByPath(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)

	wid, err := v.CreateWriterByPath("/stream.bin")
	require.NoError(t, err)
	require.NoError(t, v.WriteHandle(wid, 0, []byte("streamed")))
	require.NoError(t, v.FlushHandle(wid))
	require.NoError(t, v.CloseWriter(wid))

	rid, err := v.OpenReaderByPath("/stream.bin")
	require.NoError(t, err)
	content, err := v.ReadHandle(rid, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(content))
	require.NoError(t, v.CloseReader(rid))
}
