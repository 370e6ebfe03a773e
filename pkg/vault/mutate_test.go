package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/vault8/pkg/vaulterr"
)

func TestCreateDirectoryAndListDirectories(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	childID, err := v.CreateDirectory(root, "sub")
	require.NoError(t, err)
	assert.NotEmpty(t, childID)

	dirs, err := v.ListDirectories(root)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "sub", dirs[0].Name)
	assert.Equal(t, childID, dirs[0].DirID)
}

func TestCreateDirectoryRejectsDuplicate(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	_, err = v.CreateDirectory(root, "sub")
	require.NoError(t, err)
	_, err = v.CreateDirectory(root, "sub")
	require.Error(t, err)
	assert.True(t, vaulterr.IsAlreadyExists(err))
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	require.NoError(t, v.WriteFile(root, "gone.txt", []byte("bye")))
	require.NoError(t, v.DeleteFile(root, "gone.txt"))

	_, err = v.ReadFile(root, "gone.txt")
	require.Error(t, err)
	assert.True(t, vaulterr.IsNotFound(err))
}

func TestDeleteDirectoryRequiresEmpty(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	childID, err := v.CreateDirectory(root, "sub")
	require.NoError(t, err)
	child, err := v.dirFor(childID)
	require.NoError(t, err)
	require.NoError(t, v.WriteFile(child, "f.txt", []byte("x")))

	err = v.DeleteDirectory(root, "sub")
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.ErrNotEmpty))

	require.NoError(t, v.DeleteFile(child, "f.txt"))
	require.NoError(t, v.DeleteDirectory(root, "sub"))

	dirs, err := v.ListDirectories(root)
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestDeleteDirectoryRecursiveRemovesDescendants(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	childID, err := v.CreateDirectory(root, "sub")
	require.NoError(t, err)
	child, err := v.dirFor(childID)
	require.NoError(t, err)

	require.NoError(t, v.WriteFile(child, "a.txt", []byte("1")))
	require.NoError(t, v.WriteFile(child, "b.txt", []byte("2")))
	grandchildID, err := v.CreateDirectory(child, "deeper")
	require.NoError(t, err)
	grandchild, err := v.dirFor(grandchildID)
	require.NoError(t, err)
	require.NoError(t, v.WriteFile(grandchild, "c.txt", []byte("3")))

	result, err := v.DeleteDirectoryRecursive(root, "sub")
	require.NoError(t, err)
	assert.Equal(t, 3, result.FilesRemoved)
	assert.Equal(t, 2, result.DirsRemoved)

	dirs, err := v.ListDirectories(root)
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestDeleteDirectoryRecursiveDoesNotTouchUnrelatedSiblings(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	// A sibling at the vault root, untouched by the subtree below, proves
	// removeSubtree only ever deletes the shard belonging to the
	// directory entry it is actually recursing into — not the root's own
	// shard — once a nested (grandchild) directory is involved.
	require.NoError(t, v.WriteFile(root, "untouched.txt", []byte("still here")))

	childID, err := v.CreateDirectory(root, "sub")
	require.NoError(t, err)
	child, err := v.dirFor(childID)
	require.NoError(t, err)
	require.NoError(t, v.WriteFile(child, "a.txt", []byte("1")))
	grandchildID, err := v.CreateDirectory(child, "deeper")
	require.NoError(t, err)
	grandchild, err := v.dirFor(grandchildID)
	require.NoError(t, err)
	require.NoError(t, v.WriteFile(grandchild, "b.txt", []byte("2")))

	result, err := v.DeleteDirectoryRecursive(root, "sub")
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesRemoved)
	assert.Equal(t, 2, result.DirsRemoved)

	got, err := v.ReadFile(root, "untouched.txt")
	require.NoError(t, err)
	assert.Equal(t, "still here", string(got))

	files, err := v.ListFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "untouched.txt", files[0].Name)
}
