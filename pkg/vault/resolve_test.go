package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

func TestResolveDirRoot(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)

	root, err := v.Root()
	require.NoError(t, err)

	resolved, err := v.ResolveDir("/")
	require.NoError(t, err)
	assert.Equal(t, root, resolved)

	resolved, err = v.ResolveDir("")
	require.NoError(t, err)
	assert.Equal(t, root, resolved)
}

func TestResolveDirRejectsFileComponent(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	require.NoError(t, v.WriteFile(root, "notadir", []byte("x")))
	_, err = v.ResolveDir("/notadir/child")
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.ErrInvalidArgument))
}

func TestResolvePathClassifiesLeaf(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)
	root, err := v.Root()
	require.NoError(t, err)

	require.NoError(t, v.WriteFile(root, "f.txt", []byte("x")))
	_, err = v.CreateDirectory(root, "d")
	require.NoError(t, err)

	fileResult, err := v.ResolvePath("/f.txt")
	require.NoError(t, err)
	assert.False(t, fileResult.IsDir)
	assert.Equal(t, dirmodel.KindFile, fileResult.Entry.Kind)

	dirResult, err := v.ResolvePath("/d")
	require.NoError(t, err)
	assert.True(t, dirResult.IsDir)

	rootResult, err := v.ResolvePath("/")
	require.NoError(t, err)
	assert.True(t, rootResult.IsDir)
}

func TestResolvePathNotFound(t *testing.T) {
	t.Parallel()
	v := newTestVault(t)

	_, err := v.ResolvePath("/nope")
	require.Error(t, err)
	assert.True(t, vaulterr.IsNotFound(err))
}
