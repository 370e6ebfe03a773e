package mountadapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/vault8/pkg/vaulterr"
)

func TestErrnoClassifierMapsKnownCodes(t *testing.T) {
	t.Parallel()
	c := ErrnoClassifier{}

	pe := c.MapError(vaulterr.NewNotFoundError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, errnoNoEnt, pe.Code())

	pe = c.MapError(vaulterr.NewAlreadyExistsError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, errnoExist, pe.Code())

	pe = c.MapError(vaulterr.NewNotEmptyError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, errnoNotEmpty, pe.Code())

	pe = c.MapError(vaulterr.NewReadOnlyError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, errnoROFS, pe.Code())
}

func TestErrnoClassifierRejectsForeignError(t *testing.T) {
	t.Parallel()
	c := ErrnoClassifier{}
	assert.Nil(t, c.MapError(errors.New("not a vault error")))
}

func TestHTTPClassifierMapsKnownCodes(t *testing.T) {
	t.Parallel()
	c := HTTPClassifier{}

	pe := c.MapError(vaulterr.NewNotFoundError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, 404, pe.Code())

	pe = c.MapError(vaulterr.NewLockedError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, 423, pe.Code())

	pe = c.MapError(vaulterr.NewCorruptVaultError("bad"))
	require.NotNil(t, pe)
	assert.EqualValues(t, 500, pe.Code())
}

func TestNFSClassifierMapsKnownCodes(t *testing.T) {
	t.Parallel()
	c := NFSClassifier{}

	pe := c.MapError(vaulterr.NewNotFoundError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, nfs3ErrNoEnt, pe.Code())

	pe = c.MapError(vaulterr.NewStaleHandleError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, nfs3ErrStale, pe.Code())

	pe = c.MapError(vaulterr.NewDeadlockError("/x"))
	require.NotNil(t, pe)
	assert.EqualValues(t, nfs3ErrJukebox, pe.Code())
}

func TestProtocolErrorUnwrapsToVaultError(t *testing.T) {
	t.Parallel()
	cause := vaulterr.NewNotFoundError("/x")
	pe := New(404, "Not Found", cause)

	assert.Equal(t, "Not Found", pe.Error())
	assert.Equal(t, "Not Found", pe.Message())
	assert.Same(t, cause, pe.Unwrap())
	assert.True(t, errors.Is(pe, cause))
}

func TestHandleTableInsertGetRemove(t *testing.T) {
	t.Parallel()
	table := NewHandleTable[string]()

	id := table.Insert("payload")
	got, err := table.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "payload", got)

	removed, err := table.Remove(id)
	require.NoError(t, err)
	assert.Equal(t, "payload", removed)

	_, err = table.Get(id)
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.ErrInvalidHandle))
}
