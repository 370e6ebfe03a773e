package keymanager

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// testScryptParams returns cheap scrypt params suitable for fast tests;
// production vaults use DefaultScryptCostParam (2^16).
func testScryptParams(t *testing.T) ScryptParams {
	t.Helper()
	return ScryptParams{
		Salt:        bytes.Repeat([]byte{0x42}, 8),
		CostParam:   1 << 4,
		BlockSize:   8,
		Parallelism: 1,
	}
}

func TestWrapUnlockRoundTrip(t *testing.T) {
	t.Parallel()

	params := testScryptParams(t)
	encKey := bytes.Repeat([]byte{0x11}, EncKeySize)
	macKey := bytes.Repeat([]byte{0x22}, MacKeySize)

	wrapped, err := Wrap([]byte("correct horse battery staple"), params, encKey, macKey)
	require.NoError(t, err)

	mk, err := Unlock([]byte("correct horse battery staple"), params, wrapped)
	require.NoError(t, err)
	defer mk.Destroy()

	err = mk.WithEncKey(func(k []byte) error {
		assert.Equal(t, encKey, k)
		return nil
	})
	require.NoError(t, err)

	err = mk.WithMacKey(func(k []byte) error {
		assert.Equal(t, macKey, k)
		return nil
	})
	require.NoError(t, err)
}

func TestUnlockWrongPassphrase(t *testing.T) {
	t.Parallel()

	params := testScryptParams(t)
	encKey := bytes.Repeat([]byte{0x11}, EncKeySize)
	macKey := bytes.Repeat([]byte{0x22}, MacKeySize)

	wrapped, err := Wrap([]byte("right passphrase"), params, encKey, macKey)
	require.NoError(t, err)

	_, err = Unlock([]byte("wrong passphrase"), params, wrapped)
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.ErrBadPassphrase))
}

func TestMasterKeyDestroy(t *testing.T) {
	t.Parallel()

	mk, err := newMasterKey(bytes.Repeat([]byte{0x01}, MasterKeySize))
	require.NoError(t, err)

	assert.False(t, mk.Destroyed())
	mk.Destroy()
	assert.True(t, mk.Destroyed())

	err = mk.WithEncKey(func(k []byte) error { return nil })
	assert.True(t, vaulterr.Is(err, vaulterr.ErrKeyDestroyed))

	// Destroy is idempotent.
	mk.Destroy()
}

func TestUnlockRejectsMalformedWrappedKeys(t *testing.T) {
	t.Parallel()

	params := testScryptParams(t)
	_, err := Unlock([]byte("passphrase"), params, WrappedKeys{
		WrappedEncKey: []byte{0x01, 0x02},
		WrappedMacKey: bytes.Repeat([]byte{0x00}, MacKeySize+8),
	})
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.ErrCorruptVault))
}
