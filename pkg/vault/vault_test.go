package vault

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/keymanager"
	"github.com/vaultfs/vault8/pkg/namecodec"
	"github.com/vaultfs/vault8/pkg/vaultconfig"
)

const (
	testRoot       = "/vault"
	testPassphrase = "correct horse battery staple"
)

// newTestVault builds a complete, minimal-cost vault on an in-memory
// filesystem and unlocks it, returning the live *Vault the rest of a
// test drives. Every vault test in this package starts here rather
// than hand-assembling masterkey.cryptomator/vault.cryptomator, so a
// change to the on-disk layout only needs to be taught to this one
// fixture.
func newTestVault(t *testing.T) *Vault {
	t.Helper()

	fs := afero.NewMemMapFs()
	encKey := bytes.Repeat([]byte{0x11}, keymanager.EncKeySize)
	macKey := bytes.Repeat([]byte{0x22}, keymanager.MacKeySize)
	params := keymanager.ScryptParams{
		Salt:        bytes.Repeat([]byte{0x33}, 8),
		CostParam:   1 << 4,
		BlockSize:   8,
		Parallelism: 1,
	}

	wrapped, err := keymanager.Wrap([]byte(testPassphrase), params, encKey, macKey)
	require.NoError(t, err)

	mkRaw, err := vaultconfig.EncodeMasterkeyFile(params, wrapped, []byte("mac"))
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll(testRoot, 0o700))
	require.NoError(t, afero.WriteFile(fs, testRoot+"/masterkey.cryptomator", mkRaw, 0o600))

	combined := append(append([]byte{}, encKey...), macKey...)
	signingKey, err := keymanager.NewMasterKeyForTesting(combined)
	require.NoError(t, err)

	cfg := vaultconfig.VaultConfig{
		Format:              vaultconfig.SupportedFormat,
		CipherCombo:         vaultconfig.CipherComboSivGcm,
		ShorteningThreshold: namecodec.ShorteningThreshold,
		KeyID:               "masterkeyfile:masterkey.cryptomator",
	}
	token, err := vaultconfig.EncodeManifest(cfg, signingKey)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, testRoot+"/vault.cryptomator", []byte(token), 0o600))

	codec, err := namecodec.New(signingKey)
	require.NoError(t, err)
	signingKey.Destroy()

	rootShard, err := dirmodel.ShardPath(testRoot, dirmodel.RootID, codec)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll(rootShard, 0o700))

	v, err := Unlock(context.Background(), fs, testRoot, []byte(testPassphrase))
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}
