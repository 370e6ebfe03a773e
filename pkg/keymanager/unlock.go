package keymanager

import (
	"crypto/rand"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/scrypt"

	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// DefaultScryptCostParam, DefaultScryptBlockSize, and DefaultScryptParallelism
// are the parameters Cryptomator Vault Format 8 uses for newly created
// vaults: N=2^16, r=8, p=1.
const (
	DefaultScryptCostParam   = 1 << 16
	DefaultScryptBlockSize   = 8
	DefaultScryptParallelism = 1
	scryptSaltSize           = 8
)

// NewScryptParams returns ScryptParams with the default cost parameters and
// a freshly generated random salt, suitable for creating a new vault.
func NewScryptParams() (ScryptParams, error) {
	salt := make([]byte, scryptSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return ScryptParams{}, vaulterr.Wrap(vaulterr.ErrIO, "failed to generate scrypt salt", err)
	}
	return ScryptParams{
		Salt:        salt,
		CostParam:   DefaultScryptCostParam,
		BlockSize:   DefaultScryptBlockSize,
		Parallelism: DefaultScryptParallelism,
	}, nil
}

// ScryptParams are the key-derivation parameters read from a vault's
// masterkey file. They determine how expensive it is to brute-force the
// passphrase; higher N means a slower, more memory-hungry derivation.
type ScryptParams struct {
	Salt           []byte
	CostParam      int // N, must be a power of two
	BlockSize      int // r
	Parallelism    int // p
}

// WrappedKeys holds the two AES Key Wrap ciphertexts stored in a vault's
// masterkey file, each 40 bytes (32-byte key + 8-byte integrity check value).
type WrappedKeys struct {
	WrappedEncKey []byte
	WrappedMacKey []byte
}

// Unlock derives the key-encryption key from passphrase via scrypt, then
// unwraps both the encryption and MAC keys with RFC 3394 AES Key Wrap.
// It returns vaulterr.ErrBadPassphrase if either unwrap's integrity check
// fails, which in practice means the passphrase was wrong (or the vault is
// corrupt).
//
// passphrase is wiped from the caller-visible slice before returning in
// every code path; callers should pass a slice they're prepared to lose.
func Unlock(passphrase []byte, params ScryptParams, wrapped WrappedKeys) (*MasterKey, error) {
	defer memguard.WipeBytes(passphrase)

	if len(wrapped.WrappedEncKey) != EncKeySize+8 || len(wrapped.WrappedMacKey) != MacKeySize+8 {
		return nil, vaulterr.NewCorruptVaultError("wrapped master key has unexpected length")
	}

	kek, err := scrypt.Key(passphrase, params.Salt, params.CostParam, params.BlockSize, params.Parallelism, EncKeySize)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "scrypt key derivation failed", err)
	}
	defer memguard.WipeBytes(kek)

	encKey, err := aesKeyUnwrap(kek, wrapped.WrappedEncKey)
	if err != nil {
		logger.Debug("master key unwrap failed", "key", "enc")
		return nil, err
	}
	macKey, err := aesKeyUnwrap(kek, wrapped.WrappedMacKey)
	if err != nil {
		memguard.WipeBytes(encKey)
		logger.Debug("master key unwrap failed", "key", "mac")
		return nil, err
	}

	combined := make([]byte, 0, MasterKeySize)
	combined = append(combined, encKey...)
	combined = append(combined, macKey...)
	memguard.WipeBytes(encKey)
	memguard.WipeBytes(macKey)

	return newMasterKey(combined)
}

// Wrap derives a key-encryption key from passphrase via scrypt and wraps
// encKey and macKey with it, producing the ciphertexts stored in a new
// vault's masterkey file. Used by vault creation, not by unlock.
func Wrap(passphrase []byte, params ScryptParams, encKey, macKey []byte) (WrappedKeys, error) {
	defer memguard.WipeBytes(passphrase)

	if len(encKey) != EncKeySize || len(macKey) != MacKeySize {
		return WrappedKeys{}, vaulterr.NewInvalidArgumentError("key material has wrong length")
	}

	kek, err := scrypt.Key(passphrase, params.Salt, params.CostParam, params.BlockSize, params.Parallelism, EncKeySize)
	if err != nil {
		return WrappedKeys{}, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "scrypt key derivation failed", err)
	}
	defer memguard.WipeBytes(kek)

	wrappedEnc, err := aesKeyWrap(kek, encKey)
	if err != nil {
		return WrappedKeys{}, err
	}
	wrappedMac, err := aesKeyWrap(kek, macKey)
	if err != nil {
		return WrappedKeys{}, err
	}

	return WrappedKeys{WrappedEncKey: wrappedEnc, WrappedMacKey: wrappedMac}, nil
}
