// Package vaultconfig parses and validates the two on-disk files that
// describe a vault before it can be unlocked: masterkey.cryptomator (the
// scrypt parameters and wrapped key material) and vault.cryptomator (the
// signed manifest naming the format version and cipher combo).
// masterkey.cryptomator parses without the master key — that's what makes
// key derivation possible in the first place; vault.cryptomator is
// verified under the MAC key once the master key has been unwrapped.
package vaultconfig

import (
	"encoding/base64"
	"encoding/json"

	"github.com/vaultfs/vault8/pkg/keymanager"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// masterkeyFileVersion is the only masterkeyFile.version this build
// understands; Cryptomator has kept this at 999 (a sentinel meaning "see
// vault.cryptomator for the real version") since vault format 7.
const masterkeyFileVersion = 999

// masterkeyFile mirrors the JSON structure of masterkey.cryptomator.
// Field names and casing match the format exactly; this is wire data,
// not Go style.
type masterkeyFile struct {
	ScryptSalt        string `json:"scryptSalt"`
	ScryptCostParam   int    `json:"scryptCostParam"`
	ScryptBlockSize   int    `json:"scryptBlockSize"`
	PrimaryMasterKey  string `json:"primaryMasterKey"`
	HmacMasterKey     string `json:"hmacMasterKey"`
	VersionMac        string `json:"versionMac"`
	Version           int    `json:"version"`
}

// ParseMasterkeyFile decodes masterkey.cryptomator's JSON body into the
// scrypt parameters and wrapped key material keymanager.Unlock needs.
// It does not itself derive or unwrap anything — that stays in
// pkg/keymanager, the sole owner of key material.
func ParseMasterkeyFile(raw []byte) (keymanager.ScryptParams, keymanager.WrappedKeys, error) {
	var mf masterkeyFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return keymanager.ScryptParams{}, keymanager.WrappedKeys{}, vaulterr.Wrap(vaulterr.ErrCorruptVault, "masterkey.cryptomator is not valid JSON", err)
	}
	if mf.Version != masterkeyFileVersion {
		return keymanager.ScryptParams{}, keymanager.WrappedKeys{}, vaulterr.New(vaulterr.ErrUnsupportedVersion, "unrecognized masterkey.cryptomator version")
	}

	salt, err := base64.StdEncoding.DecodeString(mf.ScryptSalt)
	if err != nil {
		return keymanager.ScryptParams{}, keymanager.WrappedKeys{}, vaulterr.Wrap(vaulterr.ErrCorruptVault, "scryptSalt is not valid base64", err)
	}
	encKey, err := base64.StdEncoding.DecodeString(mf.PrimaryMasterKey)
	if err != nil {
		return keymanager.ScryptParams{}, keymanager.WrappedKeys{}, vaulterr.Wrap(vaulterr.ErrCorruptVault, "primaryMasterKey is not valid base64", err)
	}
	macKey, err := base64.StdEncoding.DecodeString(mf.HmacMasterKey)
	if err != nil {
		return keymanager.ScryptParams{}, keymanager.WrappedKeys{}, vaulterr.Wrap(vaulterr.ErrCorruptVault, "hmacMasterKey is not valid base64", err)
	}
	if mf.ScryptCostParam <= 0 || mf.ScryptBlockSize <= 0 {
		return keymanager.ScryptParams{}, keymanager.WrappedKeys{}, vaulterr.New(vaulterr.ErrCorruptVault, "scrypt parameters must be positive")
	}

	params := keymanager.ScryptParams{
		Salt:        salt,
		CostParam:   mf.ScryptCostParam,
		BlockSize:   mf.ScryptBlockSize,
		Parallelism: keymanager.DefaultScryptParallelism,
	}
	wrapped := keymanager.WrappedKeys{
		WrappedEncKey: encKey,
		WrappedMacKey: macKey,
	}
	return params, wrapped, nil
}

// EncodeMasterkeyFile serializes scrypt parameters and wrapped keys back
// into masterkey.cryptomator's JSON shape, for vault creation. versionMac
// is the caller's responsibility (it's an HMAC over the version field
// under the unwrapped MAC key, computed only once the keys exist).
func EncodeMasterkeyFile(params keymanager.ScryptParams, wrapped keymanager.WrappedKeys, versionMac []byte) ([]byte, error) {
	mf := masterkeyFile{
		ScryptSalt:       base64.StdEncoding.EncodeToString(params.Salt),
		ScryptCostParam:  params.CostParam,
		ScryptBlockSize:  params.BlockSize,
		PrimaryMasterKey: base64.StdEncoding.EncodeToString(wrapped.WrappedEncKey),
		HmacMasterKey:    base64.StdEncoding.EncodeToString(wrapped.WrappedMacKey),
		VersionMac:       base64.StdEncoding.EncodeToString(versionMac),
		Version:          masterkeyFileVersion,
	}
	out, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "failed to encode masterkey.cryptomator", err)
	}
	return out, nil
}
