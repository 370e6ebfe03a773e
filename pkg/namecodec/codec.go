// Package namecodec implements Cryptomator's filename encryption: a
// deterministic AEAD (AES-SIV) construction that binds every encrypted
// name to the DirId of the directory that contains it, plus the
// shortening policy used when an encoded name would overflow typical
// host filesystem basename limits.
//
// Grounded on the AES-SIV filename/dirID cryptor used by rclone's
// Cryptomator backend: the same miscreant.go SIV construction, the same
// key order (mac key ‖ enc key), the same SHA1 + base32 shard hash for
// directory ids and SHA1 + base64url hash for shortened names.
package namecodec

import (
	"crypto/sha1"
	"encoding/base32"
	"encoding/base64"

	"github.com/miscreant/miscreant.go"
	"golang.org/x/text/unicode/norm"

	"github.com/vaultfs/vault8/pkg/keymanager"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// ShorteningThreshold is the default maximum length, in characters, of an
// encoded `<name>.c9r` basename before it must be shortened into a
// `<hash>.c9s/name.c9s` shard. Vault manifests may override this.
const ShorteningThreshold = 220

var b64 = base64.URLEncoding.WithPadding(base64.NoPadding)

// Codec encrypts and decrypts filenames and directory ids for a single
// unlocked vault. It holds no secret state of its own beyond the
// miscreant cipher, which is itself keyed from (and only from) the
// vault's master key.
type Codec struct {
	siv *miscreant.Cipher
}

// New builds a Codec from the vault's master key. The SIV cipher takes
// ownership of a derived mac‖enc key; that derived key is wiped as soon
// as the cipher is constructed.
func New(mk *keymanager.MasterKey) (*Codec, error) {
	var siv *miscreant.Cipher
	err := mk.WithSIVKey(func(key []byte) error {
		c, err := miscreant.NewAESCMACSIV(key)
		if err != nil {
			return err
		}
		siv = c
		return nil
	})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "failed to initialize name cipher", err)
	}
	return &Codec{siv: siv}, nil
}

// normalize applies Unicode NFC normalization, the canonical form
// filenames are compared and encrypted in so that "café" composed and
// decomposed forms encrypt identically.
func normalize(name string) string {
	return norm.NFC.String(name)
}

// EncryptName encrypts a cleartext basename under the given parent DirId,
// returning the storage-basename ciphertext component (without any
// `.c9r` suffix or shortening applied — see Shorten).
func (c *Codec) EncryptName(name, parentDirID string) (string, error) {
	normalized := normalize(name)
	ciphertext, err := c.siv.Seal(nil, []byte(normalized), []byte(parentDirID))
	if err != nil {
		return "", vaulterr.NewNameIntegrityError(parentDirID, "")
	}
	return b64.EncodeToString(ciphertext), nil
}

// DecryptName decrypts an encoded basename under the given parent DirId.
// Returns vaulterr.ErrNameIntegrity if the SIV tag does not verify — the
// name was encrypted under a different DirId, or has been tampered with.
func (c *Codec) DecryptName(encoded, parentDirID string) (string, error) {
	raw, err := b64.DecodeString(encoded)
	if err != nil {
		return "", vaulterr.NewNameIntegrityError(parentDirID, encoded)
	}
	plaintext, err := c.siv.Open(nil, raw, []byte(parentDirID))
	if err != nil {
		return "", vaulterr.NewNameIntegrityError(parentDirID, encoded)
	}
	return string(plaintext), nil
}

// EncryptDirID encrypts a cleartext DirId (a UUID string, or the empty
// string for the root) into the opaque ciphertext used as associated
// data for every name stored inside that directory, and as the seed for
// its on-disk shard path (see pkg/dirmodel).
func (c *Codec) EncryptDirID(dirID string) ([]byte, error) {
	ciphertext, err := c.siv.Seal(nil, []byte(dirID))
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "failed to encrypt directory id", err)
	}
	return ciphertext, nil
}

// DirShardHash computes the SHA1-then-base32 digest of an encrypted DirId.
// SHA1 produces 20 bytes, which base32 (RFC 4648, no padding needed) turns
// into exactly 32 characters — pkg/dirmodel splits this into the 2-char
// shard prefix and 30-char shard suffix that make up a directory's
// on-disk path. Base32 (not base64) matches the on-disk format this
// vault is bit-compatible with.
func DirShardHash(encryptedDirID []byte) string {
	sum := sha1.Sum(encryptedDirID)
	return base32.StdEncoding.EncodeToString(sum[:])
}

// NeedsShortening reports whether an encoded `<name>.c9r` basename
// exceeds threshold characters and must be stored as a `.c9s` shard
// instead.
func NeedsShortening(encodedBasename string, threshold int) bool {
	return len(encodedBasename) > threshold
}

// Shorten computes the `<hash>.c9s` shard name for an overlong encoded
// `<name>.c9r` basename. The full basename (the argument, untruncated)
// must still be written verbatim into that shard's `name.c9s` file by
// the caller (pkg/dirmodel) — the hash Shorten returns does not recover it.
func Shorten(encodedBasenameWithSuffix string) string {
	sum := sha1.Sum([]byte(encodedBasenameWithSuffix))
	return b64.EncodeToString(sum[:])
}
