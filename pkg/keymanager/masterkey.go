// Package keymanager derives and guards the Cryptomator master key: the
// 64-byte secret (a 32-byte encryption key and a 32-byte MAC key) that
// every other vault package ultimately depends on. The master key never
// leaves this package as a plain []byte; callers borrow it through scoped
// closures backed by a memguard.LockedBuffer so a core dump or a stray
// log statement elsewhere in the process can't leak it.
package keymanager

import (
	"sync"

	"github.com/awnumar/memguard"

	"github.com/vaultfs/vault8/pkg/vaulterr"
)

const (
	// EncKeySize is the size in bytes of the AES content/filename encryption key.
	EncKeySize = 32
	// MacKeySize is the size in bytes of the HMAC/SIV MAC key.
	MacKeySize = 32
	// MasterKeySize is the combined size of the unwrapped master key material.
	MasterKeySize = EncKeySize + MacKeySize
)

// MasterKey holds the unwrapped vault master key in locked, non-swappable
// memory. The zero value is not usable; construct one via Unlock.
type MasterKey struct {
	mu      sync.RWMutex
	buf     *memguard.LockedBuffer
	wiped   bool
}

// newMasterKey takes ownership of encKey||macKey (each EncKeySize/MacKeySize
// bytes) and copies them into locked memory, wiping the plaintext source
// buffer afterwards.
func newMasterKey(combined []byte) (*MasterKey, error) {
	if len(combined) != MasterKeySize {
		memguard.WipeBytes(combined)
		return nil, vaulterr.NewInvalidArgumentError("master key material has wrong length")
	}
	buf := memguard.NewBufferFromBytes(combined)
	return &MasterKey{buf: buf}, nil
}

// WithEncKey invokes fn with the 32-byte encryption key. The slice passed to
// fn is only valid for the duration of the call; it must not be retained.
func (k *MasterKey) WithEncKey(fn func(key []byte) error) error {
	return k.withSlice(0, EncKeySize, fn)
}

// WithMacKey invokes fn with the 32-byte MAC key. The slice passed to fn is
// only valid for the duration of the call; it must not be retained.
func (k *MasterKey) WithMacKey(fn func(key []byte) error) error {
	return k.withSlice(EncKeySize, MacKeySize, fn)
}

// WithSIVKey invokes fn with macKey||encKey concatenated, the key order
// AES-SIV-CMAC expects for its doubled-length key. The slice passed to fn
// is only valid for the duration of the call and is wiped immediately
// after fn returns.
func (k *MasterKey) WithSIVKey(fn func(key []byte) error) error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.wiped {
		return vaulterr.NewKeyDestroyedError()
	}
	raw := k.buf.Bytes()
	sivKey := make([]byte, 0, MasterKeySize)
	sivKey = append(sivKey, raw[EncKeySize:MasterKeySize]...) // mac key
	sivKey = append(sivKey, raw[0:EncKeySize]...)             // enc key
	defer memguard.WipeBytes(sivKey)
	return fn(sivKey)
}

func (k *MasterKey) withSlice(offset, length int, fn func(key []byte) error) error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.wiped {
		return vaulterr.NewKeyDestroyedError()
	}
	return fn(k.buf.Bytes()[offset : offset+length])
}

// Destroy wipes the master key from memory. Safe to call multiple times and
// safe to call concurrently with WithEncKey/WithMacKey/WithSIVKey, which
// will return ErrKeyDestroyed once this completes.
func (k *MasterKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.wiped {
		return
	}
	k.buf.Destroy()
	k.wiped = true
}

// Destroyed reports whether the master key has already been wiped.
func (k *MasterKey) Destroyed() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.wiped
}

// NewMasterKeyForTesting builds a MasterKey directly from combined
// encKey||macKey material, bypassing Unlock's scrypt/unwrap steps. Other
// vault packages use it to build fixtures without paying scrypt's cost in
// every test; production code must always go through Unlock.
func NewMasterKeyForTesting(combined []byte) (*MasterKey, error) {
	cp := make([]byte, len(combined))
	copy(cp, combined)
	return newMasterKey(cp)
}
