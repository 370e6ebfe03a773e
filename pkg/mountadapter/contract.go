// Package mountadapter defines the trait external mount backends
// (FUSE/FSKit/WebDAV/NFS) bind to (§4.10). The vault core never speaks
// any backend's native error vocabulary or handle representation; this
// package is the seam, shaped after DittoFS's pkg/adapter.Adapter
// lifecycle interface and pkg/adapter.ProtocolError translation
// contract, generalized from "protocol server" to "mount backend".
package mountadapter

import (
	"context"

	"github.com/vaultfs/vault8/pkg/vault"
)

// Options carries the mount-time knobs every backend accepts, mirroring
// the subset of DittoFS's SMB/NFS share options that make sense for a
// single-vault mount: read-only enforcement and a display name. Backend-
// specific options (FUSE mount flags, WebDAV listen address, ...) are
// out of scope here and live in each backend's own config type.
type Options struct {
	ReadOnly   bool
	VolumeName string
}

// Handle is the live mount returned by Adapter.Mount: the handle a
// caller uses to discover where the vault landed and to tear the mount
// down again. Every implementation must make Unmount idempotent — a
// second call, or a call after the backend died on its own, must not
// error or panic (§4.10, "drop(MountHandle) → idempotent unmount").
type Handle interface {
	// Mountpoint returns the host filesystem path (or, for WebDAV/NFS,
	// the listen address) the vault is exposed at.
	Mountpoint() string

	// Unmount tears the mount down. Safe to call more than once.
	Unmount() error
}

// Adapter is the capability set a concrete mount backend (FUSE, FSKit,
// WebDAV, NFS) implements. The core holds backends only through this
// interface — see §9 "Dynamic dispatch over mount backends: model as a
// capability set ... plus a tagged variant of concrete adapters at the
// edge".
type Adapter interface {
	// Available reports whether this backend can run at all on the
	// current platform (kernel module present, FSKit entitlement
	// granted, WebDAV port free, ...). Checked before Mount is
	// attempted so callers can fall back to another backend.
	Available() bool

	// Mount exposes v's contents at mountpoint until the returned
	// Handle is unmounted or ctx is cancelled. passphrase has already
	// been consumed by vault.Unlock before this is called — Mount never
	// sees key material, only an already-unlocked *vault.Vault.
	Mount(ctx context.Context, v *vault.Vault, mountpoint string, opts Options) (Handle, error)

	// MapError translates a vaulterr.VaultError into this backend's
	// native error surface (errno, HTTP status, NFS3ERR, ...). Returns
	// nil if err is not a recognized vault error.
	MapError(err error) ProtocolError
}
