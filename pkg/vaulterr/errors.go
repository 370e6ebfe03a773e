// Package vaulterr provides the error taxonomy shared across the vault
// core. This is a leaf package with no internal dependencies, designed to
// be imported by every other vault package without causing circular
// imports.
//
// Import graph: vaulterr <- vaultlock <- vault <- mountadapter
package vaulterr

import (
	"fmt"
)

// Code represents the category of error that occurred.
type Code int

const (
	// ErrBadPassphrase indicates master key unwrap's integrity check failed.
	ErrBadPassphrase Code = iota + 1

	// ErrBadManifestSignature indicates the signed vault config failed verification.
	ErrBadManifestSignature

	// ErrUnsupportedVersion indicates the vault format version is not Format 8.
	ErrUnsupportedVersion

	// ErrUnsupportedCipherCombo indicates the manifest names a cipher combo this build doesn't implement.
	ErrUnsupportedCipherCombo

	// ErrHeaderIntegrity indicates a per-file header AEAD failure.
	ErrHeaderIntegrity

	// ErrChunkIntegrity indicates a per-chunk AEAD failure. Carries Index.
	ErrChunkIntegrity

	// ErrNameIntegrity indicates a filename SIV failure. Carries DirID and Encoded.
	ErrNameIntegrity

	// ErrNotFound indicates the requested path does not exist in the vault.
	ErrNotFound

	// ErrAlreadyExists indicates the destination path already exists. Emitted
	// by *_exclusive and create_* operations.
	ErrAlreadyExists

	// ErrNotEmpty indicates a directory removal was refused because it has children.
	ErrNotEmpty

	// ErrInvalidArgument indicates a malformed path or unsupported operation.
	ErrInvalidArgument

	// ErrIO indicates a host-filesystem error, surfaced with structured context.
	ErrIO

	// ErrCorruptVault indicates a structural invariant of the on-disk layout was violated.
	ErrCorruptVault

	// ErrInvalidHandle indicates the file or directory handle is invalid.
	ErrInvalidHandle

	// ErrStaleHandle indicates the handle was valid but its target was since removed.
	ErrStaleHandle

	// ErrLocked indicates the resource is locked by another handle.
	ErrLocked

	// ErrDeadlock indicates a lock acquisition would violate the ordering rules.
	ErrDeadlock

	// ErrReadOnly indicates the operation failed because the vault is mounted read-only.
	ErrReadOnly

	// ErrKeyDestroyed indicates an operation was attempted on a master key that has already been wiped.
	ErrKeyDestroyed
)

// String returns a human-readable name for the error code.
func (c Code) String() string {
	switch c {
	case ErrBadPassphrase:
		return "BadPassphrase"
	case ErrBadManifestSignature:
		return "BadManifestSignature"
	case ErrUnsupportedVersion:
		return "UnsupportedVersion"
	case ErrUnsupportedCipherCombo:
		return "UnsupportedCipherCombo"
	case ErrHeaderIntegrity:
		return "HeaderIntegrity"
	case ErrChunkIntegrity:
		return "ChunkIntegrity"
	case ErrNameIntegrity:
		return "NameIntegrity"
	case ErrNotFound:
		return "NotFound"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrNotEmpty:
		return "NotEmpty"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrIO:
		return "Io"
	case ErrCorruptVault:
		return "CorruptVault"
	case ErrInvalidHandle:
		return "InvalidHandle"
	case ErrStaleHandle:
		return "StaleHandle"
	case ErrLocked:
		return "Locked"
	case ErrDeadlock:
		return "Deadlock"
	case ErrReadOnly:
		return "ReadOnly"
	case ErrKeyDestroyed:
		return "KeyDestroyed"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// VaultError is the error type returned by every operation in the vault
// core. It carries a Code for programmatic dispatch by mount adapters plus
// the contextual fields named in the error taxonomy: path, directory id,
// filename/encoded basename, and chunk index, as relevant to the code.
type VaultError struct {
	Code       Code
	Message    string
	Path       string
	DirID      string
	Encoded    string
	ChunkIndex int64 // -1 when not applicable
	Err        error // wrapped cause, if any
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.DirID != "" {
		msg += fmt.Sprintf(" (dir_id: %s)", e.DirID)
	}
	if e.Encoded != "" {
		msg += fmt.Sprintf(" (encoded: %s)", e.Encoded)
	}
	if e.ChunkIndex >= 0 {
		msg += fmt.Sprintf(" (chunk: %d)", e.ChunkIndex)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *VaultError) Unwrap() error {
	return e.Err
}

// ============================================================================
// Factory functions
// ============================================================================

// New creates a VaultError with the given code and message.
func New(code Code, message string) *VaultError {
	return &VaultError{Code: code, Message: message, ChunkIndex: -1}
}

// Wrap creates a VaultError with the given code, message, and underlying cause.
func Wrap(code Code, message string, err error) *VaultError {
	return &VaultError{Code: code, Message: message, ChunkIndex: -1, Err: err}
}

// NewBadPassphraseError creates a BadPassphrase error.
func NewBadPassphraseError() *VaultError {
	return New(ErrBadPassphrase, "passphrase does not unlock this vault")
}

// NewBadManifestSignatureError creates a BadManifestSignature error.
func NewBadManifestSignatureError(reason string) *VaultError {
	return New(ErrBadManifestSignature, reason)
}

// NewUnsupportedVersionError creates an UnsupportedVersion error.
func NewUnsupportedVersionError(got, want int) *VaultError {
	return New(ErrUnsupportedVersion, fmt.Sprintf("vault format version %d is not supported (want %d)", got, want))
}

// NewUnsupportedCipherComboError creates an UnsupportedCipherCombo error.
func NewUnsupportedCipherComboError(combo string) *VaultError {
	return New(ErrUnsupportedCipherCombo, fmt.Sprintf("cipher combo %q is not supported", combo))
}

// NewHeaderIntegrityError creates a HeaderIntegrity error.
func NewHeaderIntegrityError(path string) *VaultError {
	e := New(ErrHeaderIntegrity, "file header authentication failed")
	e.Path = path
	return e
}

// NewChunkIntegrityError creates a ChunkIntegrity error carrying the chunk index.
func NewChunkIntegrityError(path string, index int64) *VaultError {
	e := New(ErrChunkIntegrity, "chunk authentication failed")
	e.Path = path
	e.ChunkIndex = index
	return e
}

// NewNameIntegrityError creates a NameIntegrity error carrying the parent DirId
// and the encoded basename that failed to decrypt under it.
func NewNameIntegrityError(dirID, encoded string) *VaultError {
	e := New(ErrNameIntegrity, "filename authentication failed")
	e.DirID = dirID
	e.Encoded = encoded
	return e
}

// NewNotFoundError creates a NotFound error.
func NewNotFoundError(path string) *VaultError {
	e := New(ErrNotFound, "path not found")
	e.Path = path
	return e
}

// NewAlreadyExistsError creates an AlreadyExists error.
func NewAlreadyExistsError(path string) *VaultError {
	e := New(ErrAlreadyExists, "path already exists")
	e.Path = path
	return e
}

// NewNotEmptyError creates a NotEmpty error.
func NewNotEmptyError(path string) *VaultError {
	e := New(ErrNotEmpty, "directory not empty")
	e.Path = path
	return e
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *VaultError {
	return New(ErrInvalidArgument, message)
}

// NewIOError wraps a host-filesystem error with a path and context string.
func NewIOError(path, context string, cause error) *VaultError {
	e := Wrap(ErrIO, context, cause)
	e.Path = path
	return e
}

// NewCorruptVaultError creates a CorruptVault error.
func NewCorruptVaultError(detail string) *VaultError {
	return New(ErrCorruptVault, detail)
}

// NewInvalidHandleError creates an InvalidHandle error.
func NewInvalidHandleError() *VaultError {
	return New(ErrInvalidHandle, "invalid or closed handle")
}

// NewStaleHandleError creates a StaleHandle error.
func NewStaleHandleError(path string) *VaultError {
	e := New(ErrStaleHandle, "handle target no longer exists")
	e.Path = path
	return e
}

// NewReadOnlyError creates a ReadOnly error.
func NewReadOnlyError(path string) *VaultError {
	e := New(ErrReadOnly, "vault is mounted read-only")
	e.Path = path
	return e
}

// NewKeyDestroyedError creates a KeyDestroyed error.
func NewKeyDestroyedError() *VaultError {
	return New(ErrKeyDestroyed, "master key has been wiped")
}

// NewLockedError creates a Locked error.
func NewLockedError(path string) *VaultError {
	e := New(ErrLocked, "resource is locked")
	e.Path = path
	return e
}

// NewDeadlockError creates a Deadlock error.
func NewDeadlockError(path string) *VaultError {
	e := New(ErrDeadlock, "lock acquisition would violate ordering rules")
	e.Path = path
	return e
}

// ============================================================================
// Error type checking helpers
// ============================================================================

// Is reports whether err is a *VaultError with the given code.
func Is(err error, code Code) bool {
	ve, ok := err.(*VaultError)
	return ok && ve.Code == code
}

// IsNotFound returns true if err is a NotFound error.
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound)
}

// IsAlreadyExists returns true if err is an AlreadyExists error.
func IsAlreadyExists(err error) bool {
	return Is(err, ErrAlreadyExists)
}

// IsChunkIntegrity returns true if err is a ChunkIntegrity error.
func IsChunkIntegrity(err error) bool {
	return Is(err, ErrChunkIntegrity)
}

// IsNameIntegrity returns true if err is a NameIntegrity error.
func IsNameIntegrity(err error) bool {
	return Is(err, ErrNameIntegrity)
}
