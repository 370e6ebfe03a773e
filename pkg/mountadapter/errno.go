package mountadapter

import "github.com/vaultfs/vault8/pkg/vaulterr"

// POSIX errno values FUSE/FSKit backends translate core errors into.
// Defined as plain numeric constants rather than syscall.Errno so this
// package stays buildable on every GOOS the vault core itself targets;
// a FUSE/FSKit backend converts these to its platform's syscall.Errno
// at its own call site.
const (
	errnoNoEnt    uint32 = 2   // ENOENT
	errnoBadF     uint32 = 9   // EBADF
	errnoIO       uint32 = 5   // EIO
	errnoAgain    uint32 = 11  // EAGAIN
	errnoAcces    uint32 = 13  // EACCES
	errnoExist    uint32 = 17  // EEXIST
	errnoNotDir   uint32 = 20  // ENOTDIR
	errnoInval    uint32 = 22  // EINVAL
	errnoROFS     uint32 = 30  // EROFS
	errnoNotEmpty uint32 = 39  // ENOTEMPTY
	errnoStale    uint32 = 116 // ESTALE
)

// ErrnoClassifier implements Adapter.MapError for POSIX-shaped backends
// (FUSE, FSKit).
type ErrnoClassifier struct{}

// MapError translates err into the errno a FUSE/FSKit backend should
// return from its operation callback.
func (ErrnoClassifier) MapError(err error) ProtocolError {
	ve, ok := err.(*vaulterr.VaultError)
	if !ok {
		return nil
	}
	code, msg := errnoFor(ve)
	return New(code, msg, ve)
}

func errnoFor(ve *vaulterr.VaultError) (uint32, string) {
	switch ve.Code {
	case vaulterr.ErrNotFound:
		return errnoNoEnt, "no such file or directory"
	case vaulterr.ErrAlreadyExists:
		return errnoExist, "file exists"
	case vaulterr.ErrNotEmpty:
		return errnoNotEmpty, "directory not empty"
	case vaulterr.ErrInvalidArgument:
		return errnoInval, "invalid argument"
	case vaulterr.ErrInvalidHandle, vaulterr.ErrStaleHandle:
		return errnoBadF, "bad file descriptor"
	case vaulterr.ErrReadOnly:
		return errnoROFS, "read-only file system"
	case vaulterr.ErrLocked, vaulterr.ErrDeadlock:
		return errnoAgain, "resource temporarily unavailable"
	case vaulterr.ErrHeaderIntegrity, vaulterr.ErrChunkIntegrity, vaulterr.ErrNameIntegrity,
		vaulterr.ErrCorruptVault, vaulterr.ErrBadPassphrase, vaulterr.ErrBadManifestSignature,
		vaulterr.ErrUnsupportedVersion, vaulterr.ErrUnsupportedCipherCombo, vaulterr.ErrKeyDestroyed:
		return errnoIO, "input/output error"
	case vaulterr.ErrIO:
		return errnoIO, "input/output error"
	default:
		return errnoIO, "input/output error"
	}
}
