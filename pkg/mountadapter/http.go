package mountadapter

import "github.com/vaultfs/vault8/pkg/vaulterr"

// HTTPClassifier implements Adapter.MapError for the WebDAV backend,
// translating core errors into the HTTP status codes a WebDAV response
// should carry.
type HTTPClassifier struct{}

// MapError translates err into a WebDAV-appropriate HTTP status.
func (HTTPClassifier) MapError(err error) ProtocolError {
	ve, ok := err.(*vaulterr.VaultError)
	if !ok {
		return nil
	}
	code, msg := httpStatusFor(ve)
	return New(code, msg, ve)
}

func httpStatusFor(ve *vaulterr.VaultError) (uint32, string) {
	switch ve.Code {
	case vaulterr.ErrNotFound:
		return 404, "Not Found"
	case vaulterr.ErrAlreadyExists:
		return 412, "Precondition Failed"
	case vaulterr.ErrNotEmpty:
		return 409, "Conflict"
	case vaulterr.ErrInvalidArgument:
		return 400, "Bad Request"
	case vaulterr.ErrInvalidHandle, vaulterr.ErrStaleHandle:
		return 410, "Gone"
	case vaulterr.ErrReadOnly:
		return 403, "Forbidden"
	case vaulterr.ErrLocked:
		return 423, "Locked"
	case vaulterr.ErrDeadlock:
		return 503, "Service Unavailable"
	case vaulterr.ErrHeaderIntegrity, vaulterr.ErrChunkIntegrity, vaulterr.ErrNameIntegrity,
		vaulterr.ErrCorruptVault, vaulterr.ErrBadPassphrase, vaulterr.ErrBadManifestSignature,
		vaulterr.ErrUnsupportedVersion, vaulterr.ErrUnsupportedCipherCombo, vaulterr.ErrKeyDestroyed:
		return 500, "Internal Server Error"
	case vaulterr.ErrIO:
		return 500, "Internal Server Error"
	default:
		return 500, "Internal Server Error"
	}
}
