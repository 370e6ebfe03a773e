package mountadapter

import "github.com/vaultfs/vault8/pkg/vaulterr"

// NFSv3 status codes (RFC 1813 §2.6), grounded on the constant names
// DittoFS's own NFS adapter documents in pkg/adapter.ProtocolError's doc
// comment (NFS3ERR_NOENT, NFS3ERR_ACCES, ...).
const (
	nfs3ErrPerm      uint32 = 1
	nfs3ErrNoEnt     uint32 = 2
	nfs3ErrIO        uint32 = 5
	nfs3ErrAcces     uint32 = 13
	nfs3ErrExist     uint32 = 17
	nfs3ErrNotDir    uint32 = 20
	nfs3ErrInval     uint32 = 22
	nfs3ErrROFS      uint32 = 30
	nfs3ErrNotEmpty  uint32 = 66
	nfs3ErrStale     uint32 = 70
	nfs3ErrBadHandle uint32 = 10001
	nfs3ErrJukebox   uint32 = 10008
)

// NFSClassifier implements Adapter.MapError for the NFS backend.
type NFSClassifier struct{}

// MapError translates err into an NFS3ERR status code.
func (NFSClassifier) MapError(err error) ProtocolError {
	ve, ok := err.(*vaulterr.VaultError)
	if !ok {
		return nil
	}
	code, msg := nfs3StatusFor(ve)
	return New(code, msg, ve)
}

func nfs3StatusFor(ve *vaulterr.VaultError) (uint32, string) {
	switch ve.Code {
	case vaulterr.ErrNotFound:
		return nfs3ErrNoEnt, "NFS3ERR_NOENT"
	case vaulterr.ErrAlreadyExists:
		return nfs3ErrExist, "NFS3ERR_EXIST"
	case vaulterr.ErrNotEmpty:
		return nfs3ErrNotEmpty, "NFS3ERR_NOTEMPTY"
	case vaulterr.ErrInvalidArgument:
		return nfs3ErrInval, "NFS3ERR_INVAL"
	case vaulterr.ErrInvalidHandle, vaulterr.ErrStaleHandle:
		return nfs3ErrStale, "NFS3ERR_STALE"
	case vaulterr.ErrReadOnly:
		return nfs3ErrROFS, "NFS3ERR_ROFS"
	case vaulterr.ErrLocked, vaulterr.ErrDeadlock:
		return nfs3ErrJukebox, "NFS3ERR_JUKEBOX"
	case vaulterr.ErrHeaderIntegrity, vaulterr.ErrChunkIntegrity, vaulterr.ErrNameIntegrity,
		vaulterr.ErrCorruptVault, vaulterr.ErrBadPassphrase, vaulterr.ErrBadManifestSignature,
		vaulterr.ErrUnsupportedVersion, vaulterr.ErrUnsupportedCipherCombo, vaulterr.ErrKeyDestroyed:
		return nfs3ErrIO, "NFS3ERR_IO"
	case vaulterr.ErrIO:
		return nfs3ErrIO, "NFS3ERR_IO"
	default:
		return nfs3ErrIO, "NFS3ERR_IO"
	}
}
