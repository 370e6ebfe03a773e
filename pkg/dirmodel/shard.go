package dirmodel

import (
	"path/filepath"

	"github.com/vaultfs/vault8/pkg/namecodec"
)

// dirIDFileName is the optional backup pointer written inside every
// directory's shard, whose plaintext is the *parent* DirId.
const dirIDFileName = "dirid.c9r"

const (
	dirFileName     = "dir.c9r"
	symlinkFileName = "symlink.c9r"
	contentsFileName = "contents.c9r"
	nameFileName    = "name.c9s"

	c9rSuffix = ".c9r"
	c9sSuffix = ".c9s"

	shardPrefixLen = 2
)

// ShardPath returns the host filesystem path of the physical directory
// that holds id's contents: `<vaultRoot>/d/<XX>/<YY...Y>/`, where XX/YYY
// is the base32 SHA1 digest of id's SIV-encrypted form, split 2/30 (§3).
func ShardPath(vaultRoot string, id ID, codec *namecodec.Codec) (string, error) {
	encrypted, err := codec.EncryptDirID(string(id))
	if err != nil {
		return "", err
	}
	hash := namecodec.DirShardHash(encrypted)
	return filepath.Join(vaultRoot, "d", hash[:shardPrefixLen], hash[shardPrefixLen:]), nil
}
