package dirmodel

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/namecodec"
	"github.com/vaultfs/vault8/pkg/streaming"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// PreparePayload computes the on-disk locations a new entry named name
// (inside parentID) must be created at, creating the `.c9s` shard
// directory and writing its name.c9s sidecar first when the encoded name
// needs shortening. It does not create the payload file itself, nor any
// directory marker — callers do that at PayloadPath (and, for
// directories, at EntryPath since the entry container itself is the
// directory that holds dir.c9r).
//
// Returns vaulterr.ErrAlreadyExists if something is already at EntryPath.
func PreparePayload(fs afero.Fs, shardPath string, codec *namecodec.Codec, parentID ID, name string, threshold int, kind Kind) (*Entry, error) {
	encoded, err := codec.EncryptName(name, string(parentID))
	if err != nil {
		return nil, err
	}
	basename := encoded + c9rSuffix

	e := &Entry{EncodedName: encoded, Kind: kind}
	if namecodec.NeedsShortening(basename, threshold) {
		shardName := namecodec.Shorten(basename) + c9sSuffix
		entryPath := filepath.Join(shardPath, shardName)
		if exists, _ := afero.Exists(fs, entryPath); exists {
			return nil, vaulterr.NewAlreadyExistsError(entryPath)
		}
		if err := fs.MkdirAll(entryPath, 0o700); err != nil {
			return nil, vaulterr.NewIOError(entryPath, "create long-name shard", err)
		}
		if err := afero.WriteFile(fs, filepath.Join(entryPath, nameFileName), []byte(basename), 0o600); err != nil {
			return nil, vaulterr.NewIOError(entryPath, "write name.c9s", err)
		}
		e.Shortened = true
		e.EntryPath = entryPath
		e.PayloadPath = payloadPathFor(entryPath, kind)
		return e, nil
	}

	entryPath := filepath.Join(shardPath, basename)
	if exists, _ := afero.Exists(fs, entryPath); exists {
		return nil, vaulterr.NewAlreadyExistsError(entryPath)
	}
	e.EntryPath = entryPath
	if kind == KindFile {
		e.PayloadPath = entryPath
	} else {
		e.PayloadPath = payloadPathFor(entryPath, kind)
	}
	return e, nil
}

func payloadPathFor(entryPath string, kind Kind) string {
	switch kind {
	case KindDirectory:
		return filepath.Join(entryPath, dirFileName)
	case KindSymlink:
		return filepath.Join(entryPath, symlinkFileName)
	default:
		return filepath.Join(entryPath, contentsFileName)
	}
}

// CreateDirectoryEntry allocates a fresh random DirId, writes the
// entry's dir.c9r marker (creating EntryPath as a directory first), and
// creates and populates the new directory's own shard: the shard
// directory itself plus its backup dirid.c9r pointing at parentID.
func CreateDirectoryEntry(fs afero.Fs, vaultRoot string, codec *namecodec.Codec, entry *Entry, parentID ID, encKey []byte) (ID, error) {
	if err := fs.MkdirAll(entry.EntryPath, 0o700); err != nil {
		return "", vaulterr.NewIOError(entry.EntryPath, "create entry directory", err)
	}

	newID := ID(uuid.NewString())
	if err := writeSmallFile(fs, entry.PayloadPath, []byte(newID), encKey); err != nil {
		return "", err
	}

	childShard, err := ShardPath(vaultRoot, newID, codec)
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(childShard, 0o700); err != nil {
		return "", vaulterr.NewIOError(childShard, "create shard directory", err)
	}
	// Every created directory's shard gets a backup pointer to its
	// parent, even when the parent is the root (parentID == RootID):
	// recover_parent still needs to terminate the walk back up.
	if err := writeSmallFile(fs, filepath.Join(childShard, dirIDFileName), []byte(parentID), encKey); err != nil {
		return "", err
	}

	logger.Info("created directory", "dir_id", string(newID), "parent", string(parentID))
	return newID, nil
}

// CreateSymlinkEntry creates EntryPath as a directory containing
// symlink.c9r whose plaintext is target.
func CreateSymlinkEntry(fs afero.Fs, entry *Entry, target string, encKey []byte) error {
	if err := fs.MkdirAll(entry.EntryPath, 0o700); err != nil {
		return vaulterr.NewIOError(entry.EntryPath, "create entry directory", err)
	}
	return writeSmallFile(fs, entry.PayloadPath, []byte(target), encKey)
}

// ReadSymlinkTarget decrypts and returns a symlink entry's target.
func ReadSymlinkTarget(fs afero.Fs, payloadPath string, encKey []byte) (string, error) {
	return readSmallFile(fs, payloadPath, encKey)
}

// ReadDirID decrypts a directory entry's dir.c9r payload and returns the
// child DirId it names.
func ReadDirID(fs afero.Fs, payloadPath string, encKey []byte) (ID, error) {
	plaintext, err := readSmallFile(fs, payloadPath, encKey)
	if err != nil {
		return "", err
	}
	return ID(plaintext), nil
}

// RecoverParent reads the backup dirid.c9r inside shardPath and returns
// the parent DirId it names. A missing dirid.c9r is benign (root shard,
// or a tolerant older writer) and returns RootID with no error; a
// present-but-empty (zero-byte) file is CorruptVault (§9 Open Question
// iii). A file whose plaintext is empty names the root as parent.
func RecoverParent(fs afero.Fs, shardPath string, encKey []byte) (ID, error) {
	path := filepath.Join(shardPath, dirIDFileName)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return "", vaulterr.NewIOError(path, "stat dirid.c9r", err)
	}
	if !exists {
		return RootID, nil
	}
	info, err := fs.Stat(path)
	if err != nil {
		return "", vaulterr.NewIOError(path, "stat dirid.c9r", err)
	}
	if info.Size() == 0 {
		return "", vaulterr.NewCorruptVaultError("dirid.c9r is present but empty: " + path)
	}

	plaintext, err := readSmallFile(fs, path, encKey)
	if err != nil {
		return "", err
	}
	return ID(plaintext), nil
}

// writeSmallFile encrypts content as a complete file (header + chunks,
// almost always a single short chunk) and writes it atomically via
// pkg/streaming — dir.c9r, symlink.c9r, and dirid.c9r are all ordinary
// encrypted "files" from the content-cipher's point of view.
func writeSmallFile(fs afero.Fs, path string, content []byte, encKey []byte) error {
	w := streaming.CreateWriter(fs, path, encKey)
	if err := w.Write(0, content); err != nil {
		return err
	}
	return w.Flush()
}

func readSmallFile(fs afero.Fs, path string, encKey []byte) (string, error) {
	r, err := streaming.OpenReader(fs, path, encKey)
	if err != nil {
		return "", err
	}
	defer r.Close()
	content, err := r.ReadRange(0, r.Size())
	if err != nil {
		return "", err
	}
	return string(content), nil
}
