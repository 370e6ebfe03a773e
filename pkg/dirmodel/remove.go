package dirmodel

import (
	"github.com/spf13/afero"

	"github.com/vaultfs/vault8/pkg/namecodec"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// RemoveEntry deletes a file or symlink entry: its payload file (direct
// form) or its whole `.c9s` container (shortened form).
func RemoveEntry(fs afero.Fs, entry Entry) error {
	if err := fs.RemoveAll(entry.EntryPath); err != nil {
		return vaulterr.NewIOError(entry.EntryPath, "remove entry", err)
	}
	return nil
}

// RemoveDirectoryEntry deletes a directory entry: both its container
// (dir.c9r, direct or shortened) and the shard directory the child
// DirId owns. Caller is responsible for having already verified the
// child directory is empty (or for being in the middle of a recursive
// delete that has already emptied it).
func RemoveDirectoryEntry(fs afero.Fs, vaultRoot string, codec *namecodec.Codec, entry Entry) error {
	shardPath, err := ShardPath(vaultRoot, entry.DirID, codec)
	if err != nil {
		return err
	}
	if err := fs.RemoveAll(shardPath); err != nil {
		return vaulterr.NewIOError(shardPath, "remove shard directory", err)
	}
	if err := fs.RemoveAll(entry.EntryPath); err != nil {
		return vaulterr.NewIOError(entry.EntryPath, "remove directory entry", err)
	}
	return nil
}

// MoveEntry relocates an entry's payload from oldEntry's location to
// newEntry's, preserving the payload file's bytes exactly (same content
// key, same chunks) regardless of whether this is a same-parent rename,
// a cross-parent move, or a short-name/long-name transition (§4.6). Only
// the container structure changes; the encrypted content blob itself is
// never re-read or re-written.
func MoveEntry(fs afero.Fs, oldEntry, newEntry Entry) error {
	if !newEntry.Shortened && newEntry.Kind != KindFile {
		if err := fs.MkdirAll(newEntry.EntryPath, 0o700); err != nil {
			return vaulterr.NewIOError(newEntry.EntryPath, "create destination entry directory", err)
		}
	}

	if err := fs.Rename(oldEntry.PayloadPath, newEntry.PayloadPath); err != nil {
		return vaulterr.NewIOError(newEntry.PayloadPath, "move payload", err)
	}

	if oldEntry.Shortened || oldEntry.Kind != KindFile {
		if err := fs.RemoveAll(oldEntry.EntryPath); err != nil {
			return vaulterr.NewIOError(oldEntry.EntryPath, "remove source container", err)
		}
	}
	return nil
}
