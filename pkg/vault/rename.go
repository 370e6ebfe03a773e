package vault

import (
	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/vaultlock"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// RenameFile renames oldName to newName within dir, transitioning
// between the short `.c9r` and long `.c9s` storage forms transparently
// if the new encoded name crosses the shortening threshold in either
// direction (§4.6 Deletion/rename/move, §8 S2).
func (v *Vault) RenameFile(dir Dir, oldName, newName string) error {
	releaseDir := v.locks.AcquireDirWrite(string(dir.id))
	releaseFiles := v.locks.AcquireFilesWrite(
		vaultlock.FileRef(string(dir.id), oldName),
		vaultlock.FileRef(string(dir.id), newName),
	)
	defer releaseFiles()
	defer releaseDir()

	oldEntry, err := v.resolveComponent(dir, oldName)
	if err != nil {
		return err
	}
	if err := v.ensureAbsent(dir, newName); err != nil {
		return err
	}

	newEntry, err := dirmodel.PreparePayload(v.fs, dir.shard, v.codec, dir.id, newName, v.config.ShorteningThreshold, oldEntry.Kind)
	if err != nil {
		return err
	}
	if err := dirmodel.MoveEntry(v.fs, oldEntry, *newEntry); err != nil {
		return err
	}
	logger.Info("renamed file", "dir_id", string(dir.id), "old", oldName, "new", newName)
	return nil
}

// RenameDirectory renames oldName to newName within parent, same
// mechanics as RenameFile but for a directory entry: only the container
// and its dir.c9r pointer move, the child DirId (and therefore its
// shard path) is unchanged.
func (v *Vault) RenameDirectory(parent Dir, oldName, newName string) error {
	releaseDir := v.locks.AcquireDirWrite(string(parent.id))
	releaseFiles := v.locks.AcquireFilesWrite(
		vaultlock.FileRef(string(parent.id), oldName),
		vaultlock.FileRef(string(parent.id), newName),
	)
	defer releaseFiles()
	defer releaseDir()

	oldEntry, _, err := v.lookupSubdir(parent, oldName)
	if err != nil {
		return err
	}
	if err := v.ensureAbsent(parent, newName); err != nil {
		return err
	}

	newEntry, err := dirmodel.PreparePayload(v.fs, parent.shard, v.codec, parent.id, newName, v.config.ShorteningThreshold, dirmodel.KindDirectory)
	if err != nil {
		return err
	}
	if err := dirmodel.MoveEntry(v.fs, oldEntry, *newEntry); err != nil {
		return err
	}
	logger.Info("renamed directory", "dir_id", string(parent.id), "old", oldName, "new", newName)
	return nil
}

// MoveFile relocates the regular file named name from srcDir to dstDir,
// keeping its plaintext name: the encrypted content blob is untouched
// (same content key, same chunks) but its name ciphertext is
// necessarily re-encrypted under dstDir's DirId as associated data
// (§4.6 Move across parents, §8 S5).
func (v *Vault) MoveFile(srcDir, dstDir Dir, name string) error {
	return v.moveAndRename(srcDir, name, dstDir, name)
}

// MoveAndRenameFile relocates and renames in one operation, acquiring
// every lock up front so no intermediate state is observable by another
// caller (§4.7 move_and_rename_file).
func (v *Vault) MoveAndRenameFile(srcDir Dir, oldName string, dstDir Dir, newName string) error {
	return v.moveAndRename(srcDir, oldName, dstDir, newName)
}

func (v *Vault) moveAndRename(srcDir Dir, oldName string, dstDir Dir, newName string) error {
	releaseDirs := v.locks.AcquireDirsWrite(string(srcDir.id), string(dstDir.id))
	releaseFiles := v.locks.AcquireFilesWrite(
		vaultlock.FileRef(string(srcDir.id), oldName),
		vaultlock.FileRef(string(dstDir.id), newName),
	)
	defer releaseFiles()
	defer releaseDirs()

	oldEntry, err := v.resolveComponent(srcDir, oldName)
	if err != nil {
		return err
	}
	if oldEntry.Kind != dirmodel.KindFile {
		return vaulterr.NewInvalidArgumentError("not a regular file: " + oldName)
	}
	if err := v.ensureAbsent(dstDir, newName); err != nil {
		return err
	}

	newEntry, err := dirmodel.PreparePayload(v.fs, dstDir.shard, v.codec, dstDir.id, newName, v.config.ShorteningThreshold, dirmodel.KindFile)
	if err != nil {
		return err
	}
	if err := dirmodel.MoveEntry(v.fs, oldEntry, *newEntry); err != nil {
		return err
	}
	logger.Info("moved file", "src_dir", string(srcDir.id), "dst_dir", string(dstDir.id), "old", oldName, "new", newName)
	return nil
}

// ensureAbsent returns vaulterr.ErrAlreadyExists if name already exists
// inside dir, nil if it's free, or propagates any other lookup error.
func (v *Vault) ensureAbsent(dir Dir, name string) error {
	switch _, err := v.resolveComponent(dir, name); {
	case err == nil:
		return vaulterr.NewAlreadyExistsError(name)
	case !vaulterr.IsNotFound(err):
		return err
	}
	return nil
}
