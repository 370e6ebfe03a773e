package vault

import (
	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// CreateDirectory creates a new subdirectory named name inside parent,
// allocating a fresh random DirId and writing its shard and backup
// dirid.c9r pointer (§4.7 create_directory, §4.6 Creation of a
// directory).
func (v *Vault) CreateDirectory(parent Dir, name string) (dirmodel.ID, error) {
	release := v.locks.AcquireDirWrite(string(parent.id))
	defer release()

	switch _, err := v.resolveComponent(parent, name); {
	case err == nil:
		return "", vaulterr.NewAlreadyExistsError(name)
	case !vaulterr.IsNotFound(err):
		return "", err
	}

	entry, err := dirmodel.PreparePayload(v.fs, parent.shard, v.codec, parent.id, name, v.config.ShorteningThreshold, dirmodel.KindDirectory)
	if err != nil {
		return "", err
	}

	var newID dirmodel.ID
	err = v.withEncKey(func(encKey []byte) error {
		id, createErr := dirmodel.CreateDirectoryEntry(v.fs, v.root, v.codec, entry, parent.id, encKey)
		if createErr != nil {
			return createErr
		}
		newID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// DeleteFile removes the regular file named name from dir (§4.7
// delete_file). Locks: directory write + file write.
func (v *Vault) DeleteFile(dir Dir, name string) error {
	releaseDir := v.locks.AcquireDirWrite(string(dir.id))
	releaseFile := v.locks.AcquireFileWrite(string(dir.id), name)
	defer releaseFile()
	defer releaseDir()

	entry, err := v.lookupFile(dir, name)
	if err != nil {
		return err
	}
	if err := dirmodel.RemoveEntry(v.fs, entry); err != nil {
		return err
	}
	logger.Info("deleted file", "name", name, "dir_id", string(dir.id))
	return nil
}

// DeleteDirectory removes the empty subdirectory named name from dir,
// failing with vaulterr.ErrNotEmpty if it has any children (§4.7
// delete_directory).
func (v *Vault) DeleteDirectory(parent Dir, name string) error {
	releaseParent := v.locks.AcquireDirWrite(string(parent.id))
	defer releaseParent()

	entry, child, err := v.lookupSubdir(parent, name)
	if err != nil {
		return err
	}

	releaseChild := v.locks.AcquireDirWrite(string(child.id))
	defer releaseChild()

	childEntries, err := dirmodel.List(v.fs, child.shard, v.codec, child.id, v.config.ShorteningThreshold)
	if err != nil {
		return err
	}
	if len(childEntries) > 0 {
		return vaulterr.NewNotEmptyError(name)
	}

	if err := dirmodel.RemoveDirectoryEntry(v.fs, v.root, v.codec, entry); err != nil {
		return err
	}
	v.locks.Forget(string(child.id))
	logger.Info("deleted directory", "name", name, "dir_id", string(child.id))
	return nil
}

// DeleteDirectoryRecursiveResult reports what a recursive delete removed.
type DeleteDirectoryRecursiveResult struct {
	FilesRemoved int
	DirsRemoved  int
}

// DeleteDirectoryRecursive removes the subdirectory named name from
// parent along with every descendant, post-order: children are removed
// before their parents, and the root of the removed subtree's shard is
// removed last (§4.6 Deletion, §4.7, P9).
func (v *Vault) DeleteDirectoryRecursive(parent Dir, name string) (DeleteDirectoryRecursiveResult, error) {
	releaseParent := v.locks.AcquireDirWrite(string(parent.id))
	defer releaseParent()

	entry, child, err := v.lookupSubdir(parent, name)
	if err != nil {
		return DeleteDirectoryRecursiveResult{}, err
	}

	result, err := v.removeSubtree(child)
	if err != nil {
		return result, err
	}

	if err := dirmodel.RemoveDirectoryEntry(v.fs, v.root, v.codec, entry); err != nil {
		return result, err
	}
	v.locks.Forget(string(child.id))
	result.DirsRemoved++
	logger.Info("recursively deleted directory", "name", name, "files", result.FilesRemoved, "dirs", result.DirsRemoved)
	return result, nil
}

// removeSubtree post-order-deletes every descendant of dir (but not dir's
// own entry in its parent, nor dir's own shard — the caller removes
// those after this returns, since it needs the still-intact shard path
// to have gotten here).
func (v *Vault) removeSubtree(dir Dir) (DeleteDirectoryRecursiveResult, error) {
	var result DeleteDirectoryRecursiveResult

	releaseDir := v.locks.AcquireDirWrite(string(dir.id))
	entries, err := dirmodel.List(v.fs, dir.shard, v.codec, dir.id, v.config.ShorteningThreshold)
	if err != nil {
		releaseDir()
		return result, err
	}

	for _, e := range entries {
		switch e.Kind {
		case dirmodel.KindDirectory:
			childID, idErr := v.decryptDirID(e)
			if idErr != nil {
				releaseDir()
				return result, idErr
			}
			e.DirID = childID
			childDir, dirErr := v.dirFor(childID)
			if dirErr != nil {
				releaseDir()
				return result, dirErr
			}
			sub, subErr := v.removeSubtree(childDir)
			result.FilesRemoved += sub.FilesRemoved
			result.DirsRemoved += sub.DirsRemoved
			if subErr != nil {
				releaseDir()
				return result, subErr
			}
			if err := dirmodel.RemoveDirectoryEntry(v.fs, v.root, v.codec, e); err != nil {
				releaseDir()
				return result, err
			}
			v.locks.Forget(string(childID))
			result.DirsRemoved++
		case dirmodel.KindFile, dirmodel.KindSymlink:
			if err := dirmodel.RemoveEntry(v.fs, e); err != nil {
				releaseDir()
				return result, err
			}
			result.FilesRemoved++
		}
	}
	releaseDir()
	return result, nil
}

// lookupSubdir resolves name inside parent, requiring it to be a
// directory, and returns both the raw entry (for removal) and the
// resolved child Dir (for listing/locking its own shard).
func (v *Vault) lookupSubdir(parent Dir, name string) (dirmodel.Entry, Dir, error) {
	entry, err := v.resolveComponent(parent, name)
	if err != nil {
		return dirmodel.Entry{}, Dir{}, err
	}
	if entry.Kind != dirmodel.KindDirectory {
		return dirmodel.Entry{}, Dir{}, vaulterr.NewInvalidArgumentError("not a directory: " + name)
	}
	child, err := v.dirFor(entry.DirID)
	if err != nil {
		return dirmodel.Entry{}, Dir{}, err
	}
	return entry, child, nil
}

func (v *Vault) decryptDirID(e dirmodel.Entry) (dirmodel.ID, error) {
	var id dirmodel.ID
	err := v.withEncKey(func(encKey []byte) error {
		childID, readErr := dirmodel.ReadDirID(v.fs, e.PayloadPath, encKey)
		if readErr != nil {
			return readErr
		}
		id = childID
		return nil
	})
	return id, err
}
