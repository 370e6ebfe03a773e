package vault

import (
	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// CreateSymlink creates a symlink named name inside dir whose plaintext
// target is target (§4.7 create_symlink, §8 S6).
func (v *Vault) CreateSymlink(dir Dir, name, target string) error {
	releaseDir := v.locks.AcquireDirWrite(string(dir.id))
	releaseFile := v.locks.AcquireFileWrite(string(dir.id), name)
	defer releaseFile()
	defer releaseDir()

	if err := v.ensureAbsent(dir, name); err != nil {
		return err
	}

	entry, err := dirmodel.PreparePayload(v.fs, dir.shard, v.codec, dir.id, name, v.config.ShorteningThreshold, dirmodel.KindSymlink)
	if err != nil {
		return err
	}

	err = v.withEncKey(func(encKey []byte) error {
		return dirmodel.CreateSymlinkEntry(v.fs, entry, target, encKey)
	})
	if err != nil {
		return err
	}
	logger.Info("created symlink", "dir_id", string(dir.id), "name", name)
	return nil
}

// ReadSymlink returns the plaintext target of the symlink named name
// inside dir (§4.7 read_symlink).
func (v *Vault) ReadSymlink(dir Dir, name string) (string, error) {
	release := v.locks.AcquireFileRead(string(dir.id), name)
	defer release()

	entry, err := v.resolveComponent(dir, name)
	if err != nil {
		return "", err
	}
	if entry.Kind != dirmodel.KindSymlink {
		return "", vaulterr.NewInvalidArgumentError("not a symlink: " + name)
	}

	var target string
	err = v.withEncKey(func(encKey []byte) error {
		t, readErr := dirmodel.ReadSymlinkTarget(v.fs, entry.PayloadPath, encKey)
		if readErr != nil {
			return readErr
		}
		target = t
		return nil
	})
	if err != nil {
		return "", err
	}
	return target, nil
}
