package vault

import (
	"github.com/vaultfs/vault8/internal/bytesize"
	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/streaming"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// ReadFile returns the full decrypted contents of the regular file named
// name inside dir (§4.7 read_file).
func (v *Vault) ReadFile(dir Dir, name string) ([]byte, error) {
	release := v.locks.AcquireFileRead(string(dir.id), name)
	defer release()

	entry, err := v.lookupFile(dir, name)
	if err != nil {
		return nil, err
	}

	var out []byte
	err = v.withEncKey(func(encKey []byte) error {
		r, openErr := streaming.OpenReader(v.fs, entry.PayloadPath, encKey)
		if openErr != nil {
			return openErr
		}
		defer r.Close()
		content, readErr := r.ReadRange(0, r.Size())
		if readErr != nil {
			return readErr
		}
		out = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteFile atomically replaces (or creates) the regular file named name
// inside dir with contents (§4.7 write_file).
func (v *Vault) WriteFile(dir Dir, name string, contents []byte) error {
	return v.writeFile(dir, name, contents, false)
}

// WriteFileExclusive creates the regular file named name inside dir with
// contents, failing with vaulterr.ErrAlreadyExists if it already exists.
// The on-disk state is left untouched on failure (§4.7, P7).
func (v *Vault) WriteFileExclusive(dir Dir, name string, contents []byte) error {
	return v.writeFile(dir, name, contents, true)
}

func (v *Vault) writeFile(dir Dir, name string, contents []byte, exclusive bool) error {
	releaseDir := v.locks.AcquireDirRead(string(dir.id))
	releaseFile := v.locks.AcquireFileWrite(string(dir.id), name)
	defer releaseFile()
	defer releaseDir()

	existing, err := v.tryLookupFile(dir, name)
	if err != nil {
		return err
	}
	if existing != nil && exclusive {
		return vaulterr.NewAlreadyExistsError(name)
	}
	if err := v.runtime.ValidateMaxBufferedFileSize(uint64(len(contents))); err != nil {
		return err
	}

	return v.withEncKey(func(encKey []byte) error {
		var w *streaming.Writer
		if existing != nil {
			w, err = streaming.OpenWriter(v.fs, existing.PayloadPath, encKey)
			if err != nil {
				return err
			}
			if err := w.Truncate(0); err != nil {
				return err
			}
		} else {
			entry, prepErr := dirmodel.PreparePayload(v.fs, dir.shard, v.codec, dir.id, name, v.config.ShorteningThreshold, dirmodel.KindFile)
			if prepErr != nil {
				return prepErr
			}
			w = streaming.CreateWriter(v.fs, entry.PayloadPath, encKey)
		}
		if err := w.Write(0, contents); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		logger.Info("wrote file", "name", name, "dir_id", string(dir.id), "size", bytesize.ByteSize(len(contents)).String())
		return nil
	})
}

// lookupFile resolves name inside dir and requires it to be a regular file.
func (v *Vault) lookupFile(dir Dir, name string) (dirmodel.Entry, error) {
	entry, err := v.resolveComponent(dir, name)
	if err != nil {
		return dirmodel.Entry{}, err
	}
	if entry.Kind != dirmodel.KindFile {
		return dirmodel.Entry{}, vaulterr.NewInvalidArgumentError("not a regular file: " + name)
	}
	return entry, nil
}

// tryLookupFile is lookupFile but returns (nil, nil) instead of
// NotFound, for callers that treat "doesn't exist yet" as a normal case.
func (v *Vault) tryLookupFile(dir Dir, name string) (*dirmodel.Entry, error) {
	entry, err := v.resolveComponent(dir, name)
	if vaulterr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.Kind != dirmodel.KindFile {
		return nil, vaulterr.NewInvalidArgumentError("not a regular file: " + name)
	}
	return &entry, nil
}

// ============================================================================
// Handle-oriented streaming surface (§4.7: "the asynchronous one must
// additionally expose a handle-oriented streaming surface"). Mount
// backends drive random-access reads/writes through these instead of
// ReadFile/WriteFile's whole-buffer convenience API.
// ============================================================================

// OpenReader opens a random-access reader handle on the regular file
// named name inside dir and returns its handle id.
func (v *Vault) OpenReader(dir Dir, name string) (uint64, error) {
	release := v.locks.AcquireFileRead(string(dir.id), name)
	defer release()

	entry, err := v.lookupFile(dir, name)
	if err != nil {
		return 0, err
	}

	var id uint64
	err = v.withEncKey(func(encKey []byte) error {
		r, openErr := streaming.OpenReader(v.fs, entry.PayloadPath, encKey)
		if openErr != nil {
			return openErr
		}
		id = v.readers.Insert(r)
		return nil
	})
	return id, err
}

// ReadHandle reads up to length bytes at offset from an open reader handle.
func (v *Vault) ReadHandle(id uint64, offset, length uint64) ([]byte, error) {
	r, err := v.readers.Get(id)
	if err != nil {
		return nil, err
	}
	return r.ReadRange(offset, length)
}

// HandleSize returns the plaintext size of an open reader handle's file.
func (v *Vault) HandleSize(id uint64) (uint64, error) {
	r, err := v.readers.Get(id)
	if err != nil {
		return 0, err
	}
	return r.Size(), nil
}

// CloseReader closes and forgets a reader handle.
func (v *Vault) CloseReader(id uint64) error {
	r, err := v.readers.Remove(id)
	if err != nil {
		return err
	}
	return r.Close()
}

// OpenWriter opens a read-modify-write handle on an existing regular
// file named name inside dir and returns its handle id.
func (v *Vault) OpenWriter(dir Dir, name string) (uint64, error) {
	entry, err := v.lookupFile(dir, name)
	if err != nil {
		return 0, err
	}

	var id uint64
	err = v.withEncKey(func(encKey []byte) error {
		w, openErr := streaming.OpenWriter(v.fs, entry.PayloadPath, encKey)
		if openErr != nil {
			return openErr
		}
		id = v.writers.Insert(w)
		return nil
	})
	return id, err
}

// CreateWriter creates a brand-new regular file named name inside dir
// (failing with vaulterr.ErrAlreadyExists if it exists) and returns an
// empty writer handle id for it. The file is not visible on disk until
// FlushHandle is called.
func (v *Vault) CreateWriter(dir Dir, name string) (uint64, error) {
	releaseDir := v.locks.AcquireDirRead(string(dir.id))
	defer releaseDir()

	if existing, err := v.tryLookupFile(dir, name); err != nil {
		return 0, err
	} else if existing != nil {
		return 0, vaulterr.NewAlreadyExistsError(name)
	}

	entry, err := dirmodel.PreparePayload(v.fs, dir.shard, v.codec, dir.id, name, v.config.ShorteningThreshold, dirmodel.KindFile)
	if err != nil {
		return 0, err
	}

	var id uint64
	err = v.withEncKey(func(encKey []byte) error {
		w := streaming.CreateWriter(v.fs, entry.PayloadPath, encKey)
		id = v.writers.Insert(w)
		return nil
	})
	return id, err
}

// WriteHandle overlays p into an open writer handle's buffer at offset.
func (v *Vault) WriteHandle(id uint64, offset uint64, p []byte) error {
	w, err := v.writers.Get(id)
	if err != nil {
		return err
	}
	return w.Write(offset, p)
}

// TruncateHandle resizes an open writer handle's buffer.
func (v *Vault) TruncateHandle(id uint64, length uint64) error {
	w, err := v.writers.Get(id)
	if err != nil {
		return err
	}
	return w.Truncate(length)
}

// FlushHandle re-encrypts and atomically persists an open writer
// handle's buffer.
func (v *Vault) FlushHandle(id uint64) error {
	w, err := v.writers.Get(id)
	if err != nil {
		return err
	}
	return w.Flush()
}

// CloseWriter discards (without flushing) and forgets a writer handle.
// Callers that want their writes persisted must call FlushHandle first.
func (v *Vault) CloseWriter(id uint64) error {
	w, err := v.writers.Remove(id)
	if err != nil {
		return err
	}
	return w.Close()
}
