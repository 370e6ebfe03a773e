package streaming

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/vaultfs/vault8/internal/bytesize"
	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/filecipher"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// Writer buffers an entire file's plaintext in memory and re-encrypts it
// from scratch — fresh header, fresh content key, fresh chunk nonces —
// on every Flush. §4.5 accepts full-file buffering as the price of
// atomic, crash-safe replacement and per-flush re-keying (forward
// secrecy for the file at rest between flushes).
type Writer struct {
	mu       sync.Mutex
	fs       afero.Fs
	path     string
	encKey   []byte
	buf      []byte
	loaded   bool // true once the original contents (if any) have been read into buf
	dirty    bool
	existing bool // true if path already existed when the writer was opened
}

// OpenWriter opens a writer for an existing encrypted file. The original
// contents are not read eagerly; they're loaded lazily by the first Write
// or Truncate. That load happens for every first Write, including one
// that overwrites the whole file.
func OpenWriter(fs afero.Fs, path string, encKey []byte) (*Writer, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, vaulterr.NewIOError(path, "stat for writer", err)
	}
	if !exists {
		return nil, vaulterr.NewNotFoundError(path)
	}
	return &Writer{fs: fs, path: path, encKey: encKey, existing: true}, nil
}

// CreateWriter opens a writer for a brand-new file with empty contents.
func CreateWriter(fs afero.Fs, path string, encKey []byte) *Writer {
	return &Writer{fs: fs, path: path, encKey: encKey, buf: []byte{}, loaded: true, dirty: true}
}

// ensureLoaded decrypts the file's current full contents into buf, once.
// Must be called with w.mu held.
func (w *Writer) ensureLoaded() error {
	if w.loaded {
		return nil
	}
	r, err := OpenReader(w.fs, w.path, w.encKey)
	if err != nil {
		return err
	}
	defer r.Close()

	contents, err := r.ReadRange(0, r.Size())
	if err != nil {
		return err
	}
	w.buf = contents
	w.loaded = true
	return nil
}

// Write overlays len(p) bytes into the writer's buffer at offset,
// growing the buffer (zero-filling any gap) if offset+len(p) exceeds the
// current buffer length.
func (w *Writer) Write(offset uint64, p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureLoaded(); err != nil {
		return err
	}

	end := offset + uint64(len(p))
	if end > uint64(len(w.buf)) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[offset:end], p)
	w.dirty = true
	return nil
}

// Truncate resizes the buffer to length, zero-filling on grow.
func (w *Writer) Truncate(length uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureLoaded(); err != nil {
		return err
	}

	switch {
	case uint64(len(w.buf)) == length:
		// no-op, but still dirty: an explicit truncate to the current
		// size is still an intentional write in callers like ftruncate.
	case uint64(len(w.buf)) > length:
		w.buf = w.buf[:length]
	default:
		grown := make([]byte, length)
		copy(grown, w.buf)
		w.buf = grown
	}
	w.dirty = true
	return nil
}

// Size returns the writer's current buffered plaintext length.
func (w *Writer) Size() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return uint64(len(w.buf))
}

// Dirty reports whether the buffer has unflushed changes.
func (w *Writer) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

// Flush re-encrypts the full buffer under a fresh header and fresh
// content key, writes it to a temp file alongside path, and atomically
// renames it into place. No-op if the buffer isn't dirty.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if !w.dirty {
		return nil
	}

	header, err := filecipher.NewHeader()
	if err != nil {
		return err
	}
	headerBytes, err := filecipher.EncodeHeader(header, w.encKey)
	if err != nil {
		return err
	}

	tmpPath := fmt.Sprintf("%s.vault8-tmp-%s", w.path, uuid.NewString())
	f, err := w.fs.Create(tmpPath)
	if err != nil {
		return vaulterr.NewIOError(tmpPath, "create temp file", err)
	}

	if _, err := f.Write(headerBytes); err != nil {
		f.Close()
		w.fs.Remove(tmpPath)
		return vaulterr.NewIOError(tmpPath, "write header", err)
	}

	for offset := 0; offset < len(w.buf); offset += filecipher.ChunkSize {
		end := offset + filecipher.ChunkSize
		if end > len(w.buf) {
			end = len(w.buf)
		}
		idx := filecipher.ChunkIndexForOffset(uint64(offset))
		frame, err := filecipher.EncryptChunk(w.buf[offset:end], idx, header.Nonce, header.ContentKey[:])
		if err != nil {
			f.Close()
			w.fs.Remove(tmpPath)
			return err
		}
		if _, err := f.Write(frame); err != nil {
			f.Close()
			w.fs.Remove(tmpPath)
			return vaulterr.NewIOError(tmpPath, "write chunk", err)
		}
	}

	if err := f.Close(); err != nil {
		w.fs.Remove(tmpPath)
		return vaulterr.NewIOError(tmpPath, "close temp file", err)
	}

	if err := w.fs.Rename(tmpPath, w.path); err != nil {
		w.fs.Remove(tmpPath)
		return vaulterr.NewIOError(w.path, "rename temp file into place", err)
	}

	logger.Debug("flushed file", "path", w.path, "size", bytesize.ByteSize(len(w.buf)).String())
	w.dirty = false
	w.existing = true
	return nil
}

// Close discards any unflushed buffer without touching the on-disk file.
// Callers that want their writes persisted must call Flush first.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = nil
	w.dirty = false
	return nil
}
