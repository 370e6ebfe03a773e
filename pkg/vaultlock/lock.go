// Package vaultlock implements the vault's two sharded lock maps — one
// keyed by DirId, one by (DirId, filename) — and the monotonic handle
// table every mount backend allocates open file/directory handles
// through. Adapted in shape from DittoFS's pkg/metadata/lock (a sharded
// mutex map keyed by inode), simplified to the two-key, total-ordering
// scheme §4.8/§5 require: directory locks before file locks, each class
// ordered lexicographically, no upgrades, never held across a re-entrant
// public API call.
package vaultlock

import (
	"sort"
	"sync"

	"github.com/vaultfs/vault8/internal/logger"
)

// fileKey identifies a file lock: the DirId of its containing directory
// plus its plaintext filename.
type fileKey struct {
	dirID    string
	filename string
}

// Manager owns every directory and file lock for one unlocked vault.
// Safe for concurrent use; the zero value is not usable, use New.
type Manager struct {
	dirMu  sync.Mutex
	dirs   map[string]*sync.RWMutex

	fileMu sync.Mutex
	files  map[fileKey]*sync.RWMutex
}

// New creates an empty lock manager.
func New() *Manager {
	return &Manager{
		dirs:  make(map[string]*sync.RWMutex),
		files: make(map[fileKey]*sync.RWMutex),
	}
}

func (m *Manager) dirLock(dirID string) *sync.RWMutex {
	m.dirMu.Lock()
	defer m.dirMu.Unlock()
	l, ok := m.dirs[dirID]
	if !ok {
		l = &sync.RWMutex{}
		m.dirs[dirID] = l
	}
	return l
}

func (m *Manager) fileLock(dirID, filename string) *sync.RWMutex {
	k := fileKey{dirID: dirID, filename: filename}
	m.fileMu.Lock()
	defer m.fileMu.Unlock()
	l, ok := m.files[k]
	if !ok {
		l = &sync.RWMutex{}
		m.files[k] = l
	}
	return l
}

// Release is returned by every Acquire* call; the caller must call it
// exactly once, in LIFO order with respect to any lock acquired after
// it, to release the locks it took.
type Release func()

// AcquireDirRead acquires a single directory's read lock.
func (m *Manager) AcquireDirRead(dirID string) Release {
	l := m.dirLock(dirID)
	l.RLock()
	return func() { l.RUnlock() }
}

// AcquireDirWrite acquires a single directory's write lock.
func (m *Manager) AcquireDirWrite(dirID string) Release {
	l := m.dirLock(dirID)
	l.Lock()
	return func() { l.Unlock() }
}

// AcquireDirsWrite acquires write locks on multiple directories at once,
// in lexicographic DirId order (R2), so that two operations needing the
// same pair of directories never deadlock regardless of which order the
// caller names them in.
func (m *Manager) AcquireDirsWrite(dirIDs ...string) Release {
	ordered := uniqueSorted(dirIDs)
	locks := make([]*sync.RWMutex, len(ordered))
	for i, id := range ordered {
		locks[i] = m.dirLock(id)
	}
	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// AcquireFileRead acquires a single file's read lock. Directory locks,
// if any are needed by the caller, must already have been acquired
// first (R1).
func (m *Manager) AcquireFileRead(dirID, filename string) Release {
	l := m.fileLock(dirID, filename)
	l.RLock()
	return func() { l.RUnlock() }
}

// AcquireFileWrite acquires a single file's write lock.
func (m *Manager) AcquireFileWrite(dirID, filename string) Release {
	l := m.fileLock(dirID, filename)
	l.Lock()
	return func() { l.Unlock() }
}

// fileRef names one file lock to acquire as part of a multi-file
// operation (e.g. rename_file, move_file).
type fileRef struct {
	DirID    string
	Filename string
}

// FileRef constructs a fileRef for AcquireFilesWrite.
func FileRef(dirID, filename string) fileRef {
	return fileRef{DirID: dirID, Filename: filename}
}

// AcquireFilesWrite acquires write locks on multiple (dir, filename)
// pairs, ordered lexicographically by filename within the same
// directory class (R3), after the caller's directory locks are already
// held (R1). Duplicate refs are collapsed to one lock each, matching
// AcquireDirsWrite, so a caller naming the same (dir, filename) twice
// can't self-deadlock on the non-recursive RWMutex.
func (m *Manager) AcquireFilesWrite(refs ...fileRef) Release {
	refs = uniqueSortedRefs(refs)

	locks := make([]*sync.RWMutex, len(refs))
	for i, r := range refs {
		locks[i] = m.fileLock(r.DirID, r.Filename)
	}
	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

func uniqueSortedRefs(refs []fileRef) []fileRef {
	seen := make(map[fileRef]struct{}, len(refs))
	out := make([]fileRef, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DirID != out[j].DirID {
			return out[i].DirID < out[j].DirID
		}
		return out[i].Filename < out[j].Filename
	})
	return out
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Forget drops a directory's and its files' lock entries once the
// directory is known to be deleted, so the maps don't grow unboundedly
// across a long-lived vault session. Safe to call even if locks for
// dirID are still logically reachable by a racing caller — sync.RWMutex
// values already acquired remain valid; Forget only stops *new* callers
// from finding this entry (they'll allocate a fresh one, which is
// correct because the old dirID is gone from disk).
func (m *Manager) Forget(dirID string) {
	m.dirMu.Lock()
	delete(m.dirs, dirID)
	m.dirMu.Unlock()

	m.fileMu.Lock()
	for k := range m.files {
		if k.dirID == dirID {
			delete(m.files, k)
		}
	}
	m.fileMu.Unlock()
	logger.Debug("forgot locks for directory", "dir_id", dirID)
}
