package vaultlock

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultfs/vault8/pkg/vaulterr"
)

func TestDirReadersConcurrent(t *testing.T) {
	t.Parallel()
	m := New()

	rel1 := m.AcquireDirRead("a")
	rel2 := m.AcquireDirRead("a")
	rel1()
	rel2()
}

func TestDirWriteExclusive(t *testing.T) {
	t.Parallel()
	m := New()

	release := m.AcquireDirWrite("a")
	acquired := make(chan struct{})
	go func() {
		r := m.AcquireDirWrite("a")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second writer should not acquire while first holds the lock")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	<-acquired
}

func TestAcquireDirsWriteOrdersLexicographically(t *testing.T) {
	t.Parallel()
	m := New()

	// Two operations racing for the same pair of directories in opposite
	// argument order must not deadlock.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r := m.AcquireDirsWrite("b", "a")
		time.Sleep(time.Millisecond)
		r()
	}()
	go func() {
		defer wg.Done()
		r := m.AcquireDirsWrite("a", "b")
		time.Sleep(time.Millisecond)
		r()
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ordered acquisition deadlocked")
	}
}

func TestAcquireFilesWriteDedupsRepeatedRef(t *testing.T) {
	t.Parallel()
	m := New()

	// A caller naming the same (dir, filename) twice (e.g. a rename whose
	// source and destination collapse to one ref) must not self-deadlock
	// on the non-recursive RWMutex.
	done := make(chan struct{})
	go func() {
		r := m.AcquireFilesWrite(FileRef("a", "f"), FileRef("a", "f"))
		r()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AcquireFilesWrite with a duplicate ref deadlocked")
	}
}

func TestAcquireFilesWriteOrdersLexicographically(t *testing.T) {
	t.Parallel()
	m := New()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r := m.AcquireFilesWrite(FileRef("a", "z"), FileRef("a", "a"))
		time.Sleep(time.Millisecond)
		r()
	}()
	go func() {
		defer wg.Done()
		r := m.AcquireFilesWrite(FileRef("a", "a"), FileRef("a", "z"))
		time.Sleep(time.Millisecond)
		r()
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ordered file acquisition deadlocked")
	}
}

func TestHandleTableBasics(t *testing.T) {
	t.Parallel()
	tbl := NewHandleTable[string]()

	id1 := tbl.Insert("reader-a")
	id2 := tbl.Insert("reader-b")
	assert.NotEqual(t, id1, id2)

	got, err := tbl.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, "reader-a", got)

	removed, err := tbl.Remove(id1)
	require.NoError(t, err)
	assert.Equal(t, "reader-a", removed)

	_, err = tbl.Get(id1)
	require.Error(t, err)
	assert.True(t, vaulterr.Is(err, vaulterr.ErrInvalidHandle))

	id3 := tbl.Insert("reader-c")
	assert.NotEqual(t, id1, id3, "ids are never reused")
}

func TestLockOrderingStressNoDeadlock(t *testing.T) {
	t.Parallel()
	m := New()
	dirs := []string{"d0", "d1", "d2", "d3"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			a := dirs[r.Intn(len(dirs))]
			b := dirs[r.Intn(len(dirs))]
			release := m.AcquireDirsWrite(a, b)
			release()
		}(int64(i))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stress test deadlocked")
	}
}

func TestForgetRemovesLockEntries(t *testing.T) {
	t.Parallel()
	m := New()

	r := m.AcquireDirWrite("gone")
	r()
	m.AcquireFileWrite("gone", "f.txt")()

	m.Forget("gone")

	m.dirMu.Lock()
	_, dirExists := m.dirs["gone"]
	m.dirMu.Unlock()
	assert.False(t, dirExists)

	m.fileMu.Lock()
	_, fileExists := m.files[fileKey{dirID: "gone", filename: "f.txt"}]
	m.fileMu.Unlock()
	assert.False(t, fileExists)
}
