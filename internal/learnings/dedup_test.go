package learnings

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicator_Check(t *testing.T) {
	d := NewDeduplicator(10)

	first := d.Check("aaa")
	assert.False(t, first.IsDuplicate)
	assert.Equal(t, 1, first.HitCount)

	second := d.Check("aaa")
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, 2, second.HitCount)
	assert.Equal(t, 1, d.Len())
}

func TestDeduplicator_EvictsLeastRecentlyUsed(t *testing.T) {
	d := NewDeduplicator(3)
	d.Check("a")
	d.Check("b")
	d.Check("c")
	d.Check("a") // refresh a; b is now the oldest
	d.Check("d")

	assert.Equal(t, 3, d.Len())
	assert.False(t, d.Contains("b"))
	assert.True(t, d.Contains("a"))
	assert.True(t, d.Contains("c"))
	assert.True(t, d.Contains("d"))

	var order []string
	for _, e := range d.Snapshot() {
		order = append(order, e.Hash)
	}
	assert.Equal(t, []string{"c", "a", "d"}, order)
}

func TestDeduplicator_ResetAndRestore(t *testing.T) {
	d := NewDeduplicator(2)
	d.Restore([]DedupEntry{{Hash: "x", Hits: 4}, {Hash: ""}, {Hash: "y"}, {Hash: "z", Hits: 2}})

	assert.Equal(t, []DedupEntry{{Hash: "y", Hits: 1}, {Hash: "z", Hits: 2}}, d.Snapshot())

	d.Reset()
	assert.Zero(t, d.Len())
	assert.False(t, d.Check("y").IsDuplicate)
}

func TestNewDeduplicator_DefaultSize(t *testing.T) {
	assert.Equal(t, DefaultDedupSize, NewDeduplicator(0).MaxSize())
}

func TestLearningHash(t *testing.T) {
	one, two := 1, 2

	h := LearningHash("Bash", &one, "Error: boom")
	assert.Len(t, h, 16)
	assert.Equal(t, h, LearningHash("bash", &one, "error: BOOM \n"), "case and trailing space are normalized")
	assert.NotEqual(t, h, LearningHash("Bash", &two, "Error: boom"))
	assert.NotEqual(t, h, LearningHash("Bash", nil, "Error: boom"))

	long := strings.Repeat("x", 600)
	assert.Equal(t, LearningHash("Bash", &one, long), LearningHash("Bash", &one, long+"different tail"))
}

func TestSessionStore_Persists(t *testing.T) {
	store := &SessionStore{Dir: t.TempDir(), MaxSize: 10}

	err := store.With("sess-1", func(d *Deduplicator) error {
		assert.False(t, d.Check("h1").IsDuplicate)
		return nil
	})
	require.NoError(t, err)

	err = store.With("sess-1", func(d *Deduplicator) error {
		res := d.Check("h1")
		assert.True(t, res.IsDuplicate)
		assert.Equal(t, 2, res.HitCount)
		return nil
	})
	require.NoError(t, err)

	err = store.With("sess-2", func(d *Deduplicator) error {
		assert.False(t, d.Check("h1").IsDuplicate, "sessions are independent")
		return nil
	})
	require.NoError(t, err)
}

func TestSessionStore_Reset(t *testing.T) {
	store := &SessionStore{Dir: t.TempDir()}
	require.NoError(t, store.With("s", func(d *Deduplicator) error {
		d.Check("h")
		return nil
	}))
	require.NoError(t, store.Reset("s"))
	require.NoError(t, store.Reset("s"), "reset of missing state is a no-op")

	require.NoError(t, store.With("s", func(d *Deduplicator) error {
		assert.Zero(t, d.Len())
		return nil
	}))
}

func TestSessionStore_CorruptState(t *testing.T) {
	store := &SessionStore{Dir: t.TempDir()}
	path := store.Path("s")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	require.NoError(t, store.With("s", func(d *Deduplicator) error {
		assert.Zero(t, d.Len())
		d.Check("h")
		return nil
	}))
	require.NoError(t, store.With("s", func(d *Deduplicator) error {
		assert.True(t, d.Contains("h"))
		return nil
	}))
}

func TestSessionStore_Path(t *testing.T) {
	store := &SessionStore{Dir: "/state"}
	assert.Equal(t, filepath.Join("/state", "dedup", "default.json"), store.Path(""))
	assert.Equal(t, filepath.Join("/state", "dedup", "abc-123.json"), store.Path("abc-123"))

	unsafe := store.Path("../../etc/passwd")
	assert.Equal(t, filepath.Join("/state", "dedup"), filepath.Dir(unsafe))
	assert.NotContains(t, filepath.Base(unsafe), "..")
}

func TestSessionStore_Concurrent(t *testing.T) {
	store := &SessionStore{Dir: t.TempDir()}
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.With("s", func(d *Deduplicator) error {
				d.Check(string(rune('a' + i)))
				return nil
			}))
		}()
	}
	wg.Wait()

	require.NoError(t, store.With("s", func(d *Deduplicator) error {
		assert.Equal(t, 8, d.Len())
		return nil
	}))
}

func TestSessionStore_Prune(t *testing.T) {
	store := &SessionStore{Dir: t.TempDir()}
	require.NoError(t, store.With("old", func(*Deduplicator) error { return nil }))
	require.NoError(t, store.With("new", func(*Deduplicator) error { return nil }))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("old"), past, past))

	n, err := store.Prune(24*time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, store.Path("old"))
	assert.FileExists(t, store.Path("new"))
}
