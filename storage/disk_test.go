package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/nicolagi/notes/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDiskStore returns a store whose directory is nested in another temporary
// directory, so tests can check nothing is written next to it.
func newDiskStore(t *testing.T) (store *storage.DiskStore, parent string) {
	parent = t.TempDir()
	dir := filepath.Join(parent, "cache")
	require.Nil(t, os.Mkdir(dir, 0700))
	store, err := storage.NewDiskStore(dir)
	require.Nil(t, err)
	return store, parent
}

func dirNames(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestDiskStore(t *testing.T) {
	t.Run("one file per note, named after the note", func(t *testing.T) {
		store, _ := newDiskStore(t)
		require.Nil(t, store.Create("todo", []byte("buy milk")))
		content, err := os.ReadFile(filepath.Join(store.Dir(), "todo.txt"))
		require.Nil(t, err)
		assert.Equal(t, []byte("buy milk"), content)
		assert.Equal(t, []string{"todo.txt"}, dirNames(t, store.Dir()))
	})
	t.Run("files written by others are visible", func(t *testing.T) {
		store, _ := newDiskStore(t)
		require.Nil(t, os.WriteFile(filepath.Join(store.Dir(), "external.txt"), []byte("hi"), 0600))
		content, err := store.Get("external")
		require.Nil(t, err)
		assert.Equal(t, []byte("hi"), content)
		assert.True(t, errors.Is(store.Create("external", nil), storage.ErrAlreadyExists))
	})
	t.Run("put leaves no temporary files behind", func(t *testing.T) {
		store, _ := newDiskStore(t)
		require.Nil(t, store.Create("todo", []byte("buy milk")))
		require.Nil(t, store.Put("todo", []byte("buy eggs")))
		assert.True(t, errors.Is(store.Create("todo", nil), storage.ErrAlreadyExists))
		assert.Equal(t, []string{"todo.txt"}, dirNames(t, store.Dir()))
	})
	t.Run("traversal never touches files outside the directory", func(t *testing.T) {
		store, parent := newDiskStore(t)
		outside := filepath.Join(parent, "evil.txt")
		require.Nil(t, os.WriteFile(outside, []byte("precious"), 0600))
		for _, name := range []string{"../evil", "..", "../cache/../evil", outside} {
			assert.True(t, errors.Is(store.Create(name, []byte("x")), storage.ErrInvalidName), name)
			assert.True(t, errors.Is(store.Put(name, []byte("x")), storage.ErrInvalidName), name)
			assert.True(t, errors.Is(store.Delete(name), storage.ErrInvalidName), name)
			_, err := store.Get(name)
			assert.True(t, errors.Is(err, storage.ErrInvalidName), name)
		}
		assert.Equal(t, []string{"cache", "evil.txt"}, dirNames(t, parent))
		content, err := os.ReadFile(outside)
		require.Nil(t, err)
		assert.Equal(t, []byte("precious"), content)
		assert.Empty(t, dirNames(t, store.Dir()))
	})
	t.Run("symlinks never lead outside the directory", func(t *testing.T) {
		store, parent := newDiskStore(t)
		outside := filepath.Join(parent, "secret")
		require.Nil(t, os.WriteFile(outside, []byte("precious"), 0600))
		require.Nil(t, os.Symlink(outside, filepath.Join(store.Dir(), "leak.txt")))
		require.Nil(t, os.Symlink(filepath.Join(parent, "nowhere"), filepath.Join(store.Dir(), "dangling.txt")))
		for _, name := range []string{"leak", "dangling"} {
			_, err := store.Get(name)
			assert.True(t, errors.Is(err, storage.ErrNotFound), "%s: got %v", name, err)
			err = store.Put(name, []byte("overwritten"))
			assert.True(t, errors.Is(err, storage.ErrNotFound), "%s: got %v", name, err)
			err = store.Delete(name)
			assert.True(t, errors.Is(err, storage.ErrNotFound), "%s: got %v", name, err)
			err = store.Create(name, []byte("x"))
			assert.False(t, errors.Is(err, storage.ErrAlreadyExists), "%s: got %v", name, err)
			assert.True(t, errors.Is(err, storage.ErrIO), "%s: got %v", name, err)
		}
		content, err := os.ReadFile(outside)
		require.Nil(t, err)
		assert.Equal(t, []byte("precious"), content)
		assert.Equal(t, []string{"cache", "secret"}, dirNames(t, parent))
		assert.Equal(t, []string{"dangling.txt", "leak.txt"}, dirNames(t, store.Dir()))
		notes, err := store.List()
		require.Nil(t, err)
		assert.Empty(t, notes)
	})
	t.Run("a directory named like a note is not a note", func(t *testing.T) {
		store, _ := newDiskStore(t)
		require.Nil(t, os.Mkdir(filepath.Join(store.Dir(), "sub.txt"), 0700))
		_, err := store.Get("sub")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
		err = store.Put("sub", []byte("x"))
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
		err = store.Delete("sub")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
		assert.Equal(t, []string{"sub.txt"}, dirNames(t, store.Dir()))
		info, err := os.Stat(filepath.Join(store.Dir(), "sub.txt"))
		require.Nil(t, err)
		assert.True(t, info.IsDir())
	})
	t.Run("list skips what is not a note", func(t *testing.T) {
		store, _ := newDiskStore(t)
		dir := store.Dir()
		require.Nil(t, store.Create("a", []byte("x")))
		require.Nil(t, store.Create("b", []byte("y")))
		require.Nil(t, os.WriteFile(filepath.Join(dir, "README"), []byte("no extension"), 0600))
		require.Nil(t, os.WriteFile(filepath.Join(dir, ".notes-tmp-123"), []byte("half"), 0600))
		require.Nil(t, os.WriteFile(filepath.Join(dir, " padded.txt"), []byte("unreachable"), 0600))
		require.Nil(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0700))
		require.Nil(t, os.Symlink(filepath.Join(dir, "a.txt"), filepath.Join(dir, "link.txt")))
		notes, err := store.List()
		require.Nil(t, err)
		assert.ElementsMatch(t, []storage.Note{
			{Name: "a", Text: "x"},
			{Name: "b", Text: "y"},
		}, notes)
	})
	t.Run("list of empty directory is empty, not nil", func(t *testing.T) {
		store, _ := newDiskStore(t)
		notes, err := store.List()
		require.Nil(t, err)
		assert.NotNil(t, notes)
		assert.Empty(t, notes)
	})
	t.Run("unreadable directory", func(t *testing.T) {
		store, _ := newDiskStore(t)
		require.Nil(t, os.RemoveAll(store.Dir()))
		_, err := store.List()
		assert.True(t, errors.Is(err, storage.ErrIO), "got %v", err)
		err = store.Create("todo", []byte("x"))
		assert.True(t, errors.Is(err, storage.ErrIO), "got %v", err)
	})
}

func TestNewDiskStore(t *testing.T) {
	t.Run("directory must exist", func(t *testing.T) {
		_, err := storage.NewDiskStore(filepath.Join(t.TempDir(), "missing"))
		assert.NotNil(t, err)
	})
	t.Run("must be a directory", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file")
		require.Nil(t, os.WriteFile(f, nil, 0600))
		_, err := storage.NewDiskStore(f)
		assert.NotNil(t, err)
	})
	t.Run("path is canonicalized", func(t *testing.T) {
		parent := t.TempDir()
		real := filepath.Join(parent, "real")
		require.Nil(t, os.Mkdir(real, 0700))
		require.Nil(t, os.Symlink(real, filepath.Join(parent, "link")))
		store, err := storage.NewDiskStore(filepath.Join(parent, "link", ".", "..", "link"))
		require.Nil(t, err)
		canonical, err := filepath.EvalSymlinks(real)
		require.Nil(t, err)
		assert.Equal(t, canonical, store.Dir())
		require.Nil(t, store.Create("todo", []byte("x")))
		_, err = os.Stat(filepath.Join(real, "todo.txt"))
		assert.Nil(t, err)
	})
}
