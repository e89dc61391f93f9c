package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreListFailsOnUnreadableNote(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.Nil(t, err)
	require.Nil(t, store.Create("readable", []byte("x")))
	require.Nil(t, store.Create("secret", []byte("y")))

	defer func(saved func(string) ([]byte, error)) {
		readNote = saved
	}(readNote)
	read := readNote
	readNote = func(p string) ([]byte, error) {
		if filepath.Base(p) == "secret.txt" {
			return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrPermission}
		}
		return read(p)
	}

	notes, err := store.List()
	assert.True(t, errors.Is(err, ErrIO), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrPermission), "got %v", err)
	assert.Nil(t, notes)

	_, err = store.Get("secret")
	assert.True(t, errors.Is(err, ErrIO), "got %v", err)
	content, err := store.Get("readable")
	require.Nil(t, err)
	assert.Equal(t, []byte("x"), content)
}

func TestReadNoteRefusesWhatIsNotARegularFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.Nil(t, os.WriteFile(target, []byte("x"), 0600))
	require.Nil(t, os.Symlink(target, filepath.Join(dir, "link.txt")))
	require.Nil(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0700))

	for _, name := range []string{"link.txt", "sub.txt"} {
		_, err := readNote(filepath.Join(dir, name))
		assert.True(t, errors.Is(err, errNotRegular), "%s: got %v", name, err)
	}
	content, err := readNote(target)
	require.Nil(t, err)
	assert.Equal(t, []byte("x"), content)
	_, err = readNote(filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}
