package storage

import (
	"fmt"
	"os"
)

// tempPrefix marks files being written. They never carry the note extension,
// so List doesn't mistake them for notes.
const tempPrefix = ".notes-tmp-"

// writeTemp writes data to a new, synced file in dir and returns its path.
// The caller owns the file and must remove it.
func writeTemp(dir string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("could not create temp file in %q: %w", dir, err)
	}
	name := f.Name()
	fail := func(err error) (string, error) {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		return fail(fmt.Errorf("could not write %q: %w", name, err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("could not sync %q: %w", name, err))
	}
	if err := f.Chmod(perm); err != nil {
		return fail(fmt.Errorf("could not chmod %q: %w", name, err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("could not close %q: %w", name, err)
	}
	return name, nil
}

// replaceFile atomically replaces (or creates) filename with data. Readers
// see either the old content or the new, never a truncated file.
func replaceFile(filename string, data []byte, perm os.FileMode, dir string) error {
	tmp, err := writeTemp(dir, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("could not rename %q to %q: %w", tmp, filename, err)
	}
	return nil
}

// createFile atomically creates filename with data, failing with an error
// satisfying os.IsExist if filename is already there.
func createFile(filename string, data []byte, perm os.FileMode, dir string) error {
	tmp, err := writeTemp(dir, data, perm)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp)
	}()
	return os.Link(tmp, filename)
}
