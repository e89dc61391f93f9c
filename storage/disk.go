package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const notePerm = 0600

// DiskStore implements Store keeping each note in its own regular file, named
// after the note plus ".txt", in a single directory. Symlinks and directories
// with a note's file name are not notes. The directory is the only
// index: there is no cache, so every call observes the filesystem as is.
//
// Create is atomic: of concurrent creates for the same name, exactly one
// succeeds. Delete is atomic too. Put checks for existence before replacing
// the content, so a Put racing with a Delete of the same note may bring the
// note back; wrap the store with NewSerialized if that matters.
type DiskStore struct {
	dir string
}

// NewDiskStore returns a store keeping notes in dir, which must be an
// existing directory. The path is made absolute and symlinks are resolved, so
// that every note path can be checked against it.
func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not make %q absolute: %w", dir, err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("could not resolve %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("could not stat %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q: not a directory", abs)
	}
	return &DiskStore{dir: abs}, nil
}

// Dir returns the canonical directory holding the notes.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) Get(name string) (content []byte, err error) {
	p, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	content, err = readNote(p)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, errNotRegular) {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w: %w", p, ErrIO, err)
	}
	return content, nil
}

func (s *DiskStore) Put(name string, content []byte) (err error) {
	p, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := checkNote(name, p); err != nil {
		return err
	}
	if err := replaceFile(p, content, notePerm, s.dir); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func (s *DiskStore) Delete(name string) (err error) {
	p, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := checkNote(name, p); err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("could not remove %q: %w: %w", p, ErrIO, err)
	}
	return nil
}

// List reads every note in the directory. Entries that aren't regular
// ".txt" files with a valid name are ignored, and so are notes deleted while
// the listing is in progress. Any other failure to read a note fails the
// whole listing.
func (s *DiskStore) List() (notes []Note, err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("could not read directory %q: %w: %w", s.dir, ErrIO, err)
	}
	notes = make([]Note, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name, ok := nameFromFile(entry.Name())
		if !ok {
			log.WithFields(log.Fields{
				"dir":  s.dir,
				"file": entry.Name(),
			}).Debug("Skipping file that is not a note")
			continue
		}
		p := filepath.Join(s.dir, entry.Name())
		content, err := readNote(p)
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, errNotRegular) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not read %q: %w: %w", p, ErrIO, err)
		}
		notes = append(notes, Note{Name: name, Text: string(content)})
	}
	return notes, nil
}

func (s *DiskStore) Create(name string, content []byte) (err error) {
	p, err := s.pathFor(name)
	if err != nil {
		return err
	}
	err = createFile(p, content, notePerm, s.dir)
	if errors.Is(err, fs.ErrExist) {
		if _, serr := statNote(p); errors.Is(serr, errNotRegular) {
			return fmt.Errorf("%q: %w: %w", name, ErrIO, serr)
		}
		return fmt.Errorf("%q: %w", name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func (s *DiskStore) pathFor(name string) (string, error) {
	valid, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	return resolvePath(s.dir, valid)
}

// errNotRegular marks something with a note's file name that isn't a regular
// file, e.g., a directory or a symlink. It's never treated as a note, so that
// no operation reaches outside the store directory through a link.
var errNotRegular = errors.New("not a regular file")

// statNote is os.Lstat, failing with errNotRegular for anything but a
// regular file.
func statNote(p string) (fs.FileInfo, error) {
	info, err := os.Lstat(p)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%q: %w", p, errNotRegular)
	}
	return info, nil
}

// checkNote maps the state of p to the error Put and Delete return for it.
func checkNote(name, p string) error {
	_, err := statNote(p)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, errNotRegular) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("could not stat %q: %w: %w", p, ErrIO, err)
	}
	return nil
}

// readNote reads the regular file at p. The file opened must be the one
// statNote found, so a symlink swapped in between is refused too.
var readNote = func(p string) ([]byte, error) {
	info, err := statNote(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	opened, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !os.SameFile(info, opened) {
		return nil, fmt.Errorf("%q: replaced while opening: %w", p, errNotRegular)
	}
	return io.ReadAll(f)
}
