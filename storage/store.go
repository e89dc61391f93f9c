package storage

import (
	"errors"
)

// Store represents a flat collection of named notes.
type Store interface {
	// Get should return ErrNotFound if the note is not in the store.
	Get(name string) (content []byte, err error)

	// Put replaces the content of an existing note. It should return
	// ErrNotFound if the note is not in the store.
	Put(name string, content []byte) (err error)

	// Delete should return ErrNotFound if the note is not in the store.
	Delete(name string) (err error)

	// List returns every note in the store, in no particular order.
	List() (notes []Note, err error)

	// Create should return ErrAlreadyExists if the note is already in the
	// store, leaving its content untouched.
	Create(name string, content []byte) (err error)
}

// Note is a name and its text, as returned by List.
type Note struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

var (
	// ErrNotFound indicates a note is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a note cannot be created because one with
	// the same name is in the store.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidName indicates a name that can't be mapped to a note, for
	// example because it's empty or contains a path separator.
	ErrInvalidName = errors.New("invalid note name")

	// ErrPathEscape indicates a name that would resolve to a file outside
	// the store directory. Errors wrapping it also wrap ErrInvalidName.
	ErrPathEscape = errors.New("path escapes store directory")

	// ErrIO indicates the underlying filesystem operation failed for reasons
	// other than the note existing or not.
	ErrIO = errors.New("i/o failure")
)

func dup(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
