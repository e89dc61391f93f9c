package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	noteExt = ".txt"

	// Most filesystems limit a single path element to 255 bytes, and the
	// extension takes four of those.
	maxNameLen = 255 - len(noteExt)
)

// ValidateName checks that raw can be used as a note name and returns it with
// leading and trailing white space removed. The trimmed name is the one every
// store operation works with. Errors wrap ErrInvalidName.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		return "", fmt.Errorf("%q: empty: %w", raw, ErrInvalidName)
	case name == "." || name == "..":
		return "", fmt.Errorf("%q: reserved: %w", raw, ErrInvalidName)
	case len(name) > maxNameLen:
		return "", fmt.Errorf("%.40q...: longer than %d bytes: %w", name, maxNameLen, ErrInvalidName)
	case !utf8.ValidString(name):
		return "", fmt.Errorf("%q: not valid UTF-8: %w", raw, ErrInvalidName)
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator):
		return "", fmt.Errorf("%q: contains a path separator: %w", raw, ErrInvalidName)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return "", fmt.Errorf("%q: contains a control character: %w", raw, ErrInvalidName)
	}
	return name, nil
}

// resolvePath maps a name already accepted by ValidateName to its file under
// base, which must be clean and absolute. It doesn't trust the validator:
// anything that would land outside base, or below it, is refused.
func resolvePath(base, name string) (string, error) {
	p := filepath.Join(base, name+noteExt)
	rel, err := filepath.Rel(base, p)
	if err != nil || filepath.Dir(p) != base || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w: %w", name, ErrInvalidName, ErrPathEscape)
	}
	return p, nil
}

// nameFromFile is the inverse of resolvePath for directory entries: it
// reports the note name stored in the file with the given base name, if any.
func nameFromFile(filename string) (string, bool) {
	if !strings.HasSuffix(filename, noteExt) {
		return "", false
	}
	stem := strings.TrimSuffix(filename, noteExt)
	name, err := ValidateName(stem)
	if err != nil || name != stem {
		return "", false
	}
	return name, true
}
