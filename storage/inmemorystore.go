package storage

import (
	"fmt"
	"sync"
)

// InMemoryStore is a Store implementation powered by a map, to be used for
// testing. It accepts and rejects the same names as DiskStore.
type InMemoryStore struct {
	sync.Mutex
	m map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		m: make(map[string][]byte),
	}
}

func (s *InMemoryStore) Get(name string) (content []byte, err error) {
	name, err = ValidateName(name)
	if err != nil {
		return nil, err
	}
	s.Lock()
	content, ok := s.m[name]
	s.Unlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return dup(content), nil
}

func (s *InMemoryStore) Put(name string, content []byte) (err error) {
	name, err = ValidateName(name)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	if _, ok := s.m[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	s.m[name] = dup(content)
	return nil
}

func (s *InMemoryStore) Delete(name string) (err error) {
	name, err = ValidateName(name)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	if _, ok := s.m[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	delete(s.m, name)
	return nil
}

func (s *InMemoryStore) List() (notes []Note, err error) {
	s.Lock()
	defer s.Unlock()
	notes = make([]Note, 0, len(s.m))
	for name, content := range s.m {
		notes = append(notes, Note{Name: name, Text: string(content)})
	}
	return notes, nil
}

func (s *InMemoryStore) Create(name string, content []byte) (err error) {
	name, err = ValidateName(name)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	if _, ok := s.m[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrAlreadyExists)
	}
	s.m[name] = dup(content)
	return nil
}
