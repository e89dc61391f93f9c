package storage

import (
	"sync"
)

// Serialized is a Store wrapping another Store so that operations on the same
// note never overlap. This closes the window DiskStore leaves between Put's
// existence check and its write, at the cost of a mutex per note in use.
// Operations on different notes, and List, still run concurrently.
type Serialized struct {
	mu       sync.Mutex
	locks    map[string]*noteLock
	delegate Store
}

type noteLock struct {
	sync.Mutex
	refs int
}

func NewSerialized(delegate Store) *Serialized {
	return &Serialized{
		locks:    make(map[string]*noteLock),
		delegate: delegate,
	}
}

func (s *Serialized) Get(name string) (content []byte, err error) {
	defer s.lock(name)()
	return s.delegate.Get(name)
}

func (s *Serialized) Put(name string, content []byte) error {
	defer s.lock(name)()
	return s.delegate.Put(name, content)
}

func (s *Serialized) Delete(name string) error {
	defer s.lock(name)()
	return s.delegate.Delete(name)
}

func (s *Serialized) List() ([]Note, error) {
	return s.delegate.List()
}

func (s *Serialized) Create(name string, content []byte) error {
	defer s.lock(name)()
	return s.delegate.Create(name, content)
}

// lock acquires the mutex for name and returns the function releasing it.
// Locks are keyed by validated name, so spellings differing only in
// surrounding white space share one. Invalid names get no lock: the delegate
// rejects them without touching anything.
func (s *Serialized) lock(name string) (unlock func()) {
	key, err := ValidateName(name)
	if err != nil {
		return func() {}
	}
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = new(noteLock)
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// held reports how many notes currently have a lock allocated.
func (s *Serialized) held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
