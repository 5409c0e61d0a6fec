package utils

import "sync"

// Latest is a latest-wins cell.  Readers observe the most recent value set,
// or nothing before the first Set.  There is no way to clear it.
type Latest[T any] struct {
	value  T
	set    bool
	rwLock sync.RWMutex
}

// Set replaces the value.
func (l *Latest[T]) Set(v T) {
	l.rwLock.Lock()
	defer l.rwLock.Unlock()
	l.value = v
	l.set = true
}

// Get returns the value and whether one was ever set.
func (l *Latest[T]) Get() (T, bool) {
	l.rwLock.RLock()
	defer l.rwLock.RUnlock()
	return l.value, l.set
}
