package engine

import "sync"

// pathLocks serializes operations on the same local path while letting
// different paths proceed independently.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// lock acquires the mutex of path and returns its release func.
func (p *pathLocks) lock(path string) func() {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &pathLock{}
		p.locks[path] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, path)
		}
		p.mu.Unlock()
	}
}
