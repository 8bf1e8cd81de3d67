package core

import (
	"context"
	"path/filepath"
	"sync"
)

// pathLocks serializes runs that write the same destination.
// Entries are reference counted and removed when the last holder leaves.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	ch   chan struct{}
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// lock blocks until path is free or ctx ends. The returned func releases it.
func (p *pathLocks) lock(ctx context.Context, path string) (func(), error) {
	key := lockKey(path)

	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pathLock{ch: make(chan struct{}, 1)}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			p.leave(key, l)
		}, nil
	case <-ctx.Done():
		p.leave(key, l)
		return nil, ctx.Err()
	}
}

func (p *pathLocks) leave(key string, l *pathLock) {
	p.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, key)
	}
	p.mu.Unlock()
}

func (p *pathLocks) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}

func lockKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
