package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrSessionBusy is returned when a turn gives up waiting for the session lock
var ErrSessionBusy = errors.New("session busy")

// sessionLocker hands out one mutex per session id. Entries are dropped once
// nobody holds or waits on them, so idle sessions cost nothing.
type sessionLocker struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sem  chan struct{}
	refs int
}

func newSessionLocker() *sessionLocker {
	return &sessionLocker{locks: make(map[string]*sessionLock)}
}

// Lock blocks until the session is free or ctx is done. The returned unlock is safe to call twice.
func (l *sessionLocker) Lock(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &sessionLock{sem: make(chan struct{}, 1)}
		l.locks[id] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(id, lk)
		return nil, fmt.Errorf("%w: %w", ErrSessionBusy, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.sem
			l.release(id, lk)
		})
	}, nil
}

func (l *sessionLocker) release(id string, lk *sessionLock) {
	l.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()
}

// held reports how many sessions currently have a lock entry
func (l *sessionLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
