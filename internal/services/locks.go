package services

import "sync"

// UserLocks hands out one mutex per user. Entries are dropped once nobody
// holds or waits on them, so the map only grows with concurrent users.
type UserLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[int64]*userLock)}
}

func (l *UserLocks) acquire(userID int64) *userLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	return ul
}

func (l *UserLocks) release(userID int64, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

// Lock blocks until the user's lock is held and returns its unlock func.
func (l *UserLocks) Lock(userID int64) func() {
	ul := l.acquire(userID)
	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.release(userID, ul)
	}
}

// TryLock is Lock without waiting.
func (l *UserLocks) TryLock(userID int64) (func(), bool) {
	ul := l.acquire(userID)
	if !ul.mu.TryLock() {
		l.release(userID, ul)
		return nil, false
	}
	return func() {
		ul.mu.Unlock()
		l.release(userID, ul)
	}, true
}

func (l *UserLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
