package service

import "sync"

// deviceLocks is a registry of per-(user, device) mutexes. Entries are
// created on first acquire and removed again when the last holder releases,
// so an idle device costs nothing. Different devices never contend.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[string]*deviceLock
}

type deviceLock struct {
	mu   sync.Mutex
	refs int
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: make(map[string]*deviceLock)}
}

// acquire blocks until the caller exclusively holds the named lock.
func (dl *deviceLocks) acquire(key string) *deviceLock {
	dl.mu.Lock()
	lock, ok := dl.locks[key]
	if !ok {
		lock = &deviceLock{}
		dl.locks[key] = lock
	}
	lock.refs++
	dl.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// release drops the named lock and garbage-collects it when idle.
func (dl *deviceLocks) release(key string, lock *deviceLock) {
	lock.mu.Unlock()

	dl.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(dl.locks, key)
	}
	dl.mu.Unlock()
}
