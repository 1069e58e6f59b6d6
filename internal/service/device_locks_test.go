package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeviceLocks_DifferentKeysNeverBlock(t *testing.T) {
	locks := newDeviceLocks()

	held := locks.acquire("alice/phone")
	defer locks.release("alice/phone", held)

	acquired := make(chan struct{})
	go func() {
		other := locks.acquire("alice/tablet")
		close(acquired)
		locks.release("alice/tablet", other)
	}()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("acquiring a different device's lock blocked behind a held one")
	}
}

func TestDeviceLocks_SameKeyExcludes(t *testing.T) {
	locks := newDeviceLocks()

	first := locks.acquire("alice/phone")

	entered := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(entered)
		second := locks.acquire("alice/phone")
		locks.release("alice/phone", second)
		close(done)
	}()

	<-entered
	select {
	case <-done:
		t.Fatal("second holder got the lock while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	locks.release("alice/phone", first)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second holder never got the lock after release")
	}
}

func TestDeviceLocks_IdleEntriesAreCollected(t *testing.T) {
	locks := newDeviceLocks()

	held := locks.acquire("alice/phone")
	locks.release("alice/phone", held)

	locks.mu.Lock()
	defer locks.mu.Unlock()
	require.Empty(t, locks.locks)
}
