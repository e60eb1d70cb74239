package tx

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// addressLocks hands out one RWMutex per account address. Entries are
// reference counted and dropped when the last holder releases them.
type addressLocks struct {
	mu    sync.Mutex
	locks map[solana.PublicKey]*addressLock
}

type addressLock struct {
	sync.RWMutex
	refs int
}

func newAddressLocks() *addressLocks {
	return &addressLocks{locks: make(map[solana.PublicKey]*addressLock)}
}

// lock acquires the lock for addr and returns its release function.
// shared selects a read lock.
func (l *addressLocks) lock(addr solana.PublicKey, shared bool) func() {
	l.mu.Lock()
	al, ok := l.locks[addr]
	if !ok {
		al = &addressLock{}
		l.locks[addr] = al
	}
	al.refs++
	l.mu.Unlock()

	if shared {
		al.RLock()
	} else {
		al.Lock()
	}

	return func() {
		if shared {
			al.RUnlock()
		} else {
			al.Unlock()
		}
		l.mu.Lock()
		al.refs--
		if al.refs == 0 {
			delete(l.locks, addr)
		}
		l.mu.Unlock()
	}
}
