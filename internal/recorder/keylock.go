package recorder

import "sync"

// KeyLock ensures that only one Record per URL is running at any given time.
// Callers for other keys never contend.
type KeyLock struct {
	mu   sync.Mutex
	keys map[string]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLock creates a new KeyLock.
func NewKeyLock() *KeyLock {
	return &KeyLock{
		keys: make(map[string]*keyEntry),
	}
}

// Lock blocks until the lock for key is acquired.
func (kl *KeyLock) Lock(key string) {
	kl.mu.Lock()
	e, ok := kl.keys[key]
	if !ok {
		e = &keyEntry{}
		kl.keys[key] = e
	}
	e.refs++
	kl.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for key. The entry is dropped once nobody holds or waits on it.
func (kl *KeyLock) Unlock(key string) {
	kl.mu.Lock()
	e := kl.keys[key]
	e.refs--
	if e.refs == 0 {
		delete(kl.keys, key)
	}
	kl.mu.Unlock()

	e.mu.Unlock()
}

// Len reports how many keys are currently held or awaited.
func (kl *KeyLock) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.keys)
}
