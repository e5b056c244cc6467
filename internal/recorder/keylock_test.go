package recorder

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesPerKey(t *testing.T) {
	kl := NewKeyLock()
	counts := map[string]*int{"a": new(int), "b": new(int)}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		key := []string{"a", "b"}[i%2]
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock(key)
			defer kl.Unlock(key)
			*counts[key]++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, *counts["a"])
	assert.Equal(t, 50, *counts["b"])
	assert.Equal(t, 0, kl.Len())
}
