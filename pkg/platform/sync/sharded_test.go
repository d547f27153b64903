package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedMutex(t *testing.T) {
	t.Run("shard selection is stable", func(t *testing.T) {
		assert.Equal(t, shardFor("tenant-a"), shardFor("tenant-a"))
		assert.Equal(t, 0, shardFor(""))
	})

	t.Run("serializes updates under one key", func(t *testing.T) {
		m := NewShardedMutex()
		counter := 0
		var wg sync.WaitGroup
		for range 200 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.With("tenant-a", func() { counter++ })
			}()
		}
		wg.Wait()
		assert.Equal(t, 200, counter)
	})
}
