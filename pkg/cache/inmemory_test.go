package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemory(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	c := NewInMemory[string]()
	c.now = func() time.Time { return now }

	c.Set("a", "1", time.Minute)
	c.Set("b", "2", time.Hour)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	v, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	c.evictExpired()
	assert.Equal(t, 1, c.Len())

	c.Delete("b")
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestInMemory_Take(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	c := NewInMemory[int]()
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	c.Set("expired", 2, time.Second)
	now = now.Add(time.Second)

	v, ok := c.Take("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = c.Take("a")
	assert.False(t, ok)

	_, ok = c.Take("expired")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestInMemory_TakeConcurrent(t *testing.T) {
	t.Parallel()

	c := NewInMemory[int]()
	c.Set("a", 1, time.Hour)

	var (
		wg    sync.WaitGroup
		taken atomic.Int32
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.Take("a"); ok {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), taken.Load())
}
