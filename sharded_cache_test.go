package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	cache "github.com/krisalay/expiring-cache"
)

func TestShardedCache_BasicOperations(t *testing.T) {
	c := cache.NewShardedCache[string, string](4, time.Minute)

	c.Insert("key1", "value1")
	v, ok := c.Get("key1")
	if !ok || v != "value1" {
		t.Fatalf("Get: got (%q, %v), want (value1, true)", v, ok)
	}

	prev, replaced := c.Insert("key1", "value2")
	if !replaced || prev != "value1" {
		t.Fatalf("Insert overwrite: got (%q, %v), want (value1, true)", prev, replaced)
	}

	v, ok = c.Remove("key1")
	if !ok || v != "value2" {
		t.Fatalf("Remove: got (%q, %v), want (value2, true)", v, ok)
	}
	if c.Len() != 0 {
		t.Fatalf("Len: got %d, want 0", c.Len())
	}
}

func TestShardedCache_ZeroShardsMeansOne(t *testing.T) {
	c := cache.NewShardedCache[int, int](0, time.Minute)
	c.Insert(1, 1)
	if v, ok := c.Get(1); !ok || v != 1 {
		t.Fatalf("Get: got (%d, %v), want (1, true)", v, ok)
	}
}

func TestShardedCache_Expires(t *testing.T) {
	clk := newFakeClock()
	c := cache.NewShardedCache[string, int](4, 10*time.Second, cache.WithClock(clk.Now))

	var mu sync.Mutex
	evicted := 0
	c.SetOnEvicted(func(string, int) {
		mu.Lock()
		evicted++
		mu.Unlock()
	})

	for i := 0; i < 100; i++ {
		c.Insert(fmt.Sprintf("key-%d", i), i)
	}

	clk.At(20 * time.Second)
	for i := 0; i < 100; i++ {
		if _, ok := c.Get(fmt.Sprintf("key-%d", i)); ok {
			t.Fatalf("key-%d: expected miss after ttl", i)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("Len after expiry: got %d, want 0", c.Len())
	}
	if evicted != 100 {
		t.Fatalf("evicted callbacks: got %d, want 100", evicted)
	}
}

func TestShardedCache_ConcurrentAccess(t *testing.T) {
	c := cache.NewShardedCache[string, int](8, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("key-%d", i%50)
				switch i % 3 {
				case 0:
					c.Insert(key, g)
				case 1:
					c.Get(key)
				default:
					c.Remove(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if n := c.Len(); n > 50 {
		t.Fatalf("Len: got %d, want at most 50 distinct keys", n)
	}
}

func TestShardedCache_ConcurrentGetSameKey(t *testing.T) {
	c := cache.NewShardedCache[string, string](2, time.Minute)
	c.Insert("key", "value")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, ok := c.Get("key")
			if !ok || v != "value" {
				t.Errorf("expected value, got (%q, %v)", v, ok)
			}
		}()
	}
	wg.Wait()
}

func TestShardedCache_DoIsAtomicPerKey(t *testing.T) {
	c := cache.NewShardedCache[string, int](4, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Do("counter", func(m *cache.ExpiringMap[string, int]) {
				n, _ := m.Get("counter")
				m.Insert("counter", n+1)
			})
		}()
	}
	wg.Wait()

	if v, _ := c.Get("counter"); v != 100 {
		t.Fatalf("counter: got %d, want 100", v)
	}
}
