package embedding

import (
	"sync"
	"testing"
)

func TestCache_GetSet(t *testing.T) {
	c := NewCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCache_SetExistingMovesToFront(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("a", []float32{3}) // refresh a
	c.Set("c", []float32{4}) // should evict b, not a
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	v, ok := c.Get("a")
	if !ok || v[0] != 3 {
		t.Errorf("a = %v, %v; want refreshed value", v, ok)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(8)
	keys := []string{"red car", "snowy peak", "harbor at dusk", "crowded market"}
	for i, k := range keys {
		c.Set(k, []float32{float32(i)})
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				k := keys[(g+i)%len(keys)]
				if v, ok := c.Get(k); ok && len(v) != 1 {
					t.Errorf("Get(%q) returned %d values", k, len(v))
					return
				}
				if i%64 == 0 {
					c.Set(k, []float32{float32(i)})
				}
			}
		}(g)
	}
	wg.Wait()

	for _, k := range keys {
		if _, ok := c.Get(k); !ok {
			t.Errorf("key %q lost after concurrent access", k)
		}
	}
	if c.Len() > 8 {
		t.Errorf("Len = %d, want <= capacity", c.Len())
	}
}
