package cache

import (
	"fmt"
	"testing"
	"time"
)

func testCache(maxSize int, ttl time.Duration) (*Cache[string], *time.Time) {
	c := New[string](maxSize, ttl)
	now := time.Now()
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetSet(t *testing.T) {
	c, _ := testCache(10, time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected hit")
	}
	c.Set("k", "v")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected hit with %q, got %q, %v", "v", v, ok)
	}
}

func TestExpiry(t *testing.T) {
	c, now := testCache(10, time.Minute)
	c.Set("k", "v")
	*now = now.Add(61 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry returned")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not removed lazily, len=%d", c.Len())
	}
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	c, _ := testCache(3, time.Minute)
	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	if _, ok := c.Get("k0"); ok {
		t.Fatal("oldest entry survived eviction")
	}
	for i := 1; i < 4; i++ {
		if _, ok := c.Get(fmt.Sprintf("k%d", i)); !ok {
			t.Fatalf("entry k%d missing", i)
		}
	}
}

func TestSetExistingKeyDoesNotEvict(t *testing.T) {
	c, _ := testCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "3")
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if v, _ := c.Get("a"); v != "3" {
		t.Fatalf("expected updated value, got %q", v)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("untouched entry evicted by an update")
	}
}

func TestSweep(t *testing.T) {
	c, now := testCache(10, time.Minute)
	c.Set("old", "v")
	*now = now.Add(2 * time.Minute)
	c.Set("fresh", "v")
	if removed := c.Sweep(); removed != 1 {
		t.Fatalf("expected 1 entry swept, got %d", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry swept")
	}
}

func TestClear(t *testing.T) {
	c, _ := testCache(10, time.Minute)
	c.Set("k", "v")
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, len=%d", c.Len())
	}
	c.Set("k2", "v2")
	if _, ok := c.Get("k2"); !ok {
		t.Fatal("cache unusable after Clear")
	}
}
