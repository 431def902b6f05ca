package memorycache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New(&Config{MaxEntries: 10, DefaultTTL: time.Minute})

	if _, found := c.Get("missing"); found {
		t.Error("Get() on empty cache found a value")
	}

	c.Set("allowed", true, time.Minute)
	c.Set("denied", false, time.Minute)

	if allowed, found := c.Get("allowed"); !found || !allowed {
		t.Errorf("Get(allowed) = %v, %v, want true, true", allowed, found)
	}
	if allowed, found := c.Get("denied"); !found || allowed {
		t.Errorf("Get(denied) = %v, %v, want false, true", allowed, found)
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := New(&Config{MaxEntries: 10, DefaultTTL: time.Minute})

	c.Set("key", true, time.Minute)
	c.Set("key", false, time.Minute)

	if allowed, found := c.Get("key"); !found || allowed {
		t.Errorf("Get() after overwrite = %v, %v, want false, true", allowed, found)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(&Config{MaxEntries: 10, DefaultTTL: time.Minute})

	c.Set("short-lived", true, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("short-lived"); found {
		t.Error("Get() returned an expired entry")
	}
	if c.Len() != 0 {
		t.Errorf("Len() after expiry cleanup = %d, want 0", c.Len())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(&Config{MaxEntries: 2, DefaultTTL: time.Minute, EnableMetrics: true})

	c.Set("a", true, time.Minute)
	c.Set("b", true, time.Minute)

	// Touch "a" so "b" becomes least recently used
	c.Get("a")
	c.Set("c", true, time.Minute)

	if _, found := c.Get("b"); found {
		t.Error("least recently used entry was not evicted")
	}
	if _, found := c.Get("a"); !found {
		t.Error("recently used entry was evicted")
	}
	if evicted := c.Metrics().KeysEvicted; evicted != 1 {
		t.Errorf("KeysEvicted = %d, want 1", evicted)
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(&Config{MaxEntries: 10, DefaultTTL: time.Minute})

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key%d", i), true, time.Minute)
	}
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", c.Len())
	}
	if _, found := c.Get("key0"); found {
		t.Error("Get() found an entry after Clear()")
	}
}

func TestCache_Metrics(t *testing.T) {
	c := New(&Config{MaxEntries: 10, DefaultTTL: time.Minute, EnableMetrics: true})

	c.Set("key", true, time.Minute)
	c.Get("key")
	c.Get("missing")

	m := c.Metrics()
	if m.Hits != 1 || m.Misses != 1 || m.KeysAdded != 1 {
		t.Errorf("Metrics() = %+v, want 1 hit, 1 miss, 1 added", m)
	}

	disabled := New(&Config{MaxEntries: 10, DefaultTTL: time.Minute})
	disabled.Set("key", true, time.Minute)
	disabled.Get("key")
	if m := disabled.Metrics(); m.Hits != 0 {
		t.Errorf("Metrics() with metrics disabled = %+v, want zeros", m)
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	c := New(&Config{MaxEntries: 10, DefaultTTL: 10 * time.Millisecond})

	// A non-positive TTL falls back to the configured default
	c.Set("key", true, 0)
	if _, found := c.Get("key"); !found {
		t.Fatal("entry should be present before the default TTL elapses")
	}
	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get("key"); found {
		t.Error("entry should expire after the default TTL")
	}
}
