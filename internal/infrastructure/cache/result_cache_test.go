package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ragline/ragline/internal/core/domain"
)

func testClock(start time.Time) (*time.Time, func() time.Time) {
	current := start
	return &current, func() time.Time { return current }
}

func response(id string) *domain.SearchResponse {
	return &domain.SearchResponse{RequestID: id}
}

func TestGetReturnsLiveEntry(t *testing.T) {
	c := New()
	c.Set("k", response("r1"), time.Minute)

	got, ok := c.Get("k")
	if !ok || got.RequestID != "r1" {
		t.Fatalf("expected the stored response, got %v %v", got, ok)
	}
}

func TestGetExpiresLazily(t *testing.T) {
	clock, now := testClock(time.Unix(1000, 0))
	c := New()
	c.now = now

	c.Set("k", response("r1"), time.Minute)
	*clock = clock.Add(61 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry must not be returned")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry must be dropped on read, len=%d", c.Len())
	}
}

func TestSetIgnoresNilAndZeroTTL(t *testing.T) {
	c := New()
	c.Set("k", nil, time.Minute)
	c.Set("k", response("r1"), 0)
	if c.Len() != 0 {
		t.Fatalf("expected nothing stored, len=%d", c.Len())
	}
}

func TestSetSameKeyLastWriteWins(t *testing.T) {
	c := New()
	c.Set("k", response("r1"), time.Minute)
	c.Set("k", response("r2"), time.Minute)

	got, ok := c.Get("k")
	if !ok || got.RequestID != "r2" {
		t.Fatalf("expected the later write, got %v %v", got, ok)
	}
}

func TestInvalidateAndPurge(t *testing.T) {
	c := New()
	c.Set("a", response("r1"), time.Minute)
	c.Set("b", response("r2"), time.Minute)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("invalidated entry must be gone")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("unrelated entry must survive invalidation")
	}

	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("purge must empty the cache, len=%d", c.Len())
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	clock, now := testClock(time.Unix(1000, 0))
	c := New()
	c.now = now

	c.Set("short", response("r1"), 10*time.Second)
	c.Set("long", response("r2"), 10*time.Minute)
	*clock = clock.Add(30 * time.Second)

	if removed := c.Sweep(); removed != 1 {
		t.Fatalf("expected one entry swept, got %d", removed)
	}
	if _, ok := c.Get("long"); !ok {
		t.Fatal("unexpired entry must survive the sweep")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			for j := 0; j < 200; j++ {
				c.Set(key, response(key), time.Minute)
				if got, ok := c.Get(key); ok && got.RequestID != key {
					t.Errorf("read a response stored under another key: %s vs %s", got.RequestID, key)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
