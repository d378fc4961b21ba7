package cache_test

import (
	"testing"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_StructValues(t *testing.T) {
	type doc struct {
		Name  string
		Count int
	}
	c := cache.New[doc](5 * time.Minute)

	c.Set("d", doc{Name: "boletos", Count: 3})
	got, ok := c.Get("d")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if got.Name != "boletos" || got.Count != 3 {
		t.Errorf("unexpected value: %+v", got)
	}
}
