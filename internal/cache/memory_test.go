package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Errorf("Get = %q, want v1", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	if _, err := c.Get(context.Background(), "absent"); err != ErrCacheMiss {
		t.Errorf("error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("x"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); err != ErrCacheMiss {
		t.Errorf("expired entry error = %v, want ErrCacheMiss", err)
	}
	exists, err := c.Exists(ctx, "short")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("expired entry should not exist")
	}
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	exists, err := c.Exists(ctx, "forever")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("zero-TTL entry should never expire")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "k1", []byte("v1"), 0)
	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k1"); err != ErrCacheMiss {
		t.Errorf("error after delete = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheGetReturnsCopy(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "k1", []byte("v1"), 0)
	got, _ := c.Get(ctx, "k1")
	got[0] = 'X'

	again, _ := c.Get(ctx, "k1")
	if !bytes.Equal(again, []byte("v1")) {
		t.Error("mutating a returned value must not affect the stored entry")
	}
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache()
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
