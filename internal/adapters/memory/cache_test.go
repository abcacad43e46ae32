package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thihaagset01/midwhereah/internal/core/ports"
)

func TestCache_SetGet(t *testing.T) {
	c := New()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 60); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}
}

func TestCache_MissingKey(t *testing.T) {
	c := New()
	_, err := c.Get(context.Background(), "absent")
	if !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.entries["k"] = entry{value: []byte("v"), expiresAt: time.Now().Add(-time.Second)}

	_, err := c.Get(ctx, "k")
	if !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expired key should miss, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expired key should be removed on read, len = %d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 60)
	c.Delete(ctx, "k")

	_, err := c.Get(ctx, "k")
	if !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("deleted key should miss, got %v", err)
	}
}

func TestCache_NonPositiveTTLStoresNothing(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	if c.Len() != 0 {
		t.Errorf("zero TTL stored an entry")
	}
}

func TestCache_Sweep(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Set(ctx, "live", []byte("v"), 60)
	c.entries["dead1"] = entry{expiresAt: time.Now().Add(-time.Minute)}
	c.entries["dead2"] = entry{expiresAt: time.Now().Add(-time.Hour)}

	if evicted := c.Sweep(); evicted != 2 {
		t.Errorf("Sweep evicted %d, want 2", evicted)
	}
	if c.Len() != 1 {
		t.Errorf("len after sweep = %d, want 1", c.Len())
	}
}
