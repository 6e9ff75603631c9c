package valkey

import (
	"context"
	"errors"
	"testing"
)

func TestNilCache(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 10); err != nil {
		t.Errorf("Set on nil cache: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete on nil cache: %v", err)
	}
	if err := c.Ping(ctx); err == nil {
		t.Error("expected Ping on nil cache to fail")
	}
	c.Close()
}
