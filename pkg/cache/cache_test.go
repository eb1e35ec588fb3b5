package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/vaultshare/pkg/cache"
	"github.com/yeisme/vaultshare/pkg/configs"
	"github.com/yeisme/vaultshare/pkg/internal/storage/kv"
)

type shareStats struct {
	Token string `json:"token"`
	Views int64  `json:"views"`
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, &configs.KVConfig{})
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	return cache.NewCache(store)
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := cache.Get[shareStats](ctx, c, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("miss err = %v, want kv.ErrKeyNotFound", err)
	}

	in := shareStats{Token: "sh_x", Views: 42}
	if err := cache.Set(ctx, c, "stats:sh_x", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := cache.Get[shareStats](ctx, c, "stats:sh_x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}

	if err := c.Delete(ctx, "stats:sh_x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if exists, _ := c.Exists(ctx, "stats:sh_x"); exists {
		t.Error("key should not exist after delete")
	}
}

func TestGetOrSetComputesOnce(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	getter := func() (shareStats, error) {
		calls++
		return shareStats{Token: "sh_y", Views: 7}, nil
	}

	first, err := cache.GetOrSet(ctx, c, "stats:sh_y", getter, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}

	second, err := cache.GetOrSet(ctx, c, "stats:sh_y", getter, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}

	if calls != 1 {
		t.Errorf("getter called %d times, want 1", calls)
	}

	if first != second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestGetOrSetGetterError(t *testing.T) {
	c := newTestCache(t)

	wantErr := errors.New("rollup failed")
	getter := func() (shareStats, error) { return shareStats{}, wantErr }

	if _, err := cache.GetOrSet(context.Background(), c, "stats:bad", getter, time.Minute); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
