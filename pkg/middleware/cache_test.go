package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/vaultshare/pkg/cache"
	"github.com/yeisme/vaultshare/pkg/configs"
	"github.com/yeisme/vaultshare/pkg/internal/storage/kv"
	"github.com/yeisme/vaultshare/pkg/middleware"
)

func newCacheTestRouter(t *testing.T, hits *int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, &configs.KVConfig{})
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	r := gin.New()
	r.GET("/stats", middleware.CacheMiddleware(middleware.CacheConfig{
		Cache:       appcache.NewCache(store),
		TTL:         time.Minute,
		VaryHeaders: []string{"X-User"},
	}), func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"user": c.GetHeader("X-User"), "hits": *hits})
	})

	return r
}

func doGet(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestCacheMiddlewareServesFromStore(t *testing.T) {
	hits := 0
	r := newCacheTestRouter(t, &hits)

	first := doGet(r, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}

	if first.Header().Get("X-Cache") == "HIT" {
		t.Error("first request should not be a cache hit")
	}

	second := doGet(r, nil)
	if second.Header().Get("X-Cache") != "HIT" {
		t.Error("second request should be served from cache")
	}

	if second.Body.String() != first.Body.String() {
		t.Errorf("cached body %q differs from original %q", second.Body.String(), first.Body.String())
	}

	if hits != 1 {
		t.Errorf("handler invoked %d times, want 1", hits)
	}
}

func TestCacheMiddlewareBypassHeader(t *testing.T) {
	hits := 0
	r := newCacheTestRouter(t, &hits)

	doGet(r, nil)
	doGet(r, map[string]string{"X-Cache-Bypass": "1"})

	if hits != 2 {
		t.Errorf("handler invoked %d times, want 2 (bypass skips cache)", hits)
	}
}

func TestCacheMiddlewareVaryHeaders(t *testing.T) {
	hits := 0
	r := newCacheTestRouter(t, &hits)

	a := doGet(r, map[string]string{"X-User": "alice"})
	b := doGet(r, map[string]string{"X-User": "bob"})

	if b.Header().Get("X-Cache") == "HIT" {
		t.Error("different vary header value must not share a cache entry")
	}

	if a.Body.String() == b.Body.String() {
		t.Error("responses for different users should differ")
	}

	if hits != 2 {
		t.Errorf("handler invoked %d times, want 2", hits)
	}

	again := doGet(r, map[string]string{"X-User": "alice"})
	if again.Header().Get("X-Cache") != "HIT" {
		t.Error("repeat request with same vary header should hit cache")
	}
}
