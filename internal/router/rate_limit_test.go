package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"email":" Test@Example.com "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("email")(c)
	if key != "test@example.com|1.2.3.4" {
		t.Fatalf("key want test@example.com|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Test@Example.com") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRateLimitMiddlewareWithRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hits := 0
	r := gin.New()
	rule := RateLimitRule{Prefix: "test:rate:webhook", WindowSeconds: 60, MaxRequests: 1, BlockSeconds: 120, HTTPStatus: true}
	r.POST("/webhook", RateLimitMiddleware(client, rule, KeyByIP), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	loginRule := RateLimitRule{Prefix: "test:rate:login", WindowSeconds: 60, MaxRequests: 1}
	r.POST("/login", RateLimitMiddleware(client, loginRule, KeyByIP), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	send := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "5.6.7.8:1234"
		r.ServeHTTP(w, req)
		return w
	}

	if w := send("/webhook"); w.Code != http.StatusOK {
		t.Fatalf("first webhook want 200 got %d", w.Code)
	}
	w := send("/webhook")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("throttled webhook want HTTP 429 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status_code":429`) {
		t.Fatalf("throttled body should carry 429, got %s", w.Body.String())
	}
	if w.Header().Get("Retry-After") != "120" {
		t.Fatalf("retry-after want 120 got %q", w.Header().Get("Retry-After"))
	}
	if ttl := mr.TTL("test:rate:webhook:5.6.7.8"); ttl.Seconds() != 120 {
		t.Fatalf("blocked key ttl want 120s got %v", ttl)
	}

	// 未开启 HTTPStatus 的规则仍按业务码返回
	send("/login")
	w = send("/login")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status_code":429`) {
		t.Fatalf("login throttle want HTTP 200 with code 429, got %d %s", w.Code, w.Body.String())
	}
	if hits != 2 {
		t.Fatalf("handlers should run once per route, got %d", hits)
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint32", input: uint32(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
