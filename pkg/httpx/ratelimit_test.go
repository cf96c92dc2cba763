package httpx_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/realmauth/pkg/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// hit sends one login attempt from addr, signed in as accountID when non-zero.
func hit(h http.Handler, addr string, accountID uint32) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/login", nil)
	req.RemoteAddr = addr
	if accountID != 0 {
		req = req.WithContext(httpx.WithAccountID(req.Context(), accountID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func perMinute(n int) httpx.RateLimitConfig {
	return httpx.RateLimitConfig{RequestsPerWindow: n, Window: time.Minute, Burst: n}
}

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", want: "198.51.100.7"},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, want: "203.0.113.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 203.0.113.2 "}, want: "203.0.113.2"},
		{name: "forwarded wins over real ip", headers: map[string]string{
			"X-Forwarded-For": "203.0.113.3",
			"X-Real-IP":       "203.0.113.4",
		}, want: "203.0.113.3"},
		{name: "blank forwarded hop", headers: map[string]string{"X-Forwarded-For": " , 10.0.0.1"}, want: "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "198.51.100.7:40000"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestAccountKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, httpx.AccountKeyExtractor(req))

	req = req.WithContext(httpx.WithAccountID(req.Context(), 42))
	assert.Equal(t, "acct:42", httpx.AccountKeyExtractor(req))
}

func TestCompositeKeyExtractor(t *testing.T) {
	extract := httpx.CompositeKeyExtractor("|", httpx.IPKeyExtractor, httpx.AccountKeyExtractor)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:40000"
	assert.Equal(t, "198.51.100.7", extract(req), "anonymous callers only contribute their address")

	req = req.WithContext(httpx.WithAccountID(req.Context(), 7))
	assert.Equal(t, "198.51.100.7|acct:7", extract(req))
}

func TestFirstKeyExtractor(t *testing.T) {
	none := func(*http.Request) string { return "" }
	fixed := func(*http.Request) string { return "fixed" }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "fixed", httpx.FirstKeyExtractor(none, fixed)(req))
	assert.Empty(t, httpx.FirstKeyExtractor(none, none)(req))
}

func TestRateLimitByIP(t *testing.T) {
	limited := httpx.RateLimitByIP(perMinute(3))(okHandler)

	for i := range 3 {
		require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 0).Code, "attempt %d", i+1)
	}
	require.Equal(t, http.StatusTooManyRequests, hit(limited, "198.51.100.7:40001", 0).Code, "port does not matter")

	// Another address has its own budget
	require.Equal(t, http.StatusOK, hit(limited, "198.51.100.8:40000", 0).Code)
}

func TestRateLimitBurst(t *testing.T) {
	limited := httpx.RateLimitMiddleware(httpx.RateLimitConfig{
		RequestsPerWindow: 600,
		Window:            time.Minute,
		Burst:             4,
	}, httpx.IPKeyExtractor)(okHandler)

	for i := range 4 {
		require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 0).Code, "burst request %d", i+1)
	}
	require.Equal(t, http.StatusTooManyRequests, hit(limited, "198.51.100.7:40000", 0).Code)
}

func TestRateLimitBurstDefaultsToRequests(t *testing.T) {
	limited := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Hour})(okHandler)

	require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 0).Code)
	require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 0).Code)
	require.Equal(t, http.StatusTooManyRequests, hit(limited, "198.51.100.7:40000", 0).Code)
}

func TestRateLimitResponse(t *testing.T) {
	limited := httpx.RateLimitByIP(perMinute(1))(okHandler)

	require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 0).Code)
	rec := hit(limited, "198.51.100.7:40000", 0)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.NotEmpty(t, body["error_description"])
}

func TestRateLimitEmptyKeyPassesThrough(t *testing.T) {
	limited := httpx.RateLimitMiddleware(perMinute(1), func(*http.Request) string { return "" })(okHandler)

	for range 3 {
		require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 0).Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	tests := []struct {
		name   string
		config httpx.RateLimitConfig
	}{
		{name: "zero value", config: httpx.RateLimitConfig{}},
		{name: "no window", config: httpx.RateLimitConfig{RequestsPerWindow: 1}},
		{name: "no requests", config: httpx.RateLimitConfig{Window: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.config.Disabled())

			limited := httpx.RateLimitByIP(tt.config)(okHandler)
			for range 50 {
				require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 0).Code)
			}
		})
	}
}

func TestDefaultProfiles(t *testing.T) {
	p := httpx.DefaultProfiles()

	for name, config := range map[string]httpx.RateLimitConfig{
		"strict":   p.Strict,
		"moderate": p.Moderate,
		"lenient":  p.Lenient,
	} {
		t.Run(name, func(t *testing.T) {
			require.False(t, config.Disabled())
			require.Positive(t, config.Burst)
		})
	}

	require.Less(t, p.Strict.RequestsPerWindow, p.Moderate.RequestsPerWindow)
	require.Less(t, p.Moderate.RequestsPerWindow, p.Lenient.RequestsPerWindow)
}

func TestRateLimitByAccount(t *testing.T) {
	limited := httpx.RateLimitByAccount(perMinute(1))(okHandler)

	require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 1).Code)
	require.Equal(t, http.StatusTooManyRequests, hit(limited, "198.51.100.7:40000", 1).Code)
	require.Equal(t, http.StatusTooManyRequests, hit(limited, "198.51.100.9:40000", 1).Code, "the budget follows the account")

	// Same address, different account
	require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 2).Code)

	// Anonymous callers fall back to the address bucket
	require.Equal(t, http.StatusOK, hit(limited, "198.51.100.7:40000", 0).Code)
	require.Equal(t, http.StatusTooManyRequests, hit(limited, "198.51.100.7:40000", 0).Code)
}

func BenchmarkRateLimitManyAddresses(b *testing.B) {
	limited := httpx.RateLimitByIP(httpx.RateLimitConfig{
		RequestsPerWindow: 1_000_000,
		Window:            time.Minute,
		Burst:             1000,
	})(okHandler)

	for i := 0; b.Loop(); i++ {
		hit(limited, fmt.Sprintf("10.0.%d.%d:40000", i%255, (i/255)%255), 0)
	}
}
