package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/realmauth/pkg/httpx"
	"github.com/aussiebroadwan/realmauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestAuthenticate(t *testing.T) {
	signer, err := jwtx.NewHMACSigner([]byte("secret"), "", 0)
	require.NoError(t, err)

	var seen uint32
	h := httpx.Authenticate(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	valid, err := signer.IssueSessionToken(42)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   uint32
	}{
		{"no header is anonymous", "", 0},
		{"valid bearer", "Bearer " + valid, 42},
		{"scheme is case insensitive", "bearer " + valid, 42},
		{"invalid token is anonymous", "Bearer not-a-token", 0},
		{"other scheme is anonymous", "Basic dXNlcjpwYXNz", 0},
		{"empty bearer is anonymous", "Bearer ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = 99
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusNoContent, rec.Code)
			require.Equal(t, tt.want, seen)
		})
	}
}

func TestWriteText(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteText(rec, http.StatusOK, "User activated successfully")

	require.Equal(t, "User activated successfully", rec.Body.String())
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email"`
	}

	t.Run("valid", func(t *testing.T) {
		var dst body
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"bob@x.com"}`))
		require.NoError(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst))
		require.Equal(t, "bob@x.com", dst.Email)
	})

	for name, raw := range map[string]string{
		"unknown field": `{"mail":"bob@x.com"}`,
		"trailing data": `{"email":"a@b"}{"email":"c@d"}`,
		"not json":      `email=bob`,
		"too large":     `{"email":"` + strings.Repeat("a", httpx.MaxBodyBytes) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			var dst body
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
			require.Error(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst))
		})
	}
}
