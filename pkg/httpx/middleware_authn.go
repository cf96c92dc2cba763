package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/realmauth/pkg/jwtx"
	"github.com/aussiebroadwan/realmauth/pkg/slogx"
)

// Authenticate resolves an optional bearer session token into an account id
// on the request context. Requests without a valid token continue as
// anonymous; handlers decide whether that is acceptable.
func Authenticate(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(ctx).Debug("ignoring invalid session token", slog.Any("err", err))
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithAccountID(ctx, claims.AccountID)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With(slog.Uint64("account_id", uint64(claims.AccountID))))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
