package httpx

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/auth"
)

// CallbackSecretHeader carries the shared secret on supplier callbacks
// and distributor webhooks.
const CallbackSecretHeader = "X-Callback-Secret"

type ctxKey int

const ownerKey ctxKey = iota

// RequireOwner accepts requests with a valid bearer token and puts the
// token's user id in the context.
func RequireOwner(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			tok, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || strings.TrimSpace(tok) == "" {
				writeError(w, r, apperr.Unauthorized("missing bearer token"))
				return
			}
			claims, err := auth.ValidateToken(secret, strings.TrimSpace(tok))
			if err != nil {
				writeError(w, r, apperr.Unauthorized("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, claims.UserID)))
		})
	}
}

func ownerFrom(ctx context.Context) string {
	s, _ := ctx.Value(ownerKey).(string)
	return s
}

// RequireSecret compares the callback header against secret in constant
// time. An empty secret rejects every request.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(CallbackSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeError(w, r, apperr.Unauthorized("bad callback secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
