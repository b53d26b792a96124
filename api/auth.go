/*
auth.go - Bearer token middleware

PURPOSE:
  Identifies the calling user. Token issuance happens at an external
  identity provider; this middleware only verifies the HS256 signature
  and extracts the subject claim as the owner id, which handlers then
  thread explicitly through every core call. The core never reads
  ambient request state.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/wallet-engine/wallet"
)

type ctxKey string

const ownerKey ctxKey = "owner_id"

// Authenticator verifies bearer tokens and attaches the owner id to the
// request context.
type Authenticator struct {
	Secret []byte
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(h, "Bearer "), func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return a.Secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			writeError(w, http.StatusUnauthorized, "Token has no subject", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, wallet.OwnerID(sub))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerFromContext returns the authenticated owner id.
func ownerFromContext(ctx context.Context) (wallet.OwnerID, bool) {
	owner, ok := ctx.Value(ownerKey).(wallet.OwnerID)
	return owner, ok
}
