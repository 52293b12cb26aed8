package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Token diterbitkan & diverifikasi layanan akun; API ini cuma resolve
// token -> identity. Tidak ada kredensial yang diproses di sini.
type TokenVerifier interface {
	VerifyCustomer(ctx context.Context, token string) (customerID string, err error)
	VerifySeller(ctx context.Context, token string) (sellerID string, err error)
}

var ErrTokenUnknown = errors.New("unknown token")

// RedisTokenVerifier resolve token opaque dari store yang di-populate
// layanan akun.
type RedisTokenVerifier struct{ Redis *redis.Client }

func (v *RedisTokenVerifier) VerifyCustomer(ctx context.Context, token string) (string, error) {
	return v.lookup(ctx, fmt.Sprintf(redisx.KeyCustomerToken, token))
}

func (v *RedisTokenVerifier) VerifySeller(ctx context.Context, token string) (string, error) {
	return v.lookup(ctx, fmt.Sprintf(redisx.KeySellerToken, token))
}

func (v *RedisTokenVerifier) lookup(ctx context.Context, key string) (string, error) {
	id, err := v.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenUnknown
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

type ctxKey int

const (
	ctxCustomerID ctxKey = iota
	ctxSellerID
)

func CustomerID(ctx context.Context) string {
	id, _ := ctx.Value(ctxCustomerID).(string)
	return id
}

func SellerID(ctx context.Context) string {
	id, _ := ctx.Value(ctxSellerID).(string)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func RequireCustomer(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			id, err := v.VerifyCustomer(r.Context(), tok)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxCustomerID, id)))
		})
	}
}

func RequireSeller(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			id, err := v.VerifySeller(r.Context(), tok)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxSellerID, id)))
		})
	}
}
