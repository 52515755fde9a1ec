// internal/api/middleware/idempotency.go
package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// IdempotencyHeader is the standard HTTP header for idempotency keys.
	IdempotencyHeader = "Idempotency-Key"

	// IdempotencyCacheTTL defines how long responses are cached in Redis.
	IdempotencyCacheTTL = 24 * time.Hour

	// LockTimeout prevents indefinite locks if a request crashes.
	LockTimeout = 10 * time.Second

	// RedisKeyPrefix for namespacing idempotency keys.
	RedisKeyPrefix = "idempotency:"

	// LockKeyPrefix for namespacing distributed locks.
	LockKeyPrefix = "lock:"
)

// responseWriterWrapper captures HTTP responses for caching.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriterWrapper) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// Idempotency implements request idempotency for mutation endpoints using
// Redis. Requests carrying an Idempotency-Key are processed at most once
// within the cache TTL; replays receive the originally recorded response.
// Requests without the header pass through untouched.
func Idempotency(rdb *redis.Client, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			idempotencyKey := r.Header.Get(IdempotencyHeader)
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			cacheKey := RedisKeyPrefix + idempotencyKey
			lockKey := LockKeyPrefix + idempotencyKey

			// Replay the stored response if this key was already processed.
			cachedResponse, err := rdb.Get(ctx, cacheKey).Result()
			if err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Hit", "true")
				_, _ = w.Write([]byte(cachedResponse))
				return
			}

			// Take a distributed lock so concurrent duplicates don't race.
			acquired, err := rdb.SetNX(ctx, lockKey, "processing", LockTimeout).Result()
			if err != nil {
				logger.Error("idempotency lock acquisition failed", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !acquired {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "a request with this idempotency key is currently being processed",
				})
				return
			}
			defer rdb.Del(ctx, lockKey)

			wrapped := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			// Only successful outcomes are replayable; failures may be retried.
			if wrapped.statusCode >= 200 && wrapped.statusCode < 300 {
				if err := rdb.Set(ctx, cacheKey, wrapped.body.String(), IdempotencyCacheTTL).Err(); err != nil {
					logger.Error("failed to cache idempotent response", "key", idempotencyKey, "error", err)
				}
			}
		})
	}
}
