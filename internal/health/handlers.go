// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-bazaar/internal/common"
)

// Handler probes the database and Redis for readiness.
type Handler struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Timeout time.Duration
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.Timeout
}

// Live always reports ok while the process is up.
func (Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports per-dependency status; any failure yields 503.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"db":    h.probe(r.Context(), h.pingDB),
		"redis": h.probe(r.Context(), h.pingRedis),
	}
	code := http.StatusOK
	for _, v := range status {
		if v != "ok" {
			code = http.StatusServiceUnavailable
			break
		}
	}
	common.JSON(w, code, status)
}

func (h Handler) probe(ctx context.Context, ping func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout())
	defer cancel()
	if err := ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}

func (h Handler) pingDB(ctx context.Context) error {
	if h.Pool == nil {
		return errNotConfigured("database")
	}
	return h.Pool.Ping(ctx)
}

func (h Handler) pingRedis(ctx context.Context) error {
	if h.Redis == nil {
		return errNotConfigured("redis")
	}
	return h.Redis.Ping(ctx).Err()
}

type errNotConfigured string

func (e errNotConfigured) Error() string { return string(e) + " not configured" }
