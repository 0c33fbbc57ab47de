package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/authotp/internal/pkg/router"
)

type healthResponse struct {
	status map[string]string
	code   int
}

func (h healthResponse) Message() string {
	if h.code != http.StatusOK {
		return "service unavailable"
	}
	return "ok"
}

func (h healthResponse) StatusCode() int { return h.code }
func (h healthResponse) Payload() any    { return h.status }

// health reports whether the database and redis answer a ping.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{status: map[string]string{}, code: http.StatusOK}

	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			resp.status[name] = "down"
			resp.code = http.StatusServiceUnavailable
			return
		}
		resp.status[name] = "up"
	}

	check("database", a.dbConn.Ping)
	if a.cacheConn != nil {
		check("redis", func(ctx context.Context) error { return a.cacheConn.Ping(ctx).Err() })
	}

	return resp, nil
}
