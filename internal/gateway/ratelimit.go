package gateway

import (
	"net"
	"net/http"
	"strings"

	"shareit/internal/api"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// rateLimit applies the fixed-window limit per sharer user, or per remote
// host for anonymous calls. Store failures let the request through.
func (g *Gateway) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.limiter == nil || !g.cfg.RateLimit.Enabled || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := g.limiter.CheckRateLimit(r.Context(), limitKey(r), g.cfg.RateLimit.Limit, g.cfg.RateLimit.Window)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			metrics.IncRateLimited("gateway")
			api.WriteJSON(w, http.StatusTooManyRequests, models.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func limitKey(r *http.Request) string {
	if userID := strings.TrimSpace(r.Header.Get(models.UserIDHeader)); userID != "" {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}
