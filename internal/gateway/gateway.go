package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const maxRequestBytes = 1 << 20

// check rejects a request before it is forwarded. body is the buffered
// request body.
type check func(r *http.Request, body []byte) error

// Gateway validates requests and forwards the well-formed ones to the server.
type Gateway struct {
	client  Forwarder
	limiter domain.RateLimitStore
	cfg     config.GatewayConfig
	grace   time.Duration
	server  *http.Server
	logger  *zerolog.Logger
	now     func() time.Time
}

// NewGateway wires the gateway routes. limiter may be nil when rate limiting
// is disabled.
func NewGateway(cfg *config.Config, client Forwarder, limiter domain.RateLimitStore, logger *zerolog.Logger) *Gateway {
	g := &Gateway{
		client:  client,
		limiter: limiter,
		cfg:     cfg.Gateway,
		grace:   cfg.Booking.StartGrace,
		logger:  logger,
		now:     models.Now,
	}
	if g.grace <= 0 {
		g.grace = models.DefaultStartGrace
	}

	router := mux.NewRouter()
	router.NotFoundHandler = api.NotFoundHandler()
	router.MethodNotAllowedHandler = api.MethodNotAllowedHandler()
	router.Use(api.RequestID, api.Logging(logger), api.Recover, api.Metrics("gateway"), g.rateLimit)
	g.routes(router)

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Gateway.Timeout + 5*time.Second,
	}
	return g
}

func (g *Gateway) routes(r *mux.Router) {
	r.HandleFunc("/healthz", g.handleHealth).Methods(http.MethodGet)

	r.Handle("/users", g.forward(g.checkUser)).Methods(http.MethodPost)
	r.Handle("/users", g.forward()).Methods(http.MethodGet)
	r.Handle("/users/{id:[0-9]+}", g.forward()).Methods(http.MethodGet, http.MethodDelete)
	r.Handle("/users/{id:[0-9]+}", g.forward(g.checkUserUpdate)).Methods(http.MethodPatch)

	r.Handle("/items", g.forward(g.checkItem)).Methods(http.MethodPost)
	r.Handle("/items", g.forward(g.checkUserID, g.checkPage)).Methods(http.MethodGet)
	r.Handle("/items/search", g.forward(g.checkUserID, g.checkSearch, g.checkPage)).Methods(http.MethodGet)
	r.Handle("/items/{id:[0-9]+}", g.forward(g.checkUserID)).Methods(http.MethodGet)
	r.Handle("/items/{id:[0-9]+}", g.forward(g.checkItemUpdate)).Methods(http.MethodPatch)
	r.Handle("/items/{id:[0-9]+}/comment", g.forward(g.checkComment)).Methods(http.MethodPost)

	r.Handle("/bookings", g.forward(g.checkBooking)).Methods(http.MethodPost)
	r.Handle("/bookings", g.forward(g.checkUserID, g.checkState, g.checkPage)).Methods(http.MethodGet)
	r.Handle("/bookings/owner", g.forward(g.checkUserID, g.checkState, g.checkPage)).Methods(http.MethodGet)
	r.Handle("/bookings/{id:[0-9]+}", g.forward(g.checkUserID)).Methods(http.MethodGet)
	r.Handle("/bookings/{id:[0-9]+}", g.forward(g.checkUserID, g.checkApproved)).Methods(http.MethodPatch)

	r.Handle("/requests", g.forward(g.checkRequest)).Methods(http.MethodPost)
	r.Handle("/requests", g.forward(g.checkUserID)).Methods(http.MethodGet)
	r.Handle("/requests/all", g.forward(g.checkUserID, g.checkPage)).Methods(http.MethodGet)
	r.Handle("/requests/{id:[0-9]+}", g.forward(g.checkUserID)).Methods(http.MethodGet)
}

// Handler returns the root handler, for tests and embedding.
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler
}

func (g *Gateway) Addr() string {
	return g.server.Addr
}

func (g *Gateway) Start() error {
	g.logger.Info().Str("addr", g.server.Addr).Str("server_url", g.cfg.ServerURL).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// forward runs checks in order and proxies the request once all pass.
func (g *Gateway) forward(checks ...check) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
		if err != nil {
			api.WriteError(w, r, domain.Validation("read request body: %v", err))
			return
		}
		if len(body) > maxRequestBytes {
			api.WriteJSON(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "request body too large"})
			return
		}
		for _, c := range checks {
			if err := c(r, body); err != nil {
				api.WriteError(w, r, err)
				return
			}
		}

		resp, err := g.client.Forward(r.Context(), r, body)
		if errors.Is(err, ErrResponseTooLarge) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("server response over limit")
			api.WriteJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: ErrResponseTooLarge.Error()})
			return
		}
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("server unreachable")
			api.WriteJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "server unavailable"})
			return
		}

		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.Status)
		_, _ = w.Write(resp.Body)
	})
}

// decode parses the buffered body the same way the server does.
func decode(r *http.Request, body []byte, dst any) error {
	clone := r.Clone(r.Context())
	clone.Body = io.NopCloser(bytes.NewReader(body))
	return api.DecodeJSON(clone, dst)
}
