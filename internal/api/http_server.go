package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Services bundles the business services the HTTP layer dispatches to.
type Services struct {
	Users    domain.UserService
	Items    domain.ItemService
	Bookings domain.BookingService
	Requests domain.RequestService
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPServer exposes the shareit JSON API.
type HTTPServer struct {
	svc    Services
	ready  Pinger
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg *config.Config, svc Services, ready Pinger, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{svc: svc, ready: ready, logger: logger}

	router := mux.NewRouter()
	router.NotFoundHandler = NotFoundHandler()
	router.MethodNotAllowedHandler = MethodNotAllowedHandler()
	router.Use(RequestID, Logging(logger), Recover, Metrics("server"), NewHTTPAuth(cfg.API, "server").Wrap)
	srv.routes(router)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes(r *mux.Router) {
	r.HandleFunc(healthzPath, s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc(readyzPath, s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/users", s.createUser).Methods(http.MethodPost)
	r.HandleFunc("/users", s.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}", s.getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}", s.updateUser).Methods(http.MethodPatch)
	r.HandleFunc("/users/{id:[0-9]+}", s.deleteUser).Methods(http.MethodDelete)

	r.HandleFunc("/items", s.createItem).Methods(http.MethodPost)
	r.HandleFunc("/items", s.listItems).Methods(http.MethodGet)
	r.HandleFunc("/items/search", s.searchItems).Methods(http.MethodGet)
	r.HandleFunc("/items/{id:[0-9]+}", s.getItem).Methods(http.MethodGet)
	r.HandleFunc("/items/{id:[0-9]+}", s.updateItem).Methods(http.MethodPatch)
	r.HandleFunc("/items/{id:[0-9]+}/comment", s.createComment).Methods(http.MethodPost)

	r.HandleFunc("/bookings", s.createBooking).Methods(http.MethodPost)
	r.HandleFunc("/bookings", s.listBookings).Methods(http.MethodGet)
	r.HandleFunc("/bookings/owner", s.listOwnerBookings).Methods(http.MethodGet)
	r.HandleFunc("/bookings/{id:[0-9]+}", s.getBooking).Methods(http.MethodGet)
	r.HandleFunc("/bookings/{id:[0-9]+}", s.approveBooking).Methods(http.MethodPatch)

	r.HandleFunc("/requests", s.createRequest).Methods(http.MethodPost)
	r.HandleFunc("/requests", s.listMyRequests).Methods(http.MethodGet)
	r.HandleFunc("/requests/all", s.listOtherRequests).Methods(http.MethodGet)
	r.HandleFunc("/requests/{id:[0-9]+}", s.getRequest).Methods(http.MethodGet)
}

// Handler returns the root handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
