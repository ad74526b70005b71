package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError maps err onto a status code and writes {"error": "..."}.
// Unclassified errors are logged and reported without detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	WriteJSON(w, status, models.ErrorResponse{Error: domain.PublicMessage(err)})
}

// DecodeJSON reads a single JSON document from the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("request body is required")
		}
		return domain.Validation("invalid JSON body: %v", err)
	}
	return nil
}

// UserID returns the acting user from the X-Sharer-User-Id header.
func UserID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(models.UserIDHeader))
	if raw == "" {
		return 0, domain.Validation("header %s is required", models.UserIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Validation("header %s must be a number", models.UserIDHeader)
	}
	return id, nil
}

// PathID parses a numeric route variable.
func PathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Validation("invalid %s: %s", name, raw)
	}
	return id, nil
}

// Page reads from/size with their defaults. Range checks are left to the
// caller so that both services report them the same way.
func Page(r *http.Request) (from, size int, err error) {
	q := r.URL.Query()
	from, err = intParam(q.Get("from"), "from", models.DefaultPageFrom)
	if err != nil {
		return 0, 0, err
	}
	size, err = intParam(q.Get("size"), "size", models.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return from, size, nil
}

func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation("%s must be a number", name)
	}
	return v, nil
}

// Approved parses the mandatory approved=true|false query parameter.
func Approved(r *http.Request) (bool, error) {
	switch r.URL.Query().Get("approved") {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "":
		return false, domain.Validation("approved is required")
	default:
		return false, domain.Validation("approved must be true or false")
	}
}

// NotFoundHandler answers unknown routes with the usual error body.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	})
}

// MethodNotAllowedHandler answers known routes hit with the wrong method.
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
	})
}
