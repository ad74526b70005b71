package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	Method    string
	Path      string
	Query     string
	Body      string
	UserID    string
	RequestID string
	APIKey    string
}

// upstream is a fake server that records what reaches it.
type upstream struct {
	mu     sync.Mutex
	seen   []seenRequest
	status int
	body   string
	srv    *httptest.Server
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{status: status, body: body}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.seen = append(u.seen, seenRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      string(raw),
			UserID:    r.Header.Get(models.UserIDHeader),
			RequestID: r.Header.Get(models.RequestIDHeader),
			APIKey:    r.Header.Get("X-Api-Key"),
		})
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(u.status)
		_, _ = io.WriteString(w, u.body)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) requests() []seenRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]seenRequest(nil), u.seen...)
}

func newTestGateway(t *testing.T, serverURL string, limiter domain.RateLimitStore, rl config.GatewayRateLimitConfig) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)
	cfg := &config.Config{Gateway: config.GatewayConfig{ServerURL: serverURL, RateLimit: rl}}
	client := NewServerClient(serverURL, "gw-key", "", time.Second)
	return NewGateway(cfg, client, limiter, &logger).Handler()
}

func send(h http.Handler, method, target string, userID string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req.Header.Set(models.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestGatewayForwardsValidRequests(t *testing.T) {
	up := newUpstream(t, http.StatusConflict, `{"error":"user with email a@b.io already exists"}`)
	h := newTestGateway(t, up.srv.URL, nil, config.GatewayRateLimitConfig{})

	rec := send(h, http.MethodPost, "/users", "", `{"name":"A","email":"a@b.io"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, `{"error":"user with email a@b.io already exists"}`, rec.Body.String())

	rec = send(h, http.MethodGet, "/items/search?text=drill&from=0&size=5", "3", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	seen := up.requests()
	require.Len(t, seen, 2)
	assert.Equal(t, http.MethodPost, seen[0].Method)
	assert.Equal(t, "/users", seen[0].Path)
	assert.JSONEq(t, `{"name":"A","email":"a@b.io"}`, seen[0].Body)
	assert.NotEmpty(t, seen[0].RequestID)
	assert.Equal(t, "gw-key", seen[0].APIKey)

	assert.Equal(t, http.MethodGet, seen[1].Method)
	assert.Equal(t, "/items/search", seen[1].Path)
	assert.Equal(t, "text=drill&from=0&size=5", seen[1].Query)
	assert.Equal(t, "3", seen[1].UserID)
	assert.Empty(t, seen[1].Body)
}

func TestGatewayRejectsBeforeForwarding(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	h := newTestGateway(t, up.srv.URL, nil, config.GatewayRateLimitConfig{})

	past := models.FormatDateTime(time.Now().Add(-time.Hour))
	future := models.FormatDateTime(time.Now().Add(time.Hour))
	later := models.FormatDateTime(time.Now().Add(2 * time.Hour))

	tests := []struct {
		name   string
		method string
		target string
		userID string
		body   string
		msg    string
	}{
		{name: "BadEmail", method: http.MethodPost, target: "/users", body: `{"name":"A","email":"nope"}`},
		{name: "BlankName", method: http.MethodPost, target: "/users", body: `{"name":" ","email":"a@b.io"}`},
		{name: "MalformedJSON", method: http.MethodPost, target: "/users", body: `{"name":`},
		{name: "EmptyBody", method: http.MethodPost, target: "/users", msg: "request body is required"},
		{name: "ItemWithoutHeader", method: http.MethodPost, target: "/items", body: `{"name":"Drill","description":"d","available":true}`, msg: models.UserIDHeader},
		{name: "ItemWithoutAvailable", method: http.MethodPost, target: "/items", userID: "1", body: `{"name":"Drill","description":"d"}`},
		{name: "BlankComment", method: http.MethodPost, target: "/items/1/comment", userID: "1", body: `{"text":""}`},
		{name: "BlankRequest", method: http.MethodPost, target: "/requests", userID: "1", body: `{"description":""}`},
		{name: "BookingInPast", method: http.MethodPost, target: "/bookings", userID: "1", body: `{"itemId":1,"start":"` + past + `","end":"` + future + `"}`},
		{name: "BookingReversed", method: http.MethodPost, target: "/bookings", userID: "1", body: `{"itemId":1,"start":"` + later + `","end":"` + future + `"}`},
		{name: "BookingBadDate", method: http.MethodPost, target: "/bookings", userID: "1", body: `{"itemId":1,"start":"tomorrow","end":"` + future + `"}`},
		{name: "UnknownState", method: http.MethodGet, target: "/bookings/owner?state=SOMETIMES", userID: "1", msg: "Unknown state: SOMETIMES"},
		{name: "NegativeFrom", method: http.MethodGet, target: "/requests/all?from=-1", userID: "1"},
		{name: "ZeroSize", method: http.MethodGet, target: "/items?size=0", userID: "1"},
		{name: "ApprovedMissing", method: http.MethodPatch, target: "/bookings/1", userID: "1", msg: "approved"},
		{name: "ApprovedGarbage", method: http.MethodPatch, target: "/bookings/1?approved=yes", userID: "1"},
		{name: "SearchWithoutText", method: http.MethodGet, target: "/items/search", userID: "1"},
		{name: "NonNumericUser", method: http.MethodGet, target: "/requests", userID: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(h, tt.method, tt.target, tt.userID, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			msg := errorOf(t, rec)
			if tt.msg != "" {
				assert.Contains(t, msg, tt.msg)
			}
		})
	}
	assert.Empty(t, up.requests())
}

func TestGatewayServerUnavailable(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `[]`)
	url := up.srv.URL
	up.srv.Close()

	h := newTestGateway(t, url, nil, config.GatewayRateLimitConfig{})
	rec := send(h, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "server unavailable", errorOf(t, rec))
}

func TestGatewayBodyLimits(t *testing.T) {
	t.Run("ResponseOverLimit", func(t *testing.T) {
		big := `[` + strings.Repeat(`{"id":1,"name":"Drill"},`, (5<<20)/24) + `{}]`
		up := newUpstream(t, http.StatusOK, big)
		h := newTestGateway(t, up.srv.URL, nil, config.GatewayRateLimitConfig{})

		rec := send(h, http.MethodGet, "/users", "", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "server response too large", errorOf(t, rec))
	})

	t.Run("ResponseAtLimit", func(t *testing.T) {
		exact := `"` + strings.Repeat("a", maxResponseBytes-2) + `"`
		up := newUpstream(t, http.StatusOK, exact)
		h := newTestGateway(t, up.srv.URL, nil, config.GatewayRateLimitConfig{})

		rec := send(h, http.MethodGet, "/users", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, maxResponseBytes, rec.Body.Len())
	})

	t.Run("RequestOverLimit", func(t *testing.T) {
		up := newUpstream(t, http.StatusCreated, `{}`)
		h := newTestGateway(t, up.srv.URL, nil, config.GatewayRateLimitConfig{})

		body := `{"name":"A","email":"a@b.io","pad":"` + strings.Repeat("x", maxRequestBytes) + `"}`
		rec := send(h, http.MethodPost, "/users", "", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "request body too large", errorOf(t, rec))
		assert.Empty(t, up.requests())
	})
}

func TestGatewayRoutes(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `[]`)
	h := newTestGateway(t, up.srv.URL, nil, config.GatewayRateLimitConfig{})

	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusNotFound, send(h, http.MethodGet, "/unknown", "", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, send(h, http.MethodPut, "/items", "1", "").Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodDelete, "/users/4", "", "").Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/bookings?state=PAST&from=0&size=1", "1", "").Code)

	seen := up.requests()
	require.Len(t, seen, 2)
	assert.Equal(t, http.MethodDelete, seen[0].Method)
	assert.Equal(t, "/users/4", seen[0].Path)
	assert.Equal(t, "state=PAST&from=0&size=1", seen[1].Query)
}

func TestGatewayRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := repository.NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.New(io.Discard)
	limiter := repository.NewFailoverRateLimiter(
		repository.NewRedisRateLimiter(client, "gateway"),
		repository.NewMemoryRateLimiter(),
		&logger,
	)

	up := newUpstream(t, http.StatusOK, `[]`)
	h := newTestGateway(t, up.srv.URL, limiter, config.GatewayRateLimitConfig{
		Enabled: true,
		Limit:   2,
		Window:  time.Minute,
	})

	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "1", "").Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "1", "").Code)
	rec := send(h, http.MethodGet, "/requests", "1", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", errorOf(t, rec))

	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "2", "").Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/healthz", "1", "").Code)

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "1", "").Code)
	assert.Len(t, up.requests(), 4)
}

func TestLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "ip:192.0.2.7", limitKey(req))

	req.Header.Set(models.UserIDHeader, "9")
	assert.Equal(t, "user:9", limitKey(req))
}
