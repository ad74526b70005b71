package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewTestDB(&logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	if cfg == nil {
		cfg = &config.Config{}
	}
	bus := events.NewEventBus()
	svc := Services{
		Users:    service.NewUserService(db, &logger),
		Items:    service.NewItemService(db, bus, &logger),
		Bookings: service.NewBookingService(db, bus, cfg.Booking.StartGrace, &logger),
		Requests: service.NewRequestService(db, &logger),
	}
	srv := NewHTTPServer(cfg, svc, db, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

type apiClient struct {
	t    *testing.T
	base string
}

func (c apiClient) do(method, path string, userID int64, body any) (int, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(models.UserIDHeader, fmt.Sprint(userID))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

func (c apiClient) decode(raw []byte, dst any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(raw, dst), string(raw))
}

func errorMessage(t *testing.T, raw []byte) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body.Error
}

func TestBookingWorkedExample(t *testing.T) {
	ts, db := newTestServer(t, nil)
	c := apiClient{t: t, base: ts.URL}

	status, _ := c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Booker", Email: "booker@example.com"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Owner", Email: "owner@example.com"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Stranger", Email: "stranger@example.com"})
	require.Equal(t, http.StatusCreated, status)

	available := true
	status, raw := c.do(http.MethodPost, "/items", 2, models.ItemDto{Name: "Drill", Description: "Cordless drill", Available: &available})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var item models.ItemDto
	c.decode(raw, &item)
	require.Equal(t, int64(1), item.ID)
	assert.Equal(t, int64(2), item.OwnerID)

	now := time.Now()
	status, raw = c.do(http.MethodPost, "/bookings", 1, models.BookingShortDto{
		ItemID: 1,
		Start:  models.FormatDateTime(now.Add(time.Hour)),
		End:    models.FormatDateTime(now.Add(2 * time.Hour)),
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var booking models.BookingDto
	c.decode(raw, &booking)
	assert.Equal(t, int64(1), booking.ID)
	assert.Equal(t, models.StatusWaiting, booking.Status)

	stored, err := db.GetItemByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, stored.Available)

	status, raw = c.do(http.MethodPatch, "/bookings/1?approved=true", 2, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	c.decode(raw, &booking)
	assert.Equal(t, models.StatusApproved, booking.Status)

	stored, err = db.GetItemByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, stored.Available)

	status, raw = c.do(http.MethodGet, "/bookings/1", 1, nil)
	require.Equal(t, http.StatusOK, status)
	c.decode(raw, &booking)
	assert.Equal(t, models.StatusApproved, booking.Status)
	assert.Equal(t, "Booker", booking.Booker.Name)
	assert.Equal(t, "Drill", booking.Item.Name)

	status, raw = c.do(http.MethodGet, "/bookings/1", 3, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, errorMessage(t, raw))
}

func TestUserEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	c := apiClient{t: t, base: ts.URL}

	status, raw := c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Alice", Email: "alice@example.com"})
	require.Equal(t, http.StatusCreated, status)
	var alice models.UserDto
	c.decode(raw, &alice)

	status, raw = c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Alice", Email: "alice@example.com"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, errorMessage(t, raw), "alice@example.com")

	status, _ = c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Bad", Email: "bad"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = c.do(http.MethodPatch, fmt.Sprintf("/users/%d", alice.ID), 0, map[string]string{"name": "Alicia"})
	require.Equal(t, http.StatusOK, status)
	c.decode(raw, &alice)
	assert.Equal(t, "Alicia", alice.Name)
	assert.Equal(t, "alice@example.com", alice.Email)

	status, raw = c.do(http.MethodGet, "/users", 0, nil)
	require.Equal(t, http.StatusOK, status)
	var users []models.UserDto
	c.decode(raw, &users)
	assert.Len(t, users, 1)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/users/%d", alice.ID), 0, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, fmt.Sprintf("/users/%d", alice.ID), 0, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/users/%d", alice.ID), 0, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRequestValidation(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	c := apiClient{t: t, base: ts.URL}

	status, _ := c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Owner", Email: "owner@example.com"})
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name   string
		method string
		path   string
		userID int64
		body   any
		status int
		msg    string
	}{
		{name: "MissingHeader", method: http.MethodGet, path: "/items", status: http.StatusBadRequest, msg: models.UserIDHeader},
		{name: "UnknownState", method: http.MethodGet, path: "/bookings?state=UNSUPPORTED_STATUS", userID: 1, status: http.StatusBadRequest, msg: "Unknown state: UNSUPPORTED_STATUS"},
		{name: "NegativeFrom", method: http.MethodGet, path: "/bookings/owner?from=-1", userID: 1, status: http.StatusBadRequest},
		{name: "ZeroSize", method: http.MethodGet, path: "/requests/all?size=0", userID: 1, status: http.StatusBadRequest},
		{name: "NonNumericSize", method: http.MethodGet, path: "/items?size=ten", userID: 1, status: http.StatusBadRequest},
		{name: "MissingApproved", method: http.MethodPatch, path: "/bookings/1", userID: 1, status: http.StatusBadRequest, msg: "approved"},
		{name: "MissingSearchText", method: http.MethodGet, path: "/items/search", userID: 1, status: http.StatusBadRequest},
		{name: "UnknownRoute", method: http.MethodGet, path: "/nope", status: http.StatusNotFound},
		{name: "WrongMethod", method: http.MethodPut, path: "/users", status: http.StatusMethodNotAllowed},
		{name: "MissingUser", method: http.MethodGet, path: "/users/42", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := c.do(tt.method, tt.path, tt.userID, tt.body)
			assert.Equal(t, tt.status, status, string(raw))
			if tt.msg != "" {
				assert.Contains(t, errorMessage(t, raw), tt.msg)
			}
		})
	}

	t.Run("MalformedJSON", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/users", bytes.NewBufferString("{"))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("EmptySearch", func(t *testing.T) {
		status, raw := c.do(http.MethodGet, "/items/search?text=", 1, nil)
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, "[]", string(raw))
	})

	t.Run("EmptyBookingList", func(t *testing.T) {
		status, raw := c.do(http.MethodGet, "/bookings", 1, nil)
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, "[]", string(raw))
	})
}

func TestItemsAndRequestsEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	c := apiClient{t: t, base: ts.URL}

	c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Requester", Email: "req@example.com"})
	c.do(http.MethodPost, "/users", 0, models.UserDto{Name: "Owner", Email: "owner@example.com"})

	status, raw := c.do(http.MethodPost, "/requests", 1, models.ItemRequestDto{Description: "Need a tent"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var req models.ItemRequestDto
	c.decode(raw, &req)
	assert.NotEmpty(t, req.Created)

	available := true
	status, raw = c.do(http.MethodPost, "/items", 2, models.ItemDto{
		Name: "Tent", Description: "Two person tent", Available: &available, RequestID: &req.ID,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = c.do(http.MethodGet, fmt.Sprintf("/requests/%d", req.ID), 2, nil)
	require.Equal(t, http.StatusOK, status)
	var full models.ItemRequestResponseDto
	c.decode(raw, &full)
	require.Len(t, full.Items, 1)
	assert.Equal(t, "Tent", full.Items[0].Name)

	status, raw = c.do(http.MethodGet, "/requests/all?from=0&size=5", 2, nil)
	require.Equal(t, http.StatusOK, status)
	var all []models.ItemRequestResponseDto
	c.decode(raw, &all)
	assert.Len(t, all, 1)

	status, raw = c.do(http.MethodGet, "/items/search?text=TENT", 1, nil)
	require.Equal(t, http.StatusOK, status)
	var found []models.ItemDto
	c.decode(raw, &found)
	assert.Len(t, found, 1)

	status, raw = c.do(http.MethodPatch, "/items/1", 1, map[string]string{"name": "Mine"})
	assert.Equal(t, http.StatusNotFound, status, string(raw))

	status, raw = c.do(http.MethodGet, "/items", 2, nil)
	require.Equal(t, http.StatusOK, status)
	var owned []models.ItemWithBookingsDto
	c.decode(raw, &owned)
	require.Len(t, owned, 1)
	assert.Nil(t, owned[0].LastBooking)
	assert.NotNil(t, owned[0].Comments)

	status, raw = c.do(http.MethodPost, "/items/1/comment", 1, models.CommentDto{Text: "Great"})
	assert.Equal(t, http.StatusBadRequest, status, string(raw))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("db down") }

func TestProbes(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(models.RequestIDHeader))

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	logger := zerolog.New(io.Discard)
	srv := NewHTTPServer(&config.Config{}, Services{}, failingPinger{}, &logger)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set(models.RequestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(models.RequestIDHeader))
}
